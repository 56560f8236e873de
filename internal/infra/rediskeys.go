package infra

import "fmt"

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "ovcare"
)

// Каналы Pub/Sub (события)
const (
	// RedisChanRiskAssessed — новая оценка риска после ввода замера. Формат: "patient_id:tier".
	RedisChanRiskAssessed = RedisNamespace + ":risk:assessed"
)

// SessionKey — ключ сессии пользователя (TTL = таймаут бездействия)
func SessionKey(sessionID string) string {
	return fmt.Sprintf("%s:session:%s", RedisNamespace, sessionID)
}

// RiskAssessmentKey — кэш итоговой оценки риска пациента, сбрасывается при новом замере
func RiskAssessmentKey(patientID int64) string {
	return fmt.Sprintf("%s:risk:assessment:%d", RedisNamespace, patientID)
}

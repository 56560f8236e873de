package audit

import "time"

// AccessEvent — факт доступа к медицинским данным пациента
type AccessEvent struct {
	ID        string         `json:"id"`         // UUID события
	TraceID   string         `json:"trace_id"`   // Сквозной ID запроса
	ActorID   int64          `json:"actor_id"`   // Кто обращался
	ActorRole string         `json:"actor_role"` // "patient" или "doctor"
	PatientID int64          `json:"patient_id"` // Чьи данные
	Action    string         `json:"action"`     // Например "view_patient", "add_note"
	Status    string         `json:"status"`     // "SUCCESS", "DENIED", "FAILED"
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

const (
	StatusSuccess = "SUCCESS"
	StatusDenied  = "DENIED"
	StatusFailed  = "FAILED"
)

package risk

import "github.com/xela07ax/ovcare-portal/internal/domain"

// CalculateVelocity — скорость изменения маркера в день. 0, если интервал не положительный.
func CalculateVelocity(current, previous, days float64) float64 {
	if days <= 0 {
		return 0
	}
	return (current - previous) / days
}

// VelocityBetween считает скорости CA125 и HE4 между двумя замерами.
// prev == nil — первый замер пациента, скорости нулевые.
func VelocityBetween(cur domain.BiomarkerEntry, prev *domain.BiomarkerEntry) (ca125, he4 float64) {
	if prev == nil {
		return 0, 0
	}
	days := cur.RecordedAt.Sub(prev.RecordedAt).Hours() / 24
	return CalculateVelocity(cur.CA125, prev.CA125, days), CalculateVelocity(cur.HE4, prev.HE4, days)
}

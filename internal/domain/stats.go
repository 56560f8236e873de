package domain

// Analytics — агрегированная статистика для врача
type Analytics struct {
	TotalPatients    int64            `json:"total_patients"`
	RiskDistribution map[RiskTier]int `json:"risk_distribution"` // По последней оценке каждого пациента
	AvgCA125         float64          `json:"avg_ca125"`
	AvgHE4           float64          `json:"avg_he4"`
}

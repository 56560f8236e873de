package domain

import "time"

// ChartSeries — данные для графиков дашборда (по возрастанию времени)
type ChartSeries struct {
	Labels      []string  `json:"labels"`
	CA125       []float64 `json:"ca125"`
	HE4         []float64 `json:"he4"`
	HeartRate   []float64 `json:"heart_rate"`
	Temperature []float64 `json:"temperature"`
	SleepHours  []float64 `json:"sleep_hours"`
}

type PatientDashboard struct {
	Patient       *Patient        `json:"patient"`
	Latest        *BiomarkerEntry `json:"latest,omitempty"`
	Chart         ChartSeries     `json:"chart"`
	Risk          RiskAssessment  `json:"risk"`
	UnreadAlerts  int             `json:"unread_notifications"`
	TotalReadings int             `json:"total_readings"`
}

type PatientHistory struct {
	Entries []BiomarkerEntry `json:"entries"`
	Risk    []RiskRecord     `json:"risk_history"`
}

type PatientAlerts struct {
	Notes   []DoctorNote `json:"doctor_notes"`
	Summary *RiskSummary `json:"risk_summary"` // nil — истории оценок нет
}

// PatientRow — строка таблицы пациентов на дашборде врача
type PatientRow struct {
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	Email      string         `json:"email"`
	Age        int            `json:"age"`
	CA125      *float64       `json:"ca125"`
	HE4        *float64       `json:"he4"`
	RecordedAt *time.Time     `json:"recorded_at"`
	Risk       RiskAssessment `json:"risk"`
}

type DoctorDashboard struct {
	Patients  []PatientRow     `json:"patients"`
	RiskStats map[RiskTier]int `json:"risk_stats"`
}

// PatientView — карточка пациента для врача
type PatientView struct {
	Patient     *Patient         `json:"patient"`
	Biomarkers  []BiomarkerEntry `json:"biomarkers"`
	RiskHistory []RiskRecord     `json:"risk_history"`
	Notes       []DoctorNote     `json:"notes"`
	Summary     *RiskSummary     `json:"risk_summary"`
	Chart       ChartSeries      `json:"chart"`
}

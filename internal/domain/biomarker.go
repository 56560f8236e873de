package domain

import "time"

type BiomarkerEntry struct {
	ID          int64     `json:"id"`
	PatientID   int64     `json:"patient_id"`
	CA125       float64   `json:"ca125"`
	HE4         float64   `json:"he4"`
	HeartRate   float64   `json:"heart_rate"`
	Temperature float64   `json:"temperature"`
	SleepHours  float64   `json:"sleep_hours"`
	Symptoms    string    `json:"symptoms"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// BiomarkerInput — форма ввода замера (пациентом или врачом)
type BiomarkerInput struct {
	CA125       float64 `json:"ca125" validate:"gte=0,lte=100000"`
	HE4         float64 `json:"he4" validate:"gte=0,lte=100000"`
	HeartRate   float64 `json:"heart_rate" validate:"gte=0,lte=250"`
	Temperature float64 `json:"temperature" validate:"omitempty,gte=25,lte=45"`
	SleepHours  float64 `json:"sleep_hours" validate:"gte=0,lte=24"`
	Symptoms    string  `json:"symptoms" validate:"max=2000"`

	// Время замера задним числом (только врач). nil — текущее время.
	RecordedAt *time.Time `json:"recorded_at,omitempty"`
}

func (in *BiomarkerInput) Validate() error {
	return validateStruct(in)
}

// EntryResult — результат сохранения замера вместе с первичной оценкой
type EntryResult struct {
	Entry BiomarkerEntry `json:"entry"`
	Risk  RiskRecord     `json:"risk"`
}

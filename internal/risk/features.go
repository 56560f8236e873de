package risk

import "github.com/xela07ax/ovcare-portal/internal/domain"

// Значения по умолчанию для признаков, которые портал не собирает
const (
	defaultLDH       = 180.0
	defaultHemoglob  = 13.0
	defaultWBC       = 7000.0
	defaultPlatelets = 250000.0
	defaultOvarySize = 3.5
	defaultFatigue   = 5

	// Бинарный ответ модели без вероятности
	modelPositiveProbability = 0.75
	modelNegativeProbability = 0.25
)

// FeaturesFor собирает вектор признаков для ML-сервиса из последнего замера
func FeaturesFor(age int, e domain.BiomarkerEntry) map[string]any {
	wbc := defaultWBC
	if e.HeartRate > 0 {
		wbc = e.HeartRate * 100
	}
	return map[string]any{
		"Age":                      age,
		"CA125_Level":              e.CA125,
		"HE4_Level":                e.HE4,
		"LDH_Level":                defaultLDH,
		"Hemoglobin":               defaultHemoglob,
		"WBC":                      wbc,
		"Platelets":                defaultPlatelets,
		"Ovary_Size":               defaultOvarySize,
		"Fatigue_Level":            defaultFatigue,
		"Pelvic_Pain":              0,
		"Abdominal_Bloating":       0,
		"Early_Satiety":            0,
		"Menstrual_Irregularities": 0,
		"Weight_Change":            0.0,
	}
}

// FromPrediction переводит ответ модели в вероятность.
// ok == false, если в ответе нет ни probability, ни risk.
func FromPrediction(p *domain.Prediction) (probability float64, ok bool) {
	if p == nil {
		return 0, false
	}
	if p.Probability != nil {
		return clamp(*p.Probability, 0, 1), true
	}
	if p.Risk != nil {
		if *p.Risk != 0 {
			return modelPositiveProbability, true
		}
		return modelNegativeProbability, true
	}
	return 0, false
}

// Explain — упрощенное объяснение для пациента
func Explain(ca125, he4 float64, symptoms string) map[string]string {
	level := func(v, limit float64) string {
		if v >= limit {
			return "High"
		}
		return "Normal"
	}
	return map[string]string{
		"CA125":    level(ca125, CA125Limit),
		"HE4":      level(he4, HE4Limit),
		"Symptoms": symptoms,
	}
}

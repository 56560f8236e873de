package service

import (
	"time"

	"github.com/xela07ax/ovcare-portal/internal/domain"
)

const chartLabelLayout = "2006-01-02 15:04"

// buildChart — серии для графиков; entries по возрастанию времени
func buildChart(entries []domain.BiomarkerEntry) domain.ChartSeries {
	c := domain.ChartSeries{
		Labels:      make([]string, 0, len(entries)),
		CA125:       make([]float64, 0, len(entries)),
		HE4:         make([]float64, 0, len(entries)),
		HeartRate:   make([]float64, 0, len(entries)),
		Temperature: make([]float64, 0, len(entries)),
		SleepHours:  make([]float64, 0, len(entries)),
	}
	for _, e := range entries {
		c.Labels = append(c.Labels, e.RecordedAt.UTC().Format(chartLabelLayout))
		c.CA125 = append(c.CA125, e.CA125)
		c.HE4 = append(c.HE4, e.HE4)
		c.HeartRate = append(c.HeartRate, e.HeartRate)
		c.Temperature = append(c.Temperature, e.Temperature)
		c.SleepHours = append(c.SleepHours, e.SleepHours)
	}
	return c
}

// reversed возвращает копию в обратном порядке (DESC из базы -> ASC для графика)
func reversed(entries []domain.BiomarkerEntry) []domain.BiomarkerEntry {
	out := make([]domain.BiomarkerEntry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out
}

func timePtr(t time.Time) *time.Time { return &t }

package aggregate

import "math"

// MinutesPerHour and HoursPerDay convert totals into hours and working days.
const (
	MinutesPerHour = 60.0
	HoursPerDay    = 7.75
)

// Row is one line of the report.
type Row struct {
	Month           string  `json:"month"`
	SubjectCategory string  `json:"subjectCategory"`
	Subject         string  `json:"subject"`
	Count           int     `json:"count"`
	TotalMinutes    float64 `json:"totalDurationMinutes"`
	TotalHours      float64 `json:"totalDurationHours"`
	TotalDays       float64 `json:"totalDurationDays"`
	Categories      string  `json:"categories"`
}

func newRow(key Key, b *bucket) Row {
	minutes := float64(b.totalMinutes)
	hours := minutes / MinutesPerHour
	days := hours / HoursPerDay
	return Row{
		Month:           key.Month,
		SubjectCategory: b.subjectCategory,
		Subject:         key.Subject,
		Count:           b.count,
		TotalMinutes:    Round2(minutes),
		TotalHours:      Round2(hours),
		TotalDays:       Round2(days),
		Categories:      b.categories,
	}
}

// Round2 rounds to two decimals, halves away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

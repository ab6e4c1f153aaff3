package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/klokku/meetstats/pkg/aggregate"
)

const (
	ColumnMonth           = "Month"
	ColumnSubjectCategory = "Subject Categories"
	ColumnSubject         = "Subject"
	ColumnCount           = "Count"
	ColumnMinutes         = "Total Duration (minutes)"
	ColumnHours           = "Total Duration (hours)"
	ColumnDays            = "Total Duration (days)"
	ColumnCategories      = "Categories"
)

// Header is the first row of every exported file.
var Header = []string{
	ColumnMonth,
	ColumnSubjectCategory,
	ColumnSubject,
	ColumnCount,
	ColumnMinutes,
	ColumnHours,
	ColumnDays,
	ColumnCategories,
}

// Unit selects which duration column is shown in previews.
type Unit string

const (
	UnitMinutes Unit = "minutes"
	UnitHours   Unit = "hours"
	UnitDays    Unit = "days"
)

func ParseUnit(value string) (Unit, error) {
	switch u := Unit(strings.ToLower(strings.TrimSpace(value))); u {
	case UnitMinutes, UnitHours, UnitDays:
		return u, nil
	case "":
		return UnitMinutes, nil
	}
	return "", fmt.Errorf("unknown display unit %q", value)
}

func (u Unit) Column() string {
	switch u {
	case UnitHours:
		return ColumnHours
	case UnitDays:
		return ColumnDays
	}
	return ColumnMinutes
}

func (u Unit) Value(row aggregate.Row) float64 {
	switch u {
	case UnitHours:
		return row.TotalHours
	case UnitDays:
		return row.TotalDays
	}
	return row.TotalMinutes
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func rowToStrings(row aggregate.Row) []string {
	return []string{
		row.Month,
		row.SubjectCategory,
		row.Subject,
		strconv.Itoa(row.Count),
		formatFloat(row.TotalMinutes),
		formatFloat(row.TotalHours),
		formatFloat(row.TotalDays),
		row.Categories,
	}
}

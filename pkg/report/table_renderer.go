package report

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/klokku/meetstats/pkg/aggregate"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
)

// TableRenderer prints a preview of the report with a single duration column,
// chosen by Unit. Switching units only re-renders the rows already computed.
type TableRenderer struct {
	Unit Unit
}

func NewTableRenderer(unit Unit) *TableRenderer {
	return &TableRenderer{Unit: unit}
}

func (r *TableRenderer) Columns() []string {
	return []string{ColumnMonth, ColumnSubjectCategory, ColumnSubject, ColumnCount, r.Unit.Column(), ColumnCategories}
}

func (r *TableRenderer) Cells(row aggregate.Row) []string {
	return []string{
		row.Month,
		row.SubjectCategory,
		row.Subject,
		strconv.Itoa(row.Count),
		formatFloat(r.Unit.Value(row)),
		row.Categories,
	}
}

func (r *TableRenderer) Render(rows []aggregate.Row) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(r.Columns()...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 3 || col == 4:
				return numberStyle
			}
			return cellStyle
		})
	for _, row := range rows {
		t.Row(r.Cells(row)...)
	}
	return t.String()
}

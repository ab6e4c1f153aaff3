package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klokku/meetstats/internal/utils"
	"github.com/klokku/meetstats/pkg/aggregate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var rows = []aggregate.Row{
	{
		Month:           "2024/03",
		SubjectCategory: "Plan",
		Subject:         "Plan: Q1",
		Count:           2,
		TotalMinutes:    90,
		TotalHours:      1.5,
		TotalDays:       0.19,
		Categories:      "None",
	},
	{
		Month:           "2024/04",
		SubjectCategory: "None",
		Subject:         "Standup, daily",
		Count:           1,
		TotalMinutes:    465,
		TotalHours:      7.75,
		TotalDays:       1,
		Categories:      "Red, Blue",
	},
}

func TestCsvRenderer_RenderReport(t *testing.T) {
	got, err := NewCsvRenderer().RenderReport(rows)

	require.NoError(t, err)
	assert.Equal(t,
		"Month,Subject Categories,Subject,Count,Total Duration (minutes),Total Duration (hours),Total Duration (days),Categories\n"+
			"2024/03,Plan,Plan: Q1,2,90,1.5,0.19,None\n"+
			"2024/04,None,\"Standup, daily\",1,465,7.75,1,\"Red, Blue\"\n",
		string(got))
}

func TestCsvRenderer_EmptyReportHasHeader(t *testing.T) {
	got, err := NewCsvRenderer().RenderReport(nil)

	require.NoError(t, err)
	assert.Equal(t, strings.Join(Header, ",")+"\n", string(got))
}

func TestXlsxRenderer_RenderReport(t *testing.T) {
	// given
	body, err := NewXlsxRenderer().RenderReport(rows)
	require.NoError(t, err)

	// when
	f, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	defer f.Close()
	sheetRows, err := f.GetRows(SheetName)
	require.NoError(t, err)

	// then
	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	require.Len(t, sheetRows, 3)
	assert.Equal(t, Header, sheetRows[0])
	assert.Equal(t, []string{"2024/03", "Plan", "Plan: Q1", "2", "90", "1.5", "0.19", "None"}, sheetRows[1])
	assert.Equal(t, "Standup, daily", sheetRows[2][2])
}

func TestJsonRenderer_RenderReport(t *testing.T) {
	body, err := NewJsonRenderer().RenderReport(nil)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(body))

	body, err = NewJsonRenderer().RenderReport(rows[:1])
	require.NoError(t, err)
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "Plan", decoded[0]["subjectCategory"])
	assert.Equal(t, 0.19, decoded[0]["totalDurationDays"])
}

func TestTableRenderer_Render(t *testing.T) {
	tests := []struct {
		unit   Unit
		column string
		value  string
	}{
		{unit: UnitMinutes, column: ColumnMinutes, value: "465"},
		{unit: UnitHours, column: ColumnHours, value: "7.75"},
		{unit: UnitDays, column: ColumnDays, value: "0.19"},
	}
	for _, tt := range tests {
		t.Run(string(tt.unit), func(t *testing.T) {
			out := NewTableRenderer(tt.unit).Render(rows)

			assert.Contains(t, out, tt.column)
			assert.Contains(t, out, tt.value)
			assert.Contains(t, out, "Plan: Q1")
			for _, other := range []string{ColumnMinutes, ColumnHours, ColumnDays} {
				if other != tt.column {
					assert.NotContains(t, out, other)
				}
			}
		})
	}
}

func TestParseFormatAndUnit(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatXlsx, f)
	f, err = ParseFormat(" CSV ")
	require.NoError(t, err)
	assert.Equal(t, FormatCsv, f)
	_, err = ParseFormat("ods")
	assert.Error(t, err)

	u, err := ParseUnit("Days")
	require.NoError(t, err)
	assert.Equal(t, UnitDays, u)
	_, err = ParseUnit("weeks")
	assert.Error(t, err)
}

func TestFileSink_Save(t *testing.T) {
	// given
	dir := filepath.Join(t.TempDir(), "nested", "out")
	clock := &utils.MockClock{FixedNow: time.Date(2024, time.March, 5, 14, 7, 9, 0, time.Local)}
	sink := NewFileSink(dir, "", clock)

	// when
	path, err := sink.Save(rows, NewCsvRenderer())

	// then
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "outlook_meetings_20240305140709.csv"), path)
	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "Month,"))
}

func TestFileSink_SaveEmptyWorkbook(t *testing.T) {
	clock := &utils.MockClock{FixedNow: time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)}
	sink := NewFileSink(t.TempDir(), "team_meetings", clock)

	path, err := sink.Save(nil, NewXlsxRenderer())

	require.NoError(t, err)
	assert.Equal(t, "team_meetings_20240305000000.xlsx", filepath.Base(path))
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	sheetRows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Equal(t, [][]string{Header}, sheetRows)
}

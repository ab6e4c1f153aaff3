package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klokku/meetstats/internal/config"
	"github.com/klokku/meetstats/pkg/aggregate"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleIcs = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//test//EN\r\n" +
	"BEGIN:VEVENT\r\nUID:1\r\nSUMMARY:Plan: Q1\r\nDTSTART:20240304T100000Z\r\nDTEND:20240304T104500Z\r\n" +
	"ORGANIZER:mailto:me@example.com\r\nATTENDEE:mailto:dev@example.com\r\nCATEGORIES:Red\r\nEND:VEVENT\r\n" +
	"BEGIN:VEVENT\r\nUID:2\r\nSUMMARY:Plan: Q1\r\nDTSTART:20240305T100000Z\r\nDTEND:20240305T104500Z\r\n" +
	"ORGANIZER:mailto:me@example.com\r\nATTENDEE:mailto:dev@example.com\r\nCATEGORIES:Red\r\nEND:VEVENT\r\n" +
	"BEGIN:VEVENT\r\nUID:3\r\nSUMMARY:Lunch\r\nSTATUS:CANCELLED\r\nDTSTART:20240306T120000Z\r\nDTEND:20240306T130000Z\r\nEND:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

// setupWorkspace writes an ics calendar and a config file pointing at it.
func setupWorkspace(t *testing.T) (configPath string, outDir string) {
	t.Helper()
	dir := t.TempDir()
	icsPath := filepath.Join(dir, "calendar.ics")
	require.NoError(t, os.WriteFile(icsPath, []byte(sampleIcs), 0o600))
	outDir = filepath.Join(dir, "reports")
	configPath = filepath.Join(dir, "application.yaml")
	yaml := fmt.Sprintf("source:\n  type: ics\n  timezone: UTC\n  ics:\n    path: %s\nreport:\n  outputdir: %s\n  format: csv\n", icsPath, outDir)
	require.NoError(t, os.WriteFile(configPath, []byte(yaml), 0o600))
	return configPath, outDir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestExportCommand(t *testing.T) {
	// given
	configPath, outDir := setupWorkspace(t)

	// when
	out, err := execute(t, "export", "--config", configPath, "--from", "2024-03-01", "--to", "2024-03-31")

	// then
	require.NoError(t, err)
	assert.Contains(t, out, "Export complete. File saved to ")
	files, err := filepath.Glob(filepath.Join(outDir, "outlook_meetings_*.csv"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	body, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), "2024/03,Plan,Plan: Q1,2,90,1.5,0.19,Red")
	assert.NotContains(t, string(body), "Lunch")
}

func TestExportCommand_OverridesFormatAndOutput(t *testing.T) {
	configPath, _ := setupWorkspace(t)
	outDir := filepath.Join(t.TempDir(), "elsewhere")

	_, err := execute(t, "export", "--config", configPath, "--from", "2024-03-01", "--to", "2024-03-31",
		"--format", "xlsx", "--out", outDir)

	require.NoError(t, err)
	files, err := filepath.Glob(filepath.Join(outDir, "outlook_meetings_*.xlsx"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestExportCommand_InvalidInput(t *testing.T) {
	configPath, _ := setupWorkspace(t)
	tests := []struct {
		name string
		args []string
	}{
		{name: "bad status", args: []string{"--status", "Tentative"}},
		{name: "bad format", args: []string{"--format", "pdf"}},
		{name: "reversed range", args: []string{"--from", "2024-03-31", "--to", "2024-03-01"}},
		{name: "unknown source", args: []string{"--source", "outlook"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"export", "--config", configPath}, tt.args...)
			_, err := execute(t, args...)
			assert.Error(t, err)
		})
	}
}

func TestReportCommand_Json(t *testing.T) {
	// given
	configPath, outDir := setupWorkspace(t)

	// when
	out, err := execute(t, "report", "--config", configPath, "--from", "2024-03-01", "--to", "2024-03-31",
		"--status", "Cancelled,Meeting", "--json")

	// then
	require.NoError(t, err)
	var rows []aggregate.Row
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "Plan: Q1", rows[0].Subject)
	assert.Equal(t, "Lunch", rows[1].Subject)
	assert.Equal(t, "None", rows[1].Categories)
	assert.NoDirExists(t, outDir)
}

func TestReportCommand_Table(t *testing.T) {
	configPath, _ := setupWorkspace(t)

	out, err := execute(t, "report", "--config", configPath, "--from", "2024-03-01", "--to", "2024-03-31", "--unit", "hours")

	require.NoError(t, err)
	assert.Contains(t, out, "Total Duration (hours)")
	assert.NotContains(t, out, "Total Duration (minutes)")
	assert.Contains(t, out, "1.5")
	assert.Contains(t, out, "2 of 3 events matched")
}

func TestReportCommand_ExcludeCategories(t *testing.T) {
	configPath, _ := setupWorkspace(t)

	out, err := execute(t, "report", "--config", configPath, "--from", "2024-03-01", "--to", "2024-03-31",
		"--status", "0,1,2,3", "--categories", "Red", "--exclude", "--json")

	require.NoError(t, err)
	var rows []aggregate.Row
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Lunch", rows[0].Subject)
}

func TestFilterOptions_Apply(t *testing.T) {
	// given
	opts := &filterOptions{}
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	opts.register(flags)
	require.NoError(t, flags.Parse([]string{"--status", "meeting,3", "--categories", "Red"}))
	cfg := config.Filter{Statuses: []int{0}, Exclude: true}

	// when
	err := opts.apply(flags, &cfg)

	// then
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, cfg.Statuses)
	assert.Equal(t, "Red", cfg.Categories)
	assert.True(t, cfg.Exclude)
}

func TestFilterOptions_Dates(t *testing.T) {
	now := time.Date(2024, time.March, 17, 9, 0, 0, 0, time.UTC)

	from, to := (&filterOptions{}).dates(now)
	assert.Equal(t, "2024-03-01", from)
	assert.Equal(t, "2024-03-17", to)

	from, to = (&filterOptions{from: "2024-01-01", to: "2024-01-31"}).dates(now)
	assert.Equal(t, "2024-01-01", from)
	assert.Equal(t, "2024-01-31", to)
}

func TestRootCommand_HasCommands(t *testing.T) {
	names := make([]string, 0)
	for _, c := range NewRootCommand().Commands() {
		names = append(names, c.Name())
	}
	joined := strings.Join(names, ",")
	for _, expected := range []string{"export", "report", "serve", "import", "import-ics", "calendars", "login", "logout"} {
		assert.Contains(t, joined, expected)
	}
}

package event_bus

import "github.com/google/uuid"

// Events published by export jobs.
const (
	// ExportProgressed carries an ExportProgress whenever a job's scan moves on.
	ExportProgressed EventType = "export.progressed"
	// ExportFinished carries an ExportResult once, for success and failure alike.
	ExportFinished EventType = "export.finished"
)

type ExportProgress struct {
	JobId uuid.UUID
	// Percent is the share of processed events, 0..100.
	Percent int
}

type ExportResult struct {
	JobId uuid.UUID
	// Path is empty when the export failed.
	Path    string
	Rows    int
	Skipped int
	Err     error
}

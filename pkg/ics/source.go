package ics

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/klokku/meetstats/pkg/calendar"
	log "github.com/sirupsen/logrus"
)

// FileSource serves events from an exported .ics file. Recurring events are
// expanded into their occurrences within the requested window.
type FileSource struct {
	path string
	loc  *time.Location
}

func NewFileSource(path string, loc *time.Location) *FileSource {
	return &FileSource{path: path, loc: loc}
}

func (s *FileSource) GetEvents(ctx context.Context, from time.Time, to time.Time) ([]calendar.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		err := fmt.Errorf("unable to open calendar file: %w", err)
		log.Error(err)
		return nil, err
	}
	defer f.Close()

	cal, err := Parse(f, s.loc)
	if err != nil {
		log.Errorf("unable to read calendar file %s: %v", s.path, err)
		return nil, err
	}
	return cal.Events(from, to), nil
}

// Package aggregate folds calendar events into per-month, per-subject totals.
package aggregate

import (
	"errors"
	"fmt"

	"github.com/klokku/meetstats/pkg/calendar"
	log "github.com/sirupsen/logrus"
)

const monthLayout = "2006/01"

var errMissingStart = errors.New("event has no start time")

// Key identifies a bucket. Both parts are compared verbatim.
type Key struct {
	Month   string
	Subject string
}

type bucket struct {
	count           int
	totalMinutes    int
	categories      string
	subjectCategory string
}

// Diagnostic describes an event that was skipped because it could not be processed.
type Diagnostic struct {
	Index   int
	Subject string
	Err     error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("item %d (%q): %v", d.Index, d.Subject, d.Err)
}

// Result is the outcome of one Aggregate call.
type Result struct {
	Rows        []Row
	Diagnostics []Diagnostic
	Processed   int
	Matched     int
}

// Aggregate scans events once, in order, and returns one Row per (month, subject)
// that kept at least one event. progress may be nil. It is called after every
// event, matched or not, and never when events is empty.
func Aggregate(events []calendar.Event, filter Filter, progress Progress) Result {
	if progress == nil {
		progress = noProgress{}
	}
	if len(filter.AllowedStatuses) == 0 {
		log.Debug("no meeting status allowed, the report will be empty")
	}

	buckets := make(map[Key]*bucket)
	order := make([]Key, 0)
	result := Result{Diagnostics: make([]Diagnostic, 0)}

	total := len(events)
	for i, event := range events {
		matched, err := fold(buckets, &order, event, filter)
		if err != nil {
			log.WithFields(log.Fields{"index": i, "subject": event.Subject}).Warnf("skipping calendar item: %v", err)
			result.Diagnostics = append(result.Diagnostics, Diagnostic{Index: i, Subject: event.Subject, Err: err})
		} else if matched {
			result.Matched++
		}
		result.Processed++
		progress.Report(result.Processed * 100 / total)
	}

	result.Rows = make([]Row, 0, len(order))
	for _, key := range order {
		result.Rows = append(result.Rows, newRow(key, buckets[key]))
	}
	log.Debugf("aggregated %d of %d events into %d rows, %d skipped on error",
		result.Matched, result.Processed, len(result.Rows), len(result.Diagnostics))
	return result
}

func fold(buckets map[Key]*bucket, order *[]Key, event calendar.Event, filter Filter) (matched bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			matched = false
			err = fmt.Errorf("%w: %v", calendar.ErrItemAccess, r)
		}
	}()

	if event.Err != nil {
		return false, event.Err
	}
	if !filter.allowsStatus(event.Status) {
		return false, nil
	}
	categories := normalizeCategories(event.Categories)
	if !filter.allowsCategories(categories) {
		return false, nil
	}
	if event.Start.IsZero() {
		return false, errMissingStart
	}
	if event.DurationMinutes < 0 {
		return false, fmt.Errorf("negative duration %d", event.DurationMinutes)
	}

	key := Key{Month: event.Start.Format(monthLayout), Subject: event.Subject}
	b, ok := buckets[key]
	if !ok {
		b = &bucket{}
		buckets[key] = b
		*order = append(*order, key)
	}
	b.count++
	b.totalMinutes += event.DurationMinutes
	b.categories = categories
	b.subjectCategory = SubjectCategory(event.Subject)
	return true, nil
}

// Package ics reads calendar events from iCalendar files.
package ics

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/klokku/meetstats/pkg/calendar"
	"github.com/sosodev/duration"
	log "github.com/sirupsen/logrus"
)

var ErrEmptyCalendar = errors.New("empty ICS body")

// Calendar is a parsed ICS payload. Recurring VEVENTs are kept as series and
// only turn into events once a window is known.
type Calendar struct {
	events []calendar.Event
	series []series
}

// Events returns the single events plus the series occurrences starting in
// [from, to), ordered by start. Unreadable VEVENTs are always included.
func (c *Calendar) Events(from time.Time, to time.Time) []calendar.Event {
	window := calendar.NewMemoryCalendar()
	window.AddEvents(c.events...)
	for _, s := range c.series {
		window.AddEvents(s.occurrences(from, to)...)
	}
	events, _ := window.GetEvents(context.Background(), from, to)
	return events
}

// Parse reads every VEVENT of an ICS payload. A VEVENT that cannot be read
// becomes an unreadable calendar.Event so the scan can report it and go on.
// Start times are moved into loc when it is not nil.
func Parse(r io.Reader, loc *time.Location) (*Calendar, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyCalendar
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ICS: %w", err)
	}

	invitation := false
	for _, p := range cal.CalendarProperties {
		if p.IANAToken == string(ical.PropertyMethod) && strings.EqualFold(p.Value, "REQUEST") {
			invitation = true
		}
	}

	vevents := cal.Events()
	result := &Calendar{events: make([]calendar.Event, 0, len(vevents))}
	overrides := make(map[string][]time.Time)
	for _, ve := range vevents {
		if p := ve.GetProperty(ical.ComponentPropertyRecurrenceId); p != nil {
			if rid, err := recurrenceID(p); err == nil {
				overrides[ve.Id()] = append(overrides[ve.Id()], rid)
			} else {
				log.Warnf("ics vevent %s has an unreadable RECURRENCE-ID: %v", ve.Id(), err)
			}
		}
	}
	for i, ve := range vevents {
		event, err := parseVEvent(ve, invitation, loc)
		if err != nil {
			log.Warnf("ics vevent %d could not be read: %v", i, err)
			result.events = append(result.events, event.WithError(err))
			continue
		}
		if ve.GetProperty(ical.ComponentPropertyRrule) == nil || ve.GetProperty(ical.ComponentPropertyRecurrenceId) != nil {
			result.events = append(result.events, event)
			continue
		}
		s, err := newSeries(ve, event, overrides[ve.Id()], loc)
		if err != nil {
			log.Warnf("ics vevent %d has an unreadable recurrence: %v", i, err)
			result.events = append(result.events, event.WithError(err))
			continue
		}
		result.series = append(result.series, s)
	}
	log.Debugf("ics parse completed, %d events, %d series", len(result.events), len(result.series))
	return result, nil
}

func parseVEvent(ve *ical.VEvent, invitation bool, loc *time.Location) (calendar.Event, error) {
	var event calendar.Event

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		event.Subject = p.Value
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return event, fmt.Errorf("DTSTART: %w", err)
	}
	if loc != nil {
		start = start.In(loc)
	}
	event.Start = start

	minutes, err := durationMinutes(ve, start)
	if err != nil {
		return event, err
	}
	event.DurationMinutes = minutes
	event.Status = status(ve, invitation)
	event.Categories = categories(ve)
	return event, nil
}

func durationMinutes(ve *ical.VEvent, start time.Time) (int, error) {
	if ve.GetProperty(ical.ComponentPropertyDtEnd) != nil {
		end, err := ve.GetEndAt()
		if err != nil {
			return 0, fmt.Errorf("DTEND: %w", err)
		}
		return minutesBetween(start, end)
	}
	if p := ve.GetProperty(ical.ComponentPropertyDuration); p != nil {
		d, err := duration.Parse(strings.TrimPrefix(strings.TrimSpace(p.Value), "+"))
		if err != nil {
			return 0, fmt.Errorf("DURATION %q: %w", p.Value, err)
		}
		return minutesBetween(start, start.Add(d.ToTimeDuration()))
	}
	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil && !strings.Contains(p.Value, "T") {
		// all-day event without end lasts one day
		return 24 * 60, nil
	}
	return 0, nil
}

func minutesBetween(start, end time.Time) (int, error) {
	if end.Before(start) {
		return 0, fmt.Errorf("event ends before it starts (%s < %s)", end, start)
	}
	return int(end.Sub(start).Minutes()), nil
}

func status(ve *ical.VEvent, invitation bool) calendar.MeetingStatus {
	if p := ve.GetProperty(ical.ComponentPropertyStatus); p != nil && strings.EqualFold(p.Value, "CANCELLED") {
		return calendar.StatusCancelled
	}
	if invitation {
		return calendar.StatusRequest
	}
	if len(ve.GetProperties(ical.ComponentPropertyAttendee)) > 0 || ve.GetProperty(ical.ComponentPropertyOrganizer) != nil {
		return calendar.StatusMeeting
	}
	return calendar.StatusNormal
}

func categories(ve *ical.VEvent) string {
	labels := make([]string, 0)
	for _, p := range ve.GetProperties(ical.ComponentPropertyCategories) {
		for _, label := range strings.Split(p.Value, ",") {
			label = strings.TrimSpace(strings.ReplaceAll(label, `\`, ""))
			if label != "" {
				labels = append(labels, label)
			}
		}
	}
	return strings.Join(labels, ", ")
}

package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/klokku/meetstats/pkg/calendar"
	log "github.com/sirupsen/logrus"
	"github.com/teambition/rrule-go"
)

const maxOccurrencesPerSeries = 5000

// series is a recurring VEVENT. The rule is evaluated in the zone of DTSTART
// so occurrences keep their wall clock time across DST changes.
type series struct {
	master calendar.Event
	rule   *rrule.Set
	loc    *time.Location
}

func newSeries(ve *ical.VEvent, master calendar.Event, overridden []time.Time, loc *time.Location) (series, error) {
	start, err := ve.GetStartAt()
	if err != nil {
		return series{}, fmt.Errorf("DTSTART: %w", err)
	}
	opt, err := rrule.StrToROptionInLocation(ve.GetProperty(ical.ComponentPropertyRrule).Value, start.Location())
	if err != nil {
		return series{}, fmt.Errorf("RRULE: %w", err)
	}
	opt.Dtstart = start
	rule, err := rrule.NewRRule(*opt)
	if err != nil {
		return series{}, fmt.Errorf("RRULE: %w", err)
	}

	set := &rrule.Set{}
	set.RRule(rule)
	for _, p := range ve.GetProperties(ical.ComponentPropertyRdate) {
		dates, err := rrule.StrToDatesInLoc(datesValue(p), start.Location())
		if err != nil {
			return series{}, fmt.Errorf("RDATE: %w", err)
		}
		for _, d := range dates {
			set.RDate(d)
		}
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		dates, err := rrule.StrToDatesInLoc(datesValue(p), start.Location())
		if err != nil {
			return series{}, fmt.Errorf("EXDATE: %w", err)
		}
		for _, d := range dates {
			set.ExDate(d)
		}
	}
	// moved or cancelled occurrences are listed as VEVENTs of their own
	for _, rid := range overridden {
		set.ExDate(rid)
	}
	return series{master: master, rule: set, loc: loc}, nil
}

// occurrences expands the series into events starting in [from, to).
func (s series) occurrences(from time.Time, to time.Time) []calendar.Event {
	starts := s.rule.Between(from, to, true)
	events := make([]calendar.Event, 0, len(starts))
	for _, start := range starts {
		if !start.Before(to) {
			continue
		}
		if len(events) == maxOccurrencesPerSeries {
			log.Warnf("recurring event %q has more than %d occurrences in the window, the rest is ignored", s.master.Subject, maxOccurrencesPerSeries)
			break
		}
		if s.loc != nil {
			start = start.In(s.loc)
		}
		event := s.master
		event.Start = start
		events = append(events, event)
	}
	return events
}

func recurrenceID(p *ical.IANAProperty) (time.Time, error) {
	dates, err := rrule.StrToDatesInLoc(datesValue(p), time.Local)
	if err != nil {
		return time.Time{}, err
	}
	if len(dates) == 0 {
		return time.Time{}, fmt.Errorf("no date in %q", p.Value)
	}
	return dates[0], nil
}

// datesValue renders a date list property in the form rrule-go reads.
func datesValue(p *ical.IANAProperty) string {
	params := make([]string, 0, 1)
	if tzid, ok := p.ICalParameters["TZID"]; ok && len(tzid) == 1 {
		params = append(params, "TZID="+tzid[0])
	}
	if len(params) == 0 {
		return p.Value
	}
	return strings.Join(params, ";") + ":" + p.Value
}

package calendar_provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/klokku/meetstats/internal/config"
	"github.com/klokku/meetstats/pkg/calendar"
	"github.com/klokku/meetstats/pkg/google"
	"github.com/klokku/meetstats/pkg/ics"
	log "github.com/sirupsen/logrus"
)

const (
	SourceIcs      = "ics"
	SourceGoogle   = "google"
	SourcePostgres = "postgres"
	SourceStub     = "stub"
)

var (
	ErrUnknownSource     = errors.New("unknown calendar source")
	ErrSourceUnavailable = errors.New("calendar source is not configured")
)

// CalendarProvider resolves the configured calendar source on every call, so a
// changed token or file is picked up without restarting.
type CalendarProvider struct {
	cfg           config.Source
	googleService google.Service
	store         calendar.Source
	stub          *calendar.MemoryCalendar
}

// NewCalendarProvider takes the optional backends; nil ones make their source type unavailable.
func NewCalendarProvider(cfg config.Source, googleService google.Service, store calendar.Source, stub *calendar.MemoryCalendar) *CalendarProvider {
	return &CalendarProvider{
		cfg:           cfg,
		googleService: googleService,
		store:         store,
		stub:          stub,
	}
}

// WithType returns a provider reading from another source type.
func (c *CalendarProvider) WithType(sourceType string) *CalendarProvider {
	if sourceType == "" {
		return c
	}
	copied := *c
	copied.cfg.Type = sourceType
	return &copied
}

func (c *CalendarProvider) Type() string {
	return c.cfg.Type
}

// Location is the time zone used for floating times and month keys.
func (c *CalendarProvider) Location() (*time.Location, error) {
	if c.cfg.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", c.cfg.Timezone, err)
	}
	return loc, nil
}

func (c *CalendarProvider) getCalendar(ctx context.Context) (calendar.Source, error) {
	switch c.cfg.Type {
	case SourceIcs:
		if c.cfg.Ics.Path == "" {
			return nil, fmt.Errorf("%w: ics path is empty", ErrSourceUnavailable)
		}
		loc, err := c.Location()
		if err != nil {
			return nil, err
		}
		return ics.NewFileSource(c.cfg.Ics.Path, loc), nil
	case SourceGoogle:
		if c.googleService == nil {
			return nil, fmt.Errorf("%w: google", ErrSourceUnavailable)
		}
		loc, err := c.Location()
		if err != nil {
			return nil, err
		}
		calendarId := c.cfg.Google.CalendarId
		if calendarId == "" {
			calendarId = "primary"
		}
		googleCalendar, err := c.googleService.GetCalendar(ctx, calendarId, loc)
		if err != nil {
			return nil, err
		}
		return googleCalendar, nil
	case SourcePostgres:
		if c.store == nil {
			return nil, fmt.Errorf("%w: postgres", ErrSourceUnavailable)
		}
		return c.store, nil
	case SourceStub:
		if c.stub == nil {
			return nil, fmt.Errorf("%w: stub", ErrSourceUnavailable)
		}
		return c.stub, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSource, c.cfg.Type)
}

func (c *CalendarProvider) GetEvents(ctx context.Context, from time.Time, to time.Time) ([]calendar.Event, error) {
	cal, err := c.getCalendar(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get calendar when getting events: %w", err)
	}
	log.Debugf("Reading %s events from %s to %s", c.cfg.Type, from.Format(time.DateOnly), to.Format(time.DateOnly))
	return cal.GetEvents(ctx, from, to)
}

package google

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/klokku/meetstats/pkg/calendar"
	log "github.com/sirupsen/logrus"
	gcal "google.golang.org/api/calendar/v3"
)

var ErrUnauthenticated = errors.New("no Google token stored, run the login command first")

// categoriesProperty is the private extended property holding explicit categories.
const categoriesProperty = "categories"

// colorNames maps Google event color ids to their names, used as categories.
var colorNames = map[string]string{
	"1":  "Lavender",
	"2":  "Sage",
	"3":  "Grape",
	"4":  "Flamingo",
	"5":  "Banana",
	"6":  "Tangerine",
	"7":  "Peacock",
	"8":  "Graphite",
	"9":  "Blueberry",
	"10": "Basil",
	"11": "Tomato",
}

type Calendar struct {
	service    *gcal.Service
	calendarId string
	loc        *time.Location
}

func newGoogleCalendar(service *gcal.Service, calendarId string, loc *time.Location) *Calendar {
	return &Calendar{
		service:    service,
		calendarId: calendarId,
		loc:        loc,
	}
}

// GetEvents lists single occurrences, so recurring series arrive expanded.
// Cancelled occurrences are included and reported with StatusCancelled.
func (c *Calendar) GetEvents(ctx context.Context, from time.Time, to time.Time) ([]calendar.Event, error) {
	var items []*gcal.Event
	err := c.service.Events.List(c.calendarId).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		ShowDeleted(true).
		OrderBy("startTime").
		Pages(ctx, func(page *gcal.Events) error {
			items = append(items, page.Items...)
			return nil
		})
	if err != nil {
		err := fmt.Errorf("unable to retrieve events from Google Calendar: %w", err)
		log.Error(err)
		return nil, err
	}

	return c.googleEventsToEvents(items), nil
}

func (c *Calendar) googleEventsToEvents(googleEvents []*gcal.Event) []calendar.Event {
	events := make([]calendar.Event, 0, len(googleEvents))
	for _, item := range googleEvents {
		event := calendar.Event{
			Subject:    item.Summary,
			Status:     meetingStatus(item),
			Categories: eventCategories(item),
		}
		start, err := c.eventTime(item.Start)
		if err != nil {
			events = append(events, event.WithError(fmt.Errorf("start: %w", err)))
			continue
		}
		end, err := c.eventTime(item.End)
		if err != nil {
			events = append(events, event.WithError(fmt.Errorf("end: %w", err)))
			continue
		}
		event.Start = start
		event.DurationMinutes = int(end.Sub(start).Minutes())
		events = append(events, event)
	}
	return events
}

func (c *Calendar) eventTime(t *gcal.EventDateTime) (time.Time, error) {
	if t == nil {
		return time.Time{}, errors.New("missing time")
	}
	loc := c.loc
	if t.TimeZone != "" {
		if l, err := time.LoadLocation(t.TimeZone); err == nil {
			loc = l
		}
	}
	if loc == nil {
		loc = time.Local
	}
	if t.DateTime != "" {
		parsed, err := time.Parse(time.RFC3339, t.DateTime)
		if err != nil {
			return time.Time{}, err
		}
		return parsed.In(loc), nil
	}
	if t.Date != "" {
		return time.ParseInLocation(time.DateOnly, t.Date, loc)
	}
	return time.Time{}, errors.New("missing time")
}

func meetingStatus(item *gcal.Event) calendar.MeetingStatus {
	if item.Status == "cancelled" {
		return calendar.StatusCancelled
	}
	if len(item.Attendees) == 0 {
		return calendar.StatusNormal
	}
	for _, a := range item.Attendees {
		if a.Self && !a.Organizer && a.ResponseStatus == "needsAction" {
			return calendar.StatusRequest
		}
	}
	return calendar.StatusMeeting
}

func eventCategories(item *gcal.Event) string {
	if item.ExtendedProperties != nil {
		if categories := strings.TrimSpace(item.ExtendedProperties.Private[categoriesProperty]); categories != "" {
			return categories
		}
	}
	return colorNames[item.ColorId]
}

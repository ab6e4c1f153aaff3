package calendar

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
)

// MemoryCalendar is an in-memory Source. It backs the "stub" source type,
// windows parsed files and serves tests.
type MemoryCalendar struct {
	data []Event
	err  error
}

func NewMemoryCalendar() *MemoryCalendar {
	return &MemoryCalendar{data: make([]Event, 0)}
}

func (c *MemoryCalendar) AddEvent(event Event) Event {
	if !event.UID.Valid {
		event.UID = uuid.NullUUID{UUID: uuid.New(), Valid: true}
	}
	c.data = append(c.data, event)
	return event
}

func (c *MemoryCalendar) AddEvents(events ...Event) {
	for _, e := range events {
		c.AddEvent(e)
	}
}

// FailWith makes every following GetEvents call return err.
func (c *MemoryCalendar) FailWith(err error) {
	c.err = err
}

// GetEvents returns the events starting in [from, to) by start time, ties in
// insertion order. Unreadable items have no start and are always listed.
func (c *MemoryCalendar) GetEvents(_ context.Context, from time.Time, to time.Time) ([]Event, error) {
	if c.err != nil {
		return nil, c.err
	}
	events := make([]Event, 0, len(c.data))
	for _, event := range c.data {
		if event.Err != nil || (!event.Start.Before(from) && event.Start.Before(to)) {
			events = append(events, event)
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})

	return events, nil
}

func (c *MemoryCalendar) Cleanup() {
	c.data = make([]Event, 0)
	c.err = nil
}

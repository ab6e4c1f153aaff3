package calendar

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type stubRepository struct {
	events    []Event
	storeErr  error
	deleteErr error
}

func (r *stubRepository) StoreEvents(_ context.Context, events []Event) (int, error) {
	if r.storeErr != nil {
		return 0, r.storeErr
	}
	stored := 0
	for _, e := range events {
		if e.Err != nil {
			continue
		}
		if !e.UID.Valid {
			e.UID = uuid.NullUUID{UUID: uuid.New(), Valid: true}
		}
		r.events = append(r.events, e)
		stored++
	}
	return stored, nil
}

func (r *stubRepository) GetEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	cal := NewMemoryCalendar()
	cal.AddEvents(r.events...)
	return cal.GetEvents(ctx, from, to)
}

func (r *stubRepository) DeleteAll(_ context.Context) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.events = nil
	return nil
}

package calendar

import (
	"context"
	"time"
)

// Source delivers the occurrences that start in [from, to), recurrences expanded
// and sorted by start time. An error means the source itself failed.
type Source interface {
	GetEvents(ctx context.Context, from time.Time, to time.Time) ([]Event, error)
}

// SourceFunc adapts a plain function to Source.
type SourceFunc func(ctx context.Context, from time.Time, to time.Time) ([]Event, error)

func (f SourceFunc) GetEvents(ctx context.Context, from time.Time, to time.Time) ([]Event, error) {
	return f(ctx, from, to)
}

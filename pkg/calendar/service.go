package calendar

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

type ImportResult struct {
	Fetched int `json:"fetched"`
	Stored  int `json:"stored"`
	Skipped int `json:"skipped"`
}

// Service imports events from any Source into the repository and serves them back.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
	}
}

// Import copies the events of src starting in [from, to) into the repository.
// With replace set, previously stored events are removed first.
func (s *Service) Import(ctx context.Context, src Source, from, to time.Time, replace bool) (ImportResult, error) {
	events, err := src.GetEvents(ctx, from, to)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to read events: %w", err)
	}
	if replace {
		if err := s.repo.DeleteAll(ctx); err != nil {
			return ImportResult{}, fmt.Errorf("failed to clear stored events: %w", err)
		}
	}
	stored, err := s.repo.StoreEvents(ctx, events)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to store events: %w", err)
	}
	result := ImportResult{
		Fetched: len(events),
		Stored:  stored,
		Skipped: len(events) - stored,
	}
	log.Infof("Imported %d of %d events (%d unreadable)", result.Stored, result.Fetched, result.Skipped)
	return result, nil
}

func (s *Service) GetEvents(ctx context.Context, from time.Time, to time.Time) ([]Event, error) {
	events, err := s.repo.GetEvents(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	return events, nil
}

func (s *Service) Clear(ctx context.Context) error {
	return s.repo.DeleteAll(ctx)
}

package google

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

type CalendarItem struct {
	ID      string
	Summary string
}

type Service interface {
	GetCalendar(ctx context.Context, calendarId string, loc *time.Location) (*Calendar, error)
	ListCalendars(ctx context.Context) ([]CalendarItem, error)
}

type ServiceImpl struct {
	auth *GoogleAuth
	opts []option.ClientOption
}

// NewService builds the calendar client from the stored token. Extra options are
// appended after the authenticated HTTP client.
func NewService(auth *GoogleAuth, opts ...option.ClientOption) *ServiceImpl {
	return &ServiceImpl{auth: auth, opts: opts}
}

func (s *ServiceImpl) GetCalendar(ctx context.Context, calendarId string, loc *time.Location) (*Calendar, error) {
	service, err := s.prepareGoogleService(ctx)
	if err != nil {
		return nil, err
	}
	return newGoogleCalendar(service, calendarId, loc), nil
}

func (s *ServiceImpl) ListCalendars(ctx context.Context) ([]CalendarItem, error) {
	googleService, err := s.prepareGoogleService(ctx)
	if err != nil {
		return nil, err
	}
	calendars, err := googleService.CalendarList.List().Context(ctx).Do()
	if err != nil {
		err := fmt.Errorf("unable to retrieve calendars from Google Calendar: %w", err)
		log.Error(err)
		return nil, err
	}
	var googleCalendars []CalendarItem
	for _, cal := range calendars.Items {
		googleCalendars = append(googleCalendars, CalendarItem{
			ID:      cal.Id,
			Summary: cal.Summary,
		})
	}
	return googleCalendars, nil
}

func (s *ServiceImpl) prepareGoogleService(ctx context.Context) (*calendar.Service, error) {
	client, err := s.auth.getClient(ctx)
	if err != nil {
		err := fmt.Errorf("unable to retrieve Google auth client: %w", err)
		log.Error(err)
		return nil, err
	}
	if client == nil {
		log.Debug("no Google token stored, login is required")
		return nil, ErrUnauthenticated
	}
	opts := append([]option.ClientOption{option.WithHTTPClient(client)}, s.opts...)
	service, err := calendar.NewService(ctx, opts...)
	if err != nil {
		err := fmt.Errorf("unable to retrieve Calendar client: %w", err)
		log.Error(err)
		return nil, err
	}

	return service, nil
}

package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrItemAccess marks an item whose fields could not be read from the source.
var ErrItemAccess = errors.New("calendar item could not be read")

// MeetingStatus follows the ordinals used by desktop calendar clients.
type MeetingStatus int

const (
	StatusNormal    MeetingStatus = 0
	StatusMeeting   MeetingStatus = 1
	StatusCancelled MeetingStatus = 2
	StatusRequest   MeetingStatus = 3
)

// DefaultStatuses are the statuses kept when nothing else is configured.
var DefaultStatuses = []MeetingStatus{StatusNormal, StatusMeeting, StatusRequest}

func (s MeetingStatus) String() string {
	switch s {
	case StatusNormal:
		return "Normal"
	case StatusMeeting:
		return "Meeting"
	case StatusCancelled:
		return "Cancelled"
	case StatusRequest:
		return "Request"
	}
	return "MeetingStatus(" + strconv.Itoa(int(s)) + ")"
}

func (s MeetingStatus) Valid() bool {
	return s >= StatusNormal && s <= StatusRequest
}

// ParseStatus accepts either the ordinal ("1") or the name ("meeting").
func ParseStatus(value string) (MeetingStatus, error) {
	value = strings.TrimSpace(value)
	if n, err := strconv.Atoi(value); err == nil {
		status := MeetingStatus(n)
		if !status.Valid() {
			return 0, fmt.Errorf("unknown meeting status %d", n)
		}
		return status, nil
	}
	for s := StatusNormal; s <= StatusRequest; s++ {
		if strings.EqualFold(s.String(), value) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown meeting status %q", value)
}

// Event is a single, already expanded occurrence of a calendar item.
// Start keeps the event's own location; month keys are derived from it.
type Event struct {
	UID             uuid.NullUUID
	Start           time.Time
	Subject         string
	DurationMinutes int
	Status          MeetingStatus
	// Categories is the comma-joined label list, empty when the item has none.
	Categories string
	// Err is set by sources for items that were listed but could not be read.
	Err error
}

func (e Event) End() time.Time {
	return e.Start.Add(time.Duration(e.DurationMinutes) * time.Minute)
}

// UnreadableEvent builds the placeholder a source yields for an item it failed to read.
func UnreadableEvent(cause error) Event {
	return Event{}.WithError(cause)
}

// WithError keeps whatever was read so far and marks the item unreadable.
func (e Event) WithError(cause error) Event {
	e.Err = fmt.Errorf("%w: %w", ErrItemAccess, cause)
	return e
}

package calendar

import (
	"net/http"
	"time"

	"github.com/klokku/meetstats/internal/rest"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	calendar *Service
}

type EventDTO struct {
	UID             string    `json:"uid"`
	Subject         string    `json:"subject"`
	Start           time.Time `json:"start"`
	DurationMinutes int       `json:"durationMinutes"`
	Status          string    `json:"status"`
	Categories      string    `json:"categories"`
}

func NewHandler(s *Service) *Handler {
	return &Handler{s}
}

func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid from (date) format", "'from' must be in RFC3339 format")
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid to (date) format", "'to' must be in RFC3339 format")
		return
	}

	events, err := h.calendar.GetEvents(r.Context(), from, to)
	if err != nil {
		rest.WriteError(w, http.StatusInternalServerError, "Failed to get events", err.Error())
		return
	}

	dtos := make([]EventDTO, 0, len(events))
	for _, e := range events {
		dtos = append(dtos, eventToDTO(e))
	}
	log.Tracef("Events returned: %d", len(dtos))
	rest.WriteJSON(w, http.StatusOK, dtos)
}

func (h *Handler) DeleteEvents(w http.ResponseWriter, r *http.Request) {
	if err := h.calendar.Clear(r.Context()); err != nil {
		rest.WriteError(w, http.StatusInternalServerError, "Failed to delete events", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func eventToDTO(e Event) EventDTO {
	uid := ""
	if e.UID.Valid {
		uid = e.UID.UUID.String()
	}
	return EventDTO{
		UID:             uid,
		Subject:         e.Subject,
		Start:           e.Start,
		DurationMinutes: e.DurationMinutes,
		Status:          e.Status.String(),
		Categories:      e.Categories,
	}
}

package export

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/klokku/meetstats/internal/config"
	"github.com/klokku/meetstats/internal/rest"
	"github.com/klokku/meetstats/pkg/aggregate"
	"github.com/klokku/meetstats/pkg/calendar"
	"github.com/klokku/meetstats/pkg/report"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	service *Service
	filter  config.Filter
	loc     *time.Location
}

type RequestDTO struct {
	From       string `json:"from"`
	To         string `json:"to"`
	Statuses   []int  `json:"statuses"`
	Categories string `json:"categories"`
	Exclude    bool   `json:"exclude"`
	Format     string `json:"format"`
}

type StartedDTO struct {
	Id uuid.UUID `json:"id"`
}

type ReportDTO struct {
	Rows        []aggregate.Row `json:"rows"`
	Processed   int             `json:"processed"`
	Matched     int             `json:"matched"`
	Diagnostics []string        `json:"diagnostics"`
}

// NewHandler uses filter for requests that do not name statuses, and loc for their dates.
func NewHandler(service *Service, filter config.Filter, loc *time.Location) *Handler {
	return &Handler{service: service, filter: filter, loc: loc}
}

func (h *Handler) StartExport(w http.ResponseWriter, r *http.Request) {
	var dto RequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	req, err := h.toRequest(dto)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid export request", err.Error())
		return
	}

	id, err := h.service.Start(r.Context(), req)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Unable to start export", err.Error())
		return
	}
	log.Debugf("Export %s started", id)
	rest.WriteJSON(w, http.StatusAccepted, StartedDTO{Id: id})
}

func (h *Handler) GetExport(w http.ResponseWriter, r *http.Request) {
	job, ok := h.findJob(w, r)
	if !ok {
		return
	}
	rest.WriteJSON(w, http.StatusOK, job)
}

func (h *Handler) DownloadExport(w http.ResponseWriter, r *http.Request) {
	job, ok := h.findJob(w, r)
	if !ok {
		return
	}
	if job.Status != JobDone {
		rest.WriteError(w, http.StatusConflict, "Export is not finished", string(job.Status))
		return
	}
	format, err := report.ParseFormat(strings.TrimPrefix(filepath.Ext(job.Path), "."))
	if err == nil {
		if renderer, err := report.RendererFor(format); err == nil {
			w.Header().Set("Content-Type", renderer.ContentType())
		}
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(job.Path)+`"`)
	http.ServeFile(w, r, job.Path)
}

// GetReport aggregates synchronously and returns the rows, as JSON by default or as CSV.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	dto := RequestDTO{
		From:       query.Get("from"),
		To:         query.Get("to"),
		Categories: query.Get("categories"),
		Format:     query.Get("format"),
	}
	dto.Exclude, _ = strconv.ParseBool(query.Get("exclude"))
	if raw := query.Get("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status, err := calendar.ParseStatus(part)
			if err != nil {
				rest.WriteError(w, http.StatusBadRequest, "Invalid status", err.Error())
				return
			}
			dto.Statuses = append(dto.Statuses, int(status))
		}
	}
	req, err := h.toRequest(dto)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid report request", err.Error())
		return
	}

	result, err := h.service.Preview(r.Context(), req, nil)
	if err != nil {
		rest.WriteError(w, http.StatusBadGateway, "Unable to read calendar", err.Error())
		return
	}

	if req.Format == report.FormatCsv {
		body, err := report.NewCsvRenderer().RenderReport(result.Rows)
		if err != nil {
			rest.WriteError(w, http.StatusInternalServerError, "Unable to render report", err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		return
	}

	diagnostics := make([]string, 0, len(result.Diagnostics))
	for _, d := range result.Diagnostics {
		diagnostics = append(diagnostics, d.String())
	}
	rest.WriteJSON(w, http.StatusOK, ReportDTO{
		Rows:        result.Rows,
		Processed:   result.Processed,
		Matched:     result.Matched,
		Diagnostics: diagnostics,
	})
}

func (h *Handler) findJob(w http.ResponseWriter, r *http.Request) (Job, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid export id", err.Error())
		return Job{}, false
	}
	job, err := h.service.Get(id)
	if errors.Is(err, ErrJobNotFound) {
		rest.WriteError(w, http.StatusNotFound, "Export not found", id.String())
		return Job{}, false
	}
	return job, true
}

func (h *Handler) toRequest(dto RequestDTO) (Request, error) {
	from, to, err := ParseRange(dto.From, dto.To, h.loc)
	if err != nil {
		return Request{}, err
	}
	req := Request{
		From:       from,
		To:         to,
		Categories: dto.Categories,
		Exclude:    dto.Exclude,
	}
	if dto.Format != "" {
		if req.Format, err = report.ParseFormat(dto.Format); err != nil {
			return Request{}, err
		}
	}
	if dto.Categories == "" {
		req.Categories = h.filter.Categories
		req.Exclude = h.filter.Exclude
	}
	statuses := dto.Statuses
	if statuses == nil {
		statuses = h.filter.Statuses
	}
	if req.Statuses, err = StatusesFromInts(statuses); err != nil {
		return Request{}, err
	}
	return req, nil
}

// StatusesFromInts converts configured ordinals; nil yields the default statuses.
func StatusesFromInts(values []int) ([]calendar.MeetingStatus, error) {
	if values == nil {
		return calendar.DefaultStatuses, nil
	}
	statuses := make([]calendar.MeetingStatus, 0, len(values))
	for _, v := range values {
		status := calendar.MeetingStatus(v)
		if !status.Valid() {
			return nil, config.ErrInvalidStatus
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/klokku/meetstats/internal/config"
	"github.com/klokku/meetstats/internal/event_bus"
	"github.com/klokku/meetstats/internal/utils"
	"github.com/klokku/meetstats/pkg/aggregate"
	"github.com/klokku/meetstats/pkg/calendar"
	"github.com/klokku/meetstats/pkg/report"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidRange = errors.New("the end of the range must be after its start")

const notificationTitle = "Meeting report"

type Service struct {
	source   calendar.Source
	bus      *event_bus.EventBus
	clock    utils.Clock
	cfg      config.Report
	notifier Notifier
	jobs     *jobStore
}

func NewService(source calendar.Source, bus *event_bus.EventBus, clock utils.Clock, cfg config.Report, notifier Notifier) *Service {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Service{
		source:   source,
		bus:      bus,
		clock:    clock,
		cfg:      cfg,
		notifier: notifier,
		jobs:     newJobStore(),
	}
}

// Start runs the export on its own goroutine and returns the job id at once.
// The job outlives ctx cancellation; progress and completion go to the bus.
func (s *Service) Start(ctx context.Context, req Request) (uuid.UUID, error) {
	req, err := s.prepare(req)
	if err != nil {
		return uuid.Nil, err
	}
	job := s.jobs.create(s.clock.Now())
	go func() {
		_, _ = s.execute(context.WithoutCancel(ctx), job.Id, req)
	}()
	return job.Id, nil
}

// Run executes the export on the calling goroutine.
func (s *Service) Run(ctx context.Context, req Request) (Job, error) {
	req, err := s.prepare(req)
	if err != nil {
		return Job{}, err
	}
	job := s.jobs.create(s.clock.Now())
	return s.execute(ctx, job.Id, req)
}

func (s *Service) Get(id uuid.UUID) (Job, error) {
	return s.jobs.get(id)
}

// Preview aggregates without writing anything. progress may be nil.
func (s *Service) Preview(ctx context.Context, req Request, progress aggregate.Progress) (aggregate.Result, error) {
	if !req.To.After(req.From) {
		return aggregate.Result{}, ErrInvalidRange
	}
	events, err := s.source.GetEvents(ctx, req.From, req.To)
	if err != nil {
		return aggregate.Result{}, fmt.Errorf("failed to read calendar: %w", err)
	}
	filter := aggregate.NewFilter(req.Statuses, req.Categories, req.Exclude)
	return aggregate.Aggregate(events, filter, progress), nil
}

func (s *Service) prepare(req Request) (Request, error) {
	if !req.To.After(req.From) {
		return req, ErrInvalidRange
	}
	if req.Format == "" {
		format, err := report.ParseFormat(s.cfg.Format)
		if err != nil {
			return req, err
		}
		req.Format = format
	}
	if _, err := report.RendererFor(req.Format); err != nil {
		return req, err
	}
	if req.OutputDir == "" {
		req.OutputDir = s.cfg.OutputDir
	}
	return req, nil
}

func (s *Service) execute(ctx context.Context, id uuid.UUID, req Request) (Job, error) {
	s.jobs.update(id, func(job *Job) { job.Status = JobRunning })
	logger := log.WithField("job", id)

	events, err := s.source.GetEvents(ctx, req.From, req.To)
	if err != nil {
		logger.Errorf("failed to read calendar: %v", err)
		return s.finish(ctx, id, "", aggregate.Result{}, fmt.Errorf("failed to read calendar: %w", err))
	}

	filter := aggregate.NewFilter(req.Statuses, req.Categories, req.Exclude)
	result := aggregate.Aggregate(events, filter, &busProgress{ctx: ctx, bus: s.bus, jobs: s.jobs, jobId: id})
	for _, d := range result.Diagnostics {
		logger.Warnf("skipped %s", d)
	}

	renderer, err := report.RendererFor(req.Format)
	if err != nil {
		return s.finish(ctx, id, "", result, err)
	}
	sink := report.NewFileSink(req.OutputDir, s.cfg.FilePrefix, s.clock)
	path, err := sink.Save(result.Rows, renderer)
	if err != nil {
		return s.finish(ctx, id, "", result, fmt.Errorf("failed to save report: %w", err))
	}
	return s.finish(ctx, id, path, result, nil)
}

func (s *Service) finish(ctx context.Context, id uuid.UUID, path string, result aggregate.Result, cause error) (Job, error) {
	finishedAt := s.clock.Now()
	job := s.jobs.update(id, func(job *Job) {
		job.FinishedAt = &finishedAt
		job.Rows = len(result.Rows)
		job.Skipped = len(result.Diagnostics)
		if cause != nil {
			job.Status = JobFailed
			job.Error = cause.Error()
			return
		}
		job.Status = JobDone
		job.Percent = 100
		job.Path = path
	})

	s.publish(ctx, event_bus.ExportFinished, event_bus.ExportResult{
		JobId:   id,
		Path:    path,
		Rows:    job.Rows,
		Skipped: job.Skipped,
		Err:     cause,
	})

	if cause == nil {
		message := fmt.Sprintf("Export complete. File saved to %s", path)
		log.Info(message)
		if s.cfg.Notify {
			if err := s.notifier.Notify(notificationTitle, message); err != nil {
				log.Warnf("unable to show notification: %v", err)
			}
		}
	}
	return job, cause
}

func (s *Service) publish(ctx context.Context, eventType event_bus.EventType, data any) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(event_bus.NewEvent(ctx, eventType, data)); err != nil {
		log.Warnf("failed to publish %s: %v", eventType, err)
	}
}

// busProgress records the percentage on the job and republishes it.
type busProgress struct {
	ctx   context.Context
	bus   *event_bus.EventBus
	jobs  *jobStore
	jobId uuid.UUID
	last  int
}

func (p *busProgress) Report(percent int) {
	if percent == p.last {
		return
	}
	p.last = percent
	p.jobs.update(p.jobId, func(job *Job) { job.Percent = percent })
	if p.bus == nil {
		return
	}
	err := p.bus.Publish(event_bus.NewEvent(p.ctx, event_bus.ExportProgressed, event_bus.ExportProgress{
		JobId:   p.jobId,
		Percent: percent,
	}))
	if err != nil {
		log.Debugf("progress update dropped: %v", err)
	}
}

var _ aggregate.Progress = (*busProgress)(nil)

// ParseRange reads an inclusive YYYY-MM-DD date range and returns [from, to+1 day).
func ParseRange(from, to string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(time.DateOnly, from, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q: %w", from, err)
	}
	end, err := time.ParseInLocation(time.DateOnly, to, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q: %w", to, err)
	}
	end = end.AddDate(0, 0, 1)
	if !end.After(start) {
		return time.Time{}, time.Time{}, ErrInvalidRange
	}
	return start, end, nil
}

package export

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klokku/meetstats/pkg/calendar"
	"github.com/klokku/meetstats/pkg/report"
)

var ErrJobNotFound = errors.New("export job not found")

type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// Request describes one export. From is inclusive and To exclusive.
type Request struct {
	From       time.Time
	To         time.Time
	Statuses   []calendar.MeetingStatus
	Categories string
	Exclude    bool
	Format     report.Format
	OutputDir  string
}

type Job struct {
	Id         uuid.UUID  `json:"id"`
	Status     JobStatus  `json:"status"`
	Percent    int        `json:"percent"`
	Path       string     `json:"path,omitempty"`
	Rows       int        `json:"rows"`
	Skipped    int        `json:"skipped"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// jobStore holds job snapshots. It is the only state shared between a running
// export and its readers.
type jobStore struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*Job
}

func newJobStore() *jobStore {
	return &jobStore{jobs: make(map[uuid.UUID]*Job)}
}

func (s *jobStore) create(now time.Time) Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	job := &Job{Id: uuid.New(), Status: JobPending, StartedAt: now}
	s.jobs[job.Id] = job
	return *job
}

func (s *jobStore) get(id uuid.UUID) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return *job, nil
}

// update applies fn to the stored job and returns the new snapshot.
func (s *jobStore) update(id uuid.UUID, fn func(job *Job)) Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}
	}
	fn(job)
	return *job
}

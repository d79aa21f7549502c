// Package history loads the backend's job list and resolves per-job result
// downloads.
package history

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Deji-py/insta-enricher/internal/domain"
	"github.com/Deji-py/insta-enricher/internal/enrichment"
)

// Messages surfaced to the user.
const (
	FallbackMessage         = "Failed to fetch recent jobs"
	DownloadFallbackMessage = "Failed to download results"
)

// State is the list's request state.
type State string

// List states.
const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// API is the slice of the enrichment client the job list needs.
type API interface {
	ListJobs(ctx context.Context) ([]domain.Job, error)
	GetDownloadURL(ctx context.Context, jobID string) (string, error)
}

// Snapshot is a consistent copy of the list state.
type Snapshot struct {
	State State        `json:"state"`
	Jobs  []domain.Job `json:"jobs"`
	Error string       `json:"error,omitempty"`
}

// Service holds the most recently fetched job list. There is no polling; the
// list changes only on Load or Refresh.
type Service struct {
	api    API
	logger *slog.Logger

	mu      sync.Mutex
	state   State
	jobs    []domain.Job
	errMsg  string
	nextSeq uint64
	applied uint64
}

// NewService creates a job list Service.
func NewService(api API, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{api: api, logger: logger, state: StateLoading, jobs: []domain.Job{}}
}

// Load fetches the job list once. Responses older than the newest applied
// one are dropped.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	s.nextSeq++
	seq := s.nextSeq
	s.state = StateLoading
	s.mu.Unlock()

	jobs, err := s.api.ListJobs(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.applied {
		return nil
	}
	s.applied = seq
	if err != nil {
		s.state = StateError
		s.errMsg = enrichment.ErrorMessage(err, FallbackMessage)
		s.logger.Warn("job list fetch failed", "error", err)
		return err
	}
	s.state = StateReady
	s.errMsg = ""
	s.jobs = jobs
	return nil
}

// Refresh re-runs Load.
func (s *Service) Refresh(ctx context.Context) error {
	return s.Load(ctx)
}

// Snapshot returns the current list state. The Jobs slice is a copy.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	jobs := make([]domain.Job, len(s.jobs))
	copy(jobs, s.jobs)
	return Snapshot{State: s.state, Jobs: jobs, Error: s.errMsg}
}

// DownloadURL looks up the result URL for jobID. Every call hits the
// backend; results are not cached.
func (s *Service) DownloadURL(ctx context.Context, jobID string) (string, error) {
	u, err := s.api.GetDownloadURL(ctx, jobID)
	if err != nil {
		s.logger.Warn("download url lookup failed", "job_id", jobID, "error", err)
		return "", err
	}
	return u, nil
}

// DownloadMessage reduces a DownloadURL error to the line shown to the user.
func DownloadMessage(err error) string {
	return enrichment.ErrorMessage(err, DownloadFallbackMessage)
}

// Row is the display projection of a job in the history list.
type Row struct {
	Job         domain.Job
	Progress    int
	HasProgress bool
	Throughput  int
}

// Rows projects jobs for display. Running jobs show the unclamped
// processed/total ratio.
func Rows(jobs []domain.Job) []Row {
	rows := make([]Row, 0, len(jobs))
	for i := range jobs {
		j := jobs[i]
		r := Row{Job: j, Throughput: j.ProfilesPerMinute()}
		if j.Status == domain.JobStatusRunning {
			r.Progress, r.HasProgress = domain.RawProgress(&j)
		}
		rows = append(rows, r)
	}
	return rows
}

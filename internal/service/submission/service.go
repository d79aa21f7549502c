package submission

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/Deji-py/insta-enricher/internal/domain"
	"github.com/Deji-py/insta-enricher/internal/enrichment"
)

// FallbackMessage is shown when a failed submission carries no better text.
const FallbackMessage = "Failed to start enrichment process"

// ErrInProgress is returned when Submit is called while another submission
// from the same Service is still outstanding.
var ErrInProgress = errors.New("a submission is already in progress")

// Starter is the slice of the enrichment client used for submission.
type Starter interface {
	StartJob(ctx context.Context, req enrichment.StartRequest) (*domain.StartResult, error)
}

// Service validates and submits jobs. One submission runs at a time.
type Service struct {
	client     Starter
	logger     *slog.Logger
	submitting atomic.Bool
}

// NewService creates a submission Service.
func NewService(client Starter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, logger: logger}
}

// Submitting reports whether a submission is outstanding.
func (s *Service) Submitting() bool {
	return s.submitting.Load()
}

// Submit validates f and, when valid, sends it to the backend. Validation
// failures are returned before any network call. There is no retry.
func (s *Service) Submit(ctx context.Context, f Form) (*domain.StartResult, error) {
	if err := Validate(f); err != nil {
		return nil, err
	}
	f.Normalize()

	if !s.submitting.CompareAndSwap(false, true) {
		return nil, ErrInProgress
	}
	defer s.submitting.Store(false)

	res, err := s.client.StartJob(ctx, enrichment.StartRequest{
		FileName: f.FileName,
		File:     f.File,
		Name:     f.Name,
		Email:    f.Email,
		Nodes:    f.Nodes,
	})
	if err != nil {
		s.logger.Error("submission failed", "name", f.Name, "nodes", f.Nodes, "error", err)
		return nil, err
	}
	s.logger.Info("job submitted", "job_id", res.JobID, "total_profiles", res.TotalProfiles, "nodes", f.Nodes)
	return res, nil
}

// Message reduces a Submit error to the single line shown to the user.
func Message(err error) string {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	return enrichment.ErrorMessage(err, FallbackMessage)
}

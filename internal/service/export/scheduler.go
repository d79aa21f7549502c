package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs ExportAll on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	exporter *Exporter
	dest     string
	schedule string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a scheduler that exports everything to dest.
func NewScheduler(exporter *Exporter, schedule, dest string, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:     cron.New(),
		exporter: exporter,
		dest:     dest,
		schedule: schedule,
		timeout:  10 * time.Minute,
		logger:   logger,
	}
}

// Start validates the destination, registers the job and starts the cron.
func (s *Scheduler) Start() error {
	if _, err := ParseDestination(s.dest); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.schedule, s.run); err != nil {
		return fmt.Errorf("invalid export schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.logger.Info("export scheduler started", "schedule", s.schedule, "destination", s.dest)
	return nil
}

// Stop stops the cron and waits for a running export to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("export scheduler stopped")
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	res, err := s.exporter.ExportAll(ctx, s.dest)
	if err != nil {
		s.logger.Warn("scheduled export failed", "destination", s.dest, "error", err)
		return
	}
	s.logger.Info("scheduled export finished", "destination", res.Destination, "bytes", res.Bytes)
}

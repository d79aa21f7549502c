package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds parallel job exports.
const DefaultConcurrency = 4

// API is the slice of the enrichment client the exporter needs.
type API interface {
	GetDownloadURL(ctx context.Context, jobID string) (string, error)
	DownloadAllURL(ctx context.Context) (string, error)
	Fetch(ctx context.Context, rawURL string) (io.ReadCloser, error)
}

// Result describes one finished export.
type Result struct {
	JobID       string `json:"job_id,omitempty"`
	Destination string `json:"destination"`
	Bytes       int64  `json:"bytes"`
	ShareURL    string `json:"share_url,omitempty"`
}

// Exporter resolves result URLs and copies the CSVs into sinks.
type Exporter struct {
	api         API
	creds       Credentials
	logger      *slog.Logger
	concurrency int
	shareTTL    time.Duration
	now         func() time.Time
	newSink     func(ctx context.Context, kind Kind, creds Credentials) (Sink, error)
}

// NewExporter creates an Exporter.
func NewExporter(api API, creds Credentials, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		api:         api,
		creds:       creds,
		logger:      logger,
		concurrency: DefaultConcurrency,
		now:         time.Now,
		newSink:     NewSink,
	}
}

// SetConcurrency bounds ExportJobs parallelism. Values below 1 are ignored.
func (e *Exporter) SetConcurrency(n int) {
	if n > 0 {
		e.concurrency = n
	}
}

// SetShareTTL makes every export to an object store also return a read link
// valid for ttl. Zero disables share links.
func (e *Exporter) SetShareTTL(ttl time.Duration) error {
	if err := ValidateShareTTL(ttl); err != nil {
		return err
	}
	e.shareTTL = ttl
	return nil
}

// ExportJob copies one job's results to dest.
func (e *Exporter) ExportJob(ctx context.Context, jobID, dest string) (*Result, error) {
	d, err := ParseDestination(dest)
	if err != nil {
		return nil, err
	}
	u, err := e.api.GetDownloadURL(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("resolve download url for %s: %w", jobID, err)
	}
	res, err := e.copy(ctx, u, d.WithName(JobFileName(jobID)))
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", jobID, err)
	}
	res.JobID = jobID
	return res, nil
}

// ExportAll copies the combined CSV of every job to dest.
func (e *Exporter) ExportAll(ctx context.Context, dest string) (*Result, error) {
	d, err := ParseDestination(dest)
	if err != nil {
		return nil, err
	}
	u, err := e.api.DownloadAllURL(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve bulk download url: %w", err)
	}
	res, err := e.copy(ctx, u, d.WithName(AllFileName(e.now())))
	if err != nil {
		return nil, fmt.Errorf("export all: %w", err)
	}
	return res, nil
}

// ExportJobs exports several jobs concurrently into a folder destination.
// The first failure cancels the remaining exports.
func (e *Exporter) ExportJobs(ctx context.Context, jobIDs []string, dest string) ([]Result, error) {
	d, err := ParseDestination(dest)
	if err != nil {
		return nil, err
	}
	if len(jobIDs) > 1 && !d.isPrefix() {
		return nil, fmt.Errorf("exporting %d jobs needs a folder destination, got %q", len(jobIDs), dest)
	}
	results := make([]Result, len(jobIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, id := range jobIDs {
		g.Go(func() error {
			res, err := e.ExportJob(gctx, id, dest)
			if err != nil {
				return err
			}
			results[i] = *res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Exporter) copy(ctx context.Context, rawURL string, d Destination) (*Result, error) {
	sink, err := e.newSink(ctx, d.Kind, e.creds)
	if err != nil {
		return nil, err
	}
	if c, ok := sink.(io.Closer); ok {
		defer c.Close() //nolint:errcheck
	}
	sharer, canShare := sink.(Sharer)
	if e.shareTTL > 0 && !canShare {
		return nil, fmt.Errorf("share links are not supported for %s destinations", d.Kind)
	}

	body, err := e.api.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch results: %w", err)
	}
	defer body.Close() //nolint:errcheck

	cr := &countingReader{r: body}
	if err := sink.Put(ctx, d, cr); err != nil {
		return nil, err
	}
	e.logger.Info("export written", "destination", d.String(), "bytes", cr.n)
	res := &Result{Destination: d.String(), Bytes: cr.n}

	if e.shareTTL > 0 {
		if res.ShareURL, err = sharer.ShareURL(ctx, d, e.shareTTL); err != nil {
			return nil, err
		}
	}
	return res, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

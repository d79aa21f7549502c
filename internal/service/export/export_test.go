package export

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Deji-py/insta-enricher/internal/enrichment"
)

func TestParseDestination(t *testing.T) {
	tests := []struct {
		raw     string
		want    Destination
		wantErr string
	}{
		{raw: "s3://bucket/exports/run.csv", want: Destination{Kind: KindS3, Bucket: "bucket", Key: "exports/run.csv"}},
		{raw: "gs://bucket/exports/", want: Destination{Kind: KindGCS, Bucket: "bucket", Key: "exports/"}},
		{raw: "az://container/a.csv", want: Destination{Kind: KindAzure, Bucket: "container", Key: "a.csv"}},
		{raw: "S3://bucket", want: Destination{Kind: KindS3, Bucket: "bucket", Key: ""}},
		{raw: "./out/results.csv", want: Destination{Kind: KindFile, Key: "./out/results.csv"}},
		{raw: "file:///tmp/x.csv", want: Destination{Kind: KindFile, Key: "/tmp/x.csv"}},
		{raw: "", wantErr: "empty"},
		{raw: "ftp://host/x.csv", wantErr: "unsupported destination scheme"},
		{raw: "s3:///key.csv", wantErr: "empty bucket"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseDestination(tt.raw)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDestination_WithName(t *testing.T) {
	dir := t.TempDir()

	d, _ := ParseDestination("s3://bucket/exports/")
	assert.Equal(t, "exports/job-1.csv", d.WithName(JobFileName("job-1")).Key)

	d, _ = ParseDestination("s3://bucket/exports/fixed.csv")
	assert.Equal(t, "exports/fixed.csv", d.WithName(JobFileName("job-1")).Key)

	d, _ = ParseDestination("gs://bucket")
	assert.Equal(t, "job-1.csv", d.WithName(JobFileName("job-1")).Key)

	d, _ = ParseDestination(dir)
	assert.Equal(t, filepath.Join(dir, "job-1.csv"), d.WithName(JobFileName("job-1")).Key)
}

func TestAllFileName(t *testing.T) {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	assert.Equal(t, "instagram-data-20260304-050607.csv", AllFileName(ts))
}

func TestFileSink_Put(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	err := FileSink{}.Put(context.Background(), Destination{Kind: KindFile, Key: path}, strings.NewReader("a,b\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be renamed away")
}

func TestNewSink(t *testing.T) {
	s, err := NewSink(context.Background(), KindFile, Credentials{})
	require.NoError(t, err)
	assert.IsType(t, FileSink{}, s)

	s, err = NewSink(context.Background(), KindS3, Credentials{S3KeyID: "k", S3Secret: "s", S3Endpoint: "fsn1.example.com"})
	require.NoError(t, err)
	assert.IsType(t, &S3Sink{}, s)

	_, err = NewSink(context.Background(), KindAzure, Credentials{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AZURE_ACCOUNT_NAME")
}

// === Exporter ===

type fakeAPI struct {
	mu      sync.Mutex
	urls    map[string]string
	allURL  string
	bodies  map[string]string
	fetched []string
}

func (f *fakeAPI) GetDownloadURL(_ context.Context, id string) (string, error) {
	u, ok := f.urls[id]
	if !ok {
		return "", enrichment.ErrNoDownloadURL
	}
	return u, nil
}

func (f *fakeAPI) DownloadAllURL(context.Context) (string, error) {
	if f.allURL == "" {
		return "", enrichment.ErrNoDownloadURL
	}
	return f.allURL, nil
}

func (f *fakeAPI) Fetch(_ context.Context, rawURL string) (io.ReadCloser, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, rawURL)
	f.mu.Unlock()
	body, ok := f.bodies[rawURL]
	if !ok {
		return nil, &enrichment.APIError{HTTPStatus: 403, Message: "AccessDenied"}
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		urls: map[string]string{
			"a": "https://files.example.com/a.csv",
			"b": "https://files.example.com/b.csv",
		},
		allURL: "https://files.example.com/all.csv",
		bodies: map[string]string{
			"https://files.example.com/a.csv":   "username\nalice\n",
			"https://files.example.com/b.csv":   "username\nbob\n",
			"https://files.example.com/all.csv": "username\nalice\nbob\n",
		},
	}
}

func TestExporter_ExportJobToFolder(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(newFakeAPI(), Credentials{}, nil)

	res, err := e.ExportJob(context.Background(), "a", dir+string(os.PathSeparator))
	require.NoError(t, err)
	assert.Equal(t, "a", res.JobID)
	assert.Equal(t, int64(len("username\nalice\n")), res.Bytes)

	data, err := os.ReadFile(filepath.Join(dir, "a.csv"))
	require.NoError(t, err)
	assert.Equal(t, "username\nalice\n", string(data))
}

func TestExporter_ExportAll(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(newFakeAPI(), Credentials{}, nil)
	e.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	res, err := e.ExportAll(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "instagram-data-20260102-030405.csv"), res.Destination)

	data, err := os.ReadFile(res.Destination)
	require.NoError(t, err)
	assert.Equal(t, "username\nalice\nbob\n", string(data))
}

func TestExporter_ExportJobMissingURL(t *testing.T) {
	e := NewExporter(newFakeAPI(), Credentials{}, nil)
	_, err := e.ExportJob(context.Background(), "missing", t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, enrichment.ErrNoDownloadURL))
}

type memSink struct {
	mu      sync.Mutex
	objects map[string]string
}

func (m *memSink) Put(_ context.Context, d Destination, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[d.String()] = string(data)
	return nil
}

func TestExporter_ExportJobsConcurrently(t *testing.T) {
	sink := &memSink{objects: map[string]string{}}
	var kinds []Kind
	e := NewExporter(newFakeAPI(), Credentials{}, nil)
	e.SetConcurrency(2)
	e.newSink = func(_ context.Context, kind Kind, _ Credentials) (Sink, error) {
		sink.mu.Lock()
		kinds = append(kinds, kind)
		sink.mu.Unlock()
		return sink, nil
	}

	results, err := e.ExportJobs(context.Background(), []string{"a", "b"}, "s3://bucket/exports/")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].JobID)
	assert.Equal(t, "s3://bucket/exports/a.csv", results[0].Destination)
	assert.Equal(t, "s3://bucket/exports/b.csv", results[1].Destination)

	assert.Equal(t, "username\nbob\n", sink.objects["s3://bucket/exports/b.csv"])
	assert.ElementsMatch(t, []Kind{KindS3, KindS3}, kinds)
}

func TestExporter_ExportJobsStopsOnFailure(t *testing.T) {
	e := NewExporter(newFakeAPI(), Credentials{}, nil)
	e.newSink = func(context.Context, Kind, Credentials) (Sink, error) {
		return &memSink{objects: map[string]string{}}, nil
	}

	_, err := e.ExportJobs(context.Background(), []string{"a", "missing"}, "gs://bucket/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestExporter_ExportJobsNeedsFolder(t *testing.T) {
	e := NewExporter(newFakeAPI(), Credentials{}, nil)
	_, err := e.ExportJobs(context.Background(), []string{"a", "b"}, "s3://bucket/one.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "folder destination")
}

func TestExporter_FetchFailure(t *testing.T) {
	api := newFakeAPI()
	delete(api.bodies, "https://files.example.com/a.csv")
	e := NewExporter(api, Credentials{}, nil)

	_, err := e.ExportJob(context.Background(), "a", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessDenied")
}

// === Scheduler ===

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := NewScheduler(NewExporter(newFakeAPI(), Credentials{}, nil), "not a schedule", t.TempDir(), nil)
	err := s.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid export schedule")
}

func TestScheduler_InvalidDestination(t *testing.T) {
	s := NewScheduler(NewExporter(newFakeAPI(), Credentials{}, nil), "@hourly", "ftp://x/y", nil)
	require.Error(t, s.Start())
}

func TestScheduler_RunWritesExport(t *testing.T) {
	dir := t.TempDir()
	s := NewScheduler(NewExporter(newFakeAPI(), Credentials{}, nil), "@hourly", dir, nil)
	require.NoError(t, s.Start())
	t.Cleanup(s.Stop)

	s.run()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "instagram-data-"))
}

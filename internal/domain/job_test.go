package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverallProgress(t *testing.T) {
	tests := []struct {
		name string
		job  *Job
		want int
	}{
		{name: "nil job", job: nil, want: 0},
		{name: "running 30 of 100", job: &Job{Status: JobStatusRunning, ProcessedProfiles: 30, TotalProfiles: 100}, want: 30},
		{name: "running rounds half up", job: &Job{Status: JobStatusRunning, ProcessedProfiles: 1, TotalProfiles: 8}, want: 13},
		{name: "running all processed caps at 99", job: &Job{Status: JobStatusRunning, ProcessedProfiles: 100, TotalProfiles: 100}, want: 99},
		{name: "running 995 of 1000 caps at 99", job: &Job{Status: JobStatusRunning, ProcessedProfiles: 995, TotalProfiles: 1000}, want: 99},
		{name: "processed beyond total caps at 99", job: &Job{Status: JobStatusRunning, ProcessedProfiles: 150, TotalProfiles: 100}, want: 99},
		{name: "zero over zero", job: &Job{Status: JobStatusRunning}, want: 0},
		{name: "zero total", job: &Job{Status: JobStatusRunning, ProcessedProfiles: 5}, want: 0},
		{name: "completed ignores counts", job: &Job{Status: JobStatusCompleted, ProcessedProfiles: 3, TotalProfiles: 100}, want: 100},
		{name: "completed with zero counts", job: &Job{Status: JobStatusCompleted}, want: 100},
		{name: "failed uses counts", job: &Job{Status: JobStatusFailed, ProcessedProfiles: 40, TotalProfiles: 80}, want: 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OverallProgress(tt.job))
		})
	}
}

func TestOverallProgress_RunningNeverReaches100(t *testing.T) {
	for total := 1; total <= 200; total++ {
		for processed := 0; processed <= total; processed++ {
			got := OverallProgress(&Job{Status: JobStatusRunning, ProcessedProfiles: processed, TotalProfiles: total})
			require.GreaterOrEqual(t, got, 0)
			require.LessOrEqual(t, got, 99, "processed=%d total=%d", processed, total)
		}
	}
}

func TestRawProgress(t *testing.T) {
	pct, ok := RawProgress(&Job{ProcessedProfiles: 100, TotalProfiles: 100})
	require.True(t, ok)
	assert.Equal(t, 100, pct)

	_, ok = RawProgress(&Job{ProcessedProfiles: 10})
	assert.False(t, ok)
}

func TestJobStatus_Terminal(t *testing.T) {
	assert.False(t, JobStatusRunning.Terminal())
	assert.True(t, JobStatusCompleted.Terminal())
	assert.True(t, JobStatusFailed.Terminal())
	assert.False(t, JobStatus("queued").Terminal())
}

func TestJob_ProfilesPerMinute(t *testing.T) {
	j := &Job{SelectedNodes: []string{"node-1", "node-2", "node-3"}}
	assert.Equal(t, 3, j.NodeCount())
	assert.Equal(t, 150, j.ProfilesPerMinute())
}

func TestJob_DecodeBackendPayload(t *testing.T) {
	payload := `{
		"id": "job-123",
		"name": "Batch1",
		"email": "a@b.com",
		"status": "running",
		"total_profiles": 100,
		"processed_profiles": 30,
		"successful_profiles": 28,
		"failed_profiles": 2,
		"selected_nodes": ["n1", "n2", "n3"],
		"created_at": "2025-03-01T10:00:00.000Z",
		"estimated_completion": "2025-03-01T10:05:00Z",
		"nodeProgress": [
			{"nodeId": 1, "completed": 10, "total": 34, "progress": 29.41},
			{"nodeId": "node-b", "completed": 20, "total": 33, "progress": 60.6}
		]
	}`

	var j Job
	require.NoError(t, json.Unmarshal([]byte(payload), &j))

	assert.Equal(t, "job-123", j.ID)
	assert.Equal(t, JobStatusRunning, j.Status)
	require.NotNil(t, j.SuccessfulProfiles)
	assert.Equal(t, 28, *j.SuccessfulProfiles)
	require.NotNil(t, j.EstimatedCompletion)
	assert.Nil(t, j.CompletedAt)
	require.Len(t, j.NodeProgress, 2)
	assert.Equal(t, NodeID("1"), j.NodeProgress[0].NodeID)
	assert.Equal(t, NodeID("node-b"), j.NodeProgress[1].NodeID)
	assert.Equal(t, 29, j.NodeProgress[0].Percent())
	assert.Equal(t, 61, j.NodeProgress[1].Percent())
}

func TestJob_DecodeTimestampFormats(t *testing.T) {
	want := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		raw  string
		want *time.Time
	}{
		{name: "rfc3339", raw: `"2024-05-01T12:00:00Z"`, want: &want},
		{name: "space separated", raw: `"2024-05-01 12:00:00"`, want: &want},
		{name: "no zone", raw: `"2024-05-01T12:00:00"`, want: &want},
		{name: "fractional with offset", raw: `"2024-05-01 14:00:00.000+02:00"`, want: &want},
		{name: "epoch millis", raw: `1714564800000`, want: &want},
		{name: "null", raw: `null`},
		{name: "garbage", raw: `"yesterday"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := `{"id":"job-1","status":"running","created_at":` + tt.raw + `,"completed_at":` + tt.raw + `}`
			var j Job
			require.NoError(t, json.Unmarshal([]byte(payload), &j))
			assert.Equal(t, "job-1", j.ID)
			if tt.want == nil {
				assert.True(t, j.CreatedAt.IsZero())
				assert.Nil(t, j.CompletedAt)
				return
			}
			assert.True(t, tt.want.Equal(j.CreatedAt), "created_at = %s", j.CreatedAt)
			require.NotNil(t, j.CompletedAt)
			assert.True(t, tt.want.Equal(*j.CompletedAt))
		})
	}
}

func TestNodeID_RejectsObjects(t *testing.T) {
	var n NodeID
	assert.Error(t, json.Unmarshal([]byte(`{"id":1}`), &n))
}

func TestNodeProgress_PercentClamped(t *testing.T) {
	assert.Equal(t, 100, NodeProgress{Progress: 104.2}.Percent())
	assert.Equal(t, 0, NodeProgress{Progress: -3}.Percent())
}

package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// JobStatus is the backend-reported lifecycle state of an enrichment job.
type JobStatus string

// Job statuses reported by the backend. Anything else is kept verbatim.
const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether no further status changes are expected.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ProfilesPerNodeMinute is the advertised per-node scraping throughput.
const ProfilesPerNodeMinute = 50

// Job is the client's read-only copy of a backend job. The client never
// mutates it; each fetch replaces the cached value.
type Job struct {
	ID                  string         `json:"id"`
	Name                string         `json:"name"`
	Email               string         `json:"email"`
	Status              JobStatus      `json:"status"`
	TotalProfiles       int            `json:"total_profiles"`
	ProcessedProfiles   int            `json:"processed_profiles,omitempty"`
	SuccessfulProfiles  *int           `json:"successful_profiles,omitempty"`
	FailedProfiles      *int           `json:"failed_profiles,omitempty"`
	SelectedNodes       []string       `json:"selected_nodes"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           *time.Time     `json:"updated_at,omitempty"`
	CompletedAt         *time.Time     `json:"completed_at,omitempty"`
	EstimatedCompletion *time.Time     `json:"estimated_completion,omitempty"`
	DownloadPath        string         `json:"download_path,omitempty"`
	ErrorMessage        string         `json:"error_message,omitempty"`
	NodeProgress        []NodeProgress `json:"nodeProgress,omitempty"`
}

// OverallProgress returns the 0-100 percentage shown for the job.
//
// 100 is reserved for completed jobs so a running job never reads as done;
// anything else is round(processed/total*100) capped at 99, or 0 when either
// count is missing.
func OverallProgress(j *Job) int {
	if j == nil {
		return 0
	}
	if j.Status == JobStatusCompleted {
		return 100
	}
	if j.ProcessedProfiles <= 0 || j.TotalProfiles <= 0 {
		return 0
	}
	pct := int(math.Round(float64(j.ProcessedProfiles) / float64(j.TotalProfiles) * 100))
	return clamp(pct, 0, 99)
}

// RawProgress is the unclamped round(processed/total*100) used by the job
// history list. ok is false when the ratio is undefined.
func RawProgress(j *Job) (pct int, ok bool) {
	if j == nil || j.TotalProfiles <= 0 {
		return 0, false
	}
	return int(math.Round(float64(j.ProcessedProfiles) / float64(j.TotalProfiles) * 100)), true
}

// NodeCount returns the number of nodes assigned to the job.
func (j *Job) NodeCount() int {
	return len(j.SelectedNodes)
}

// ProfilesPerMinute is the reported throughput for the job's node count.
func (j *Job) ProfilesPerMinute() int {
	return ThroughputPerMinute(j.NodeCount())
}

// ThroughputPerMinute returns the profiles/minute a node count is expected to reach.
func ThroughputPerMinute(nodes int) int {
	return nodes * ProfilesPerNodeMinute
}

// timestampLayouts are the date formats the backend has been seen to emit.
// Layouts without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// parseTimestamp reads a JSON timestamp given as a string in one of
// timestampLayouts or as epoch milliseconds. ok is false for null, empty
// and unrecognised values.
func parseTimestamp(raw json.RawMessage) (t time.Time, ok bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var ms float64
		if err := json.Unmarshal(raw, &ms); err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(ms)).UTC(), true
	}
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func timestampPtr(raw json.RawMessage) *time.Time {
	if t, ok := parseTimestamp(raw); ok {
		return &t
	}
	return nil
}

// UnmarshalJSON decodes a backend job. Timestamps the backend formats in an
// unexpected way are left unset instead of failing the whole payload.
func (j *Job) UnmarshalJSON(b []byte) error {
	type plain Job
	aux := struct {
		*plain
		CreatedAt           json.RawMessage `json:"created_at"`
		UpdatedAt           json.RawMessage `json:"updated_at"`
		CompletedAt         json.RawMessage `json:"completed_at"`
		EstimatedCompletion json.RawMessage `json:"estimated_completion"`
	}{plain: (*plain)(j)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	j.CreatedAt, _ = parseTimestamp(aux.CreatedAt)
	j.UpdatedAt = timestampPtr(aux.UpdatedAt)
	j.CompletedAt = timestampPtr(aux.CompletedAt)
	j.EstimatedCompletion = timestampPtr(aux.EstimatedCompletion)
	return nil
}

// NodeID identifies a backend worker node. The backend sends it either as a
// JSON number or a string; both decode to the same textual form.
type NodeID string

// UnmarshalJSON accepts numeric and string node identifiers.
func (n *NodeID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*n = NodeID(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("node id must be a string or number: %s", string(b))
	}
	if i, err := num.Int64(); err == nil {
		*n = NodeID(strconv.FormatInt(i, 10))
		return nil
	}
	*n = NodeID(num.String())
	return nil
}

// NodeProgress is a backend-computed per-node progress entry.
type NodeProgress struct {
	NodeID    NodeID  `json:"nodeId"`
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Progress  float64 `json:"progress"`
}

// Percent rounds the backend percentage for display, clamped to [0, 100].
func (p NodeProgress) Percent() int {
	return clamp(int(math.Round(p.Progress)), 0, 100)
}

// BatchDistribution describes how the backend split a new job across nodes.
type BatchDistribution struct {
	NodeID           NodeID  `json:"nodeId"`
	ProfileCount     int     `json:"profileCount"`
	EstimatedMinutes float64 `json:"estimatedMinutes"`
}

// StartResult is returned by the backend when a job is accepted.
type StartResult struct {
	JobID                      string              `json:"jobId"`
	Message                    string              `json:"message"`
	TotalProfiles              int                 `json:"totalProfiles"`
	EstimatedCompletionMinutes float64             `json:"estimatedCompletionMinutes"`
	RequestsPerMinute          float64             `json:"requestsPerMinute"`
	BatchDistribution          []BatchDistribution `json:"batchDistribution"`
	Status                     string              `json:"status"`
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

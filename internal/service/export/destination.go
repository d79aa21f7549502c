// Package export copies enrichment results from their download URL into a
// local file or an object store.
package export

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Kind identifies where an export is written.
type Kind string

// Destination kinds.
const (
	KindFile  Kind = "file"
	KindS3    Kind = "s3"
	KindGCS   Kind = "gs"
	KindAzure Kind = "az"
)

// Destination is a parsed export target. For object stores Bucket is the
// bucket or container and Key the object name; for files Key is the path.
type Destination struct {
	Kind   Kind
	Bucket string
	Key    string
}

// ParseDestination parses s3://bucket/key, gs://bucket/key,
// az://container/key, or a local path.
func ParseDestination(raw string) (Destination, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Destination{}, fmt.Errorf("export destination is empty")
	}
	scheme, _, found := strings.Cut(raw, "://")
	if !found {
		return Destination{Kind: KindFile, Key: raw}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Destination{}, fmt.Errorf("parse destination %q: %w", raw, err)
	}
	var kind Kind
	switch strings.ToLower(scheme) {
	case "s3":
		kind = KindS3
	case "gs":
		kind = KindGCS
	case "az":
		kind = KindAzure
	case "file":
		return Destination{Kind: KindFile, Key: u.Path}, nil
	default:
		return Destination{}, fmt.Errorf("unsupported destination scheme %q in %q", scheme, raw)
	}
	if u.Host == "" {
		return Destination{}, fmt.Errorf("empty bucket in destination %q", raw)
	}
	return Destination{Kind: kind, Bucket: u.Host, Key: strings.TrimPrefix(u.Path, "/")}, nil
}

// String renders the destination in the form ParseDestination accepts.
func (d Destination) String() string {
	if d.Kind == KindFile {
		return d.Key
	}
	return string(d.Kind) + "://" + d.Bucket + "/" + d.Key
}

// isPrefix reports whether the destination names a folder rather than an
// object, in which case a file name is appended.
func (d Destination) isPrefix() bool {
	if d.Key == "" || strings.HasSuffix(d.Key, "/") {
		return true
	}
	if d.Kind == KindFile {
		if strings.HasSuffix(d.Key, string(os.PathSeparator)) {
			return true
		}
		if fi, err := os.Stat(d.Key); err == nil && fi.IsDir() {
			return true
		}
	}
	return false
}

// WithName returns d with name appended when d is a folder.
func (d Destination) WithName(name string) Destination {
	if !d.isPrefix() {
		return d
	}
	if d.Kind == KindFile {
		d.Key = filepath.Join(d.Key, name)
		return d
	}
	d.Key += name
	return d
}

// JobFileName is the default object name for one job's results.
func JobFileName(jobID string) string {
	return jobID + ".csv"
}

// AllFileName is the default object name for the combined export.
func AllFileName(t time.Time) string {
	return "instagram-data-" + t.UTC().Format("20060102-150405") + ".csv"
}

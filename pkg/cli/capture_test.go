package cli

import (
	"bytes"
	"os"
	"testing"
)

// capture swaps *target for a pipe until the returned func is called, which
// restores it and returns everything written.
func capture(t *testing.T, target **os.File) func() string {
	t.Helper()
	old := *target
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	*target = w

	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		_, _ = buf.ReadFrom(r)
		close(done)
	}()

	restored := false
	restore := func() string {
		if !restored {
			restored = true
			_ = w.Close()
			<-done
			*target = old
		}
		return buf.String()
	}
	t.Cleanup(func() { restore() })
	return restore
}

func captureStdout(t *testing.T) func() string { return capture(t, &os.Stdout) }

func captureStderr(t *testing.T) func() string { return capture(t, &os.Stderr) }

package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestSpinnerRendersMessage(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner("Replaying queued mutations")
	s.out = &buf

	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	if !strings.Contains(buf.String(), "Replaying queued mutations") {
		t.Errorf("spinner output %q missing its message", buf.String())
	}
}

func TestSpinnerClearsLineOnStop(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner("Calling service")
	s.out = &buf

	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	// The final write must return the cursor to column zero with the
	// message overwritten by blanks.
	if !strings.HasSuffix(buf.String(), "\r") {
		t.Errorf("spinner output should end with a carriage return, got %q tail", buf.String()[len(buf.String())-5:])
	}
}

func TestSpinnerCancelledByContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var buf bytes.Buffer
	s := newSpinnerWithContext(ctx, "Waiting on a dead host")
	s.out = &buf
	s.Start()

	cancel()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("spinner should report cancelled after its context is cancelled")
	}
	s.Stop()
}

func TestSpinnerCancelledByTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	var buf bytes.Buffer
	s := newSpinnerWithContext(ctx, "Waiting out a deadline")
	s.out = &buf
	s.Start()

	time.Sleep(100 * time.Millisecond)
	if !s.Cancelled() {
		t.Error("spinner should report cancelled after its context deadline")
	}
	s.Stop()
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner("Clearing cache")
	s.out = &buf
	s.Start()

	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithOutcome(t *testing.T) {
	var buf bytes.Buffer

	s := newSpinner("Replaying queued mutations")
	s.out = &buf
	s.Start()
	s.StopWithSuccess("Replayed 3 mutations")

	s = newSpinner("Replaying queued mutations")
	s.out = &buf
	s.Start()
	s.StopWithError("replay rejected by server")
}

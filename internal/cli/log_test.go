package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNewLoggerFiltersByLevel(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		emit    func(*log.Logger)
		wantOut bool
	}{
		{
			name:    "info shown at info level",
			level:   log.InfoLevel,
			emit:    func(l *log.Logger) { l.Info("replaying queued mutations") },
			wantOut: true,
		},
		{
			name:    "debug hidden at info level",
			level:   log.InfoLevel,
			emit:    func(l *log.Logger) { l.Debug("cache key fingerprint computed") },
			wantOut: false,
		},
		{
			name:    "debug shown when verbose",
			level:   log.DebugLevel,
			emit:    func(l *log.Logger) { l.Debug("cache key fingerprint computed") },
			wantOut: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.emit(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantOut {
				t.Errorf("wrote output = %v, want %v", got, tt.wantOut)
			}
		})
	}
}

func TestProgressReportsElapsed(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))

	time.Sleep(5 * time.Millisecond)
	prog.done("Replay finished (2 applied, 0 rejected)")

	out := buf.String()
	if !strings.Contains(out, "Replay finished") {
		t.Errorf("done() output %q missing message", out)
	}
	if !strings.Contains(out, "(") || !strings.Contains(out, "s)") {
		t.Errorf("done() output %q missing elapsed duration", out)
	}
}

func TestContextLoggerRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	ctx := withLogger(context.Background(), logger)
	if got := loggerFromContext(ctx); got != logger {
		t.Fatal("loggerFromContext returned a different logger than withLogger stored")
	}

	loggerFromContext(ctx).Info("queue is empty")
	if !strings.Contains(buf.String(), "queue is empty") {
		t.Errorf("context logger output = %q, want the logged message", buf.String())
	}
}

func TestLoggerFromContextFallsBackToDefault(t *testing.T) {
	if loggerFromContext(context.Background()) == nil {
		t.Error("loggerFromContext without a stored logger should fall back, not return nil")
	}
}

func TestRootCommandSeedsContextLogger(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)

	root := c.RootCommand()
	root.SetContext(context.Background())
	if err := root.PersistentPreRunE(root, nil); err != nil {
		t.Fatalf("PersistentPreRunE: %v", err)
	}

	if got := loggerFromContext(root.Context()); got != c.Logger {
		t.Error("command context should carry the CLI's configured logger")
	}
}

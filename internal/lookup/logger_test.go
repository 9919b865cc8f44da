package lookup

import (
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type captureLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *captureLogger) log(level, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprint(level, " ", msg, " ", args))
}

func (l *captureLogger) Debug(msg string, args ...any) { l.log("DEBUG", msg, args...) }
func (l *captureLogger) Info(msg string, args ...any)  { l.log("INFO", msg, args...) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.log("WARN", msg, args...) }
func (l *captureLogger) Error(msg string, args ...any) { l.log("ERROR", msg, args...) }

func TestSlogLogger(t *testing.T) {
	t.Run("nil falls back to default", func(t *testing.T) {
		assert.Same(t, slog.Default(), SlogLogger(nil))
	})

	t.Run("slog logger is used directly", func(t *testing.T) {
		l := slog.New(slog.NewTextHandler(nil, nil))
		assert.Same(t, l, SlogLogger(l))
	})

	t.Run("adapts a custom logger", func(t *testing.T) {
		capture := &captureLogger{}
		l := SlogLogger(capture).With("component", "lookup").WithGroup("req")

		l.Info("served", "id", "1")
		l.Warn("gated")
		l.Error("boom")
		l.Debug("trace")

		assert.Equal(t, []string{
			"INFO served [component lookup req.id 1]",
			"WARN gated [component lookup]",
			"ERROR boom [component lookup]",
			"DEBUG trace [component lookup]",
		}, capture.lines)
	})
}

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
)

// Logf is the subset of testing.TB used by TestLogger.
type Logf interface {
	Helper()
	Logf(format string, args ...any)
}

// TestLogger returns a text logger that writes each record through tb.Logf,
// so output is attributed to the running test.
func TestLogger(tb Logf, level Level) *slog.Logger {
	w := &tbWriter{tb: tb}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

type tbWriter struct {
	mu sync.Mutex
	tb Logf
}

func (w *tbWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tb.Helper()
	for _, line := range strings.Split(string(bytes.TrimRight(p, "\n")), "\n") {
		w.tb.Logf("%s", line)
	}
	return len(p), nil
}

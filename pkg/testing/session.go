package testing

import (
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/getmockd/interaptor/internal/matching"
	"github.com/getmockd/interaptor/pkg/config"
	"github.com/getmockd/interaptor/pkg/intercept"
	"github.com/getmockd/interaptor/pkg/logging"
	"github.com/getmockd/interaptor/pkg/requestlog"
	"github.com/getmockd/interaptor/pkg/transport"
)

// Session is one test's interception session: a Registry bound to a private
// interceptor and torn down when the test ends.
type Session struct {
	t        testing.TB
	registry *intercept.Registry
	it       *transport.Interceptor
	journal  *requestlog.MemoryStore
}

type options struct {
	fallback http.RoundTripper
	global   bool
	level    logging.Level
	logger   *slog.Logger
}

// Option configures a Session.
type Option func(*options)

// WithFallback sets the transport bypassed requests are sent to.
func WithFallback(rt http.RoundTripper) Option {
	return func(o *options) { o.fallback = rt }
}

// WithGlobal also intercepts http.DefaultClient and http.Get while the
// session is active. Tests using it must not run in parallel.
func WithGlobal() Option {
	return func(o *options) { o.global = true }
}

// WithLogLevel sets the level of the session log written through t.Log.
// The default is warn.
func WithLogLevel(level logging.Level) Option {
	return func(o *options) { o.level = level }
}

// WithLogger sends session logs to logger in addition to t.Log.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New creates a session for t. It is torn down by t.Cleanup.
func New(t testing.TB, opts ...Option) *Session {
	t.Helper()

	o := options{level: logging.LevelWarn}
	for _, opt := range opts {
		opt(&o)
	}

	handler := logging.TestLogger(t, o.level).Handler()
	if o.logger != nil {
		handler = logging.Tee(handler, o.logger.Handler())
	}
	logger := slog.New(handler)

	it := transport.New(transport.Options{
		Fallback: o.fallback,
		Global:   o.global,
		Logger:   logging.Component(logger, "transport"),
	})
	journal := requestlog.NewMemoryStore(0)

	s := &Session{
		t:  t,
		it: it,
		registry: intercept.New(intercept.Options{
			Transport: it,
			Logger:    logger,
			Journal:   journal,
		}),
		journal: journal,
	}
	s.registry.Initialize()
	t.Cleanup(s.registry.Teardown)
	return s
}

// Client returns an http.Client whose requests go through the session.
func (s *Session) Client() *http.Client {
	return s.it.Client()
}

// Transport returns the session's http.RoundTripper, for code under test
// that takes one.
func (s *Session) Transport() http.RoundTripper {
	return s.it
}

// Registry returns the underlying registry.
func (s *Session) Registry() *intercept.Registry {
	return s.registry
}

// Intercept registers a rule for host.
func (s *Session) Intercept(host string) *intercept.Rule {
	return s.registry.Intercept(host)
}

// Load applies the rules of a fixture file, failing the test on error.
func (s *Session) Load(path string) []*intercept.Rule {
	s.t.Helper()

	f, err := config.Load(path)
	if err != nil {
		s.t.Fatalf("loading fixture %s: %v", path, err)
	}
	rules, err := f.Apply(s.registry)
	if err != nil {
		s.t.Fatalf("applying fixture %s: %v", path, err)
	}
	return rules
}

// Reset drops every rule and recorded request and starts a new session.
func (s *Session) Reset() {
	s.registry.Teardown()
	s.journal.Clear()
	s.registry.Initialize()
}

// Requests returns every request seen, oldest first, bypassed ones included.
func (s *Session) Requests() []RequestLog {
	entries := s.journal.List(nil)
	result := make([]RequestLog, len(entries))
	for i, e := range entries {
		result[i] = newRequestLog(e)
	}
	return result
}

// Intercepted returns the requests served by a rule, oldest first.
func (s *Session) Intercepted() []RequestLog {
	no := false
	entries := s.journal.List(&requestlog.Filter{Bypassed: &no})
	result := make([]RequestLog, len(entries))
	for i, e := range entries {
		result[i] = newRequestLog(e)
	}
	return result
}

// AssertCalled asserts that method and path were intercepted at least once.
// path may be a route template or a glob.
func (s *Session) AssertCalled(t testing.TB, method, path string) {
	t.Helper()

	if s.countCalls(method, path) == 0 {
		t.Errorf("expected %s %s to be called, but it was not called", method, path)
	}
}

// AssertCalledTimes asserts that method and path were intercepted exactly n times.
func (s *Session) AssertCalledTimes(t testing.TB, method, path string, times int) {
	t.Helper()

	count := s.countCalls(method, path)
	if count != times {
		t.Errorf("expected %s %s to be called %d times, but was called %d times",
			method, path, times, count)
	}
}

// AssertNotCalled asserts that method and path were never intercepted.
func (s *Session) AssertNotCalled(t testing.TB, method, path string) {
	t.Helper()

	count := s.countCalls(method, path)
	if count > 0 {
		t.Errorf("expected %s %s to not be called, but it was called %d times",
			method, path, count)
	}
}

// AssertDone asserts that every registered rule has been used up.
func (s *Session) AssertDone(t testing.TB) {
	t.Helper()

	pending := s.registry.Pending()
	if len(pending) == 0 {
		return
	}
	lines := make([]string, len(pending))
	for i, r := range pending {
		lines[i] = "  " + r.String()
	}
	t.Errorf("%d rule(s) not used up:\n%s", len(pending), strings.Join(lines, "\n"))
}

func (s *Session) countCalls(method, path string) int {
	no := false
	entries := s.journal.List(&requestlog.Filter{Method: method, Bypassed: &no})

	m, err := matching.Compile(path)
	if err != nil {
		m = matching.Nothing(path)
	}

	count := 0
	for _, e := range entries {
		if e.Path == path || m.Match(e.Path) {
			count++
		}
	}
	return count
}

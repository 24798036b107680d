package transport

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/getmockd/interaptor/pkg/logging"
)

// ErrResponseNotEnded is returned when a request handler returns without
// ending the response sink.
var ErrResponseNotEnded = errors.New("intercepted response was not ended")

// Conn is the connection-level handle passed to a ConnectHandler.
type Conn interface {
	// Bypass sends the request over the fallback transport instead of
	// intercepting it.
	Bypass()
	// Bypassed reports whether Bypass was called.
	Bypassed() bool
}

// ConnectHandler is notified before a request is intercepted.
type ConnectHandler func(conn Conn, req *Request)

// RequestHandler produces the response for an intercepted request.
// A non-nil error fails the round trip.
type RequestHandler func(req *Request, w ResponseSink) error

// RoundTripFunc adapts a function to http.RoundTripper.
type RoundTripFunc func(*http.Request) (*http.Response, error)

// RoundTrip calls f(req).
func (f RoundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Options configures an Interceptor.
type Options struct {
	// Fallback serves bypassed requests. Defaults to the http.DefaultTransport
	// in place when the Interceptor is created (or attached, for Global).
	Fallback http.RoundTripper
	// Global swaps http.DefaultTransport while handlers are attached.
	Global bool
	// Logger for interception events (nil = no logging).
	Logger *slog.Logger
}

// Interceptor is an http.RoundTripper emitting connection and request events.
type Interceptor struct {
	mu        sync.RWMutex
	onConnect ConnectHandler
	onRequest RequestHandler
	fallback  http.RoundTripper
	global    bool
	previous  http.RoundTripper
	log       *slog.Logger
}

// New creates a detached Interceptor.
func New(opts Options) *Interceptor {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	fallback := opts.Fallback
	if fallback == nil && !opts.Global {
		fallback = http.DefaultTransport
	}
	return &Interceptor{
		fallback: fallback,
		global:   opts.Global,
		log:      log,
	}
}

// Attach installs the event handlers, replacing any previous ones.
func (i *Interceptor) Attach(onConnect ConnectHandler, onRequest RequestHandler) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.onConnect = onConnect
	i.onRequest = onRequest

	if i.global && i.previous == nil && http.DefaultTransport != http.RoundTripper(i) {
		i.previous = http.DefaultTransport
		if i.fallback == nil {
			i.fallback = i.previous
		}
		http.DefaultTransport = i
	}
	i.log.Debug("interceptor attached", "global", i.global)
}

// Detach removes the event handlers. Requests already being handled finish
// with the handlers they started with.
func (i *Interceptor) Detach() {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.onConnect = nil
	i.onRequest = nil

	if i.previous != nil {
		if http.DefaultTransport == http.RoundTripper(i) {
			http.DefaultTransport = i.previous
		}
		i.previous = nil
	}
	i.log.Debug("interceptor detached")
}

// Attached reports whether handlers are installed.
func (i *Interceptor) Attached() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.onRequest != nil
}

// Client returns an http.Client using the Interceptor.
func (i *Interceptor) Client() *http.Client {
	return &http.Client{Transport: i}
}

// RoundTrip implements http.RoundTripper.
func (i *Interceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	i.mu.RLock()
	onConnect, onRequest, fallback := i.onConnect, i.onRequest, i.fallback
	i.mu.RUnlock()

	if onRequest == nil {
		return i.forward(fallback, req)
	}

	desc := FromHTTP(req)

	conn := &connection{}
	if onConnect != nil {
		onConnect(conn, desc)
	}
	if conn.Bypassed() {
		i.log.Debug("request bypassed", "method", desc.Method, "host", desc.Host, "path", desc.Path)
		return i.forward(fallback, req)
	}

	defer func() { _ = desc.Body.Close() }()

	rec := NewRecorder()
	if err := onRequest(desc, rec); err != nil {
		return nil, fmt.Errorf("intercept %s %s: %w", desc.Method, req.URL, err)
	}
	if !rec.Ended() {
		return nil, fmt.Errorf("intercept %s %s: %w", desc.Method, req.URL, ErrResponseNotEnded)
	}
	return rec.Result(req), nil
}

func (i *Interceptor) forward(fallback http.RoundTripper, req *http.Request) (*http.Response, error) {
	if fallback == nil || fallback == http.RoundTripper(i) {
		fallback = http.DefaultTransport
		if fallback == http.RoundTripper(i) {
			return nil, errors.New("intercept: no fallback transport")
		}
	}
	return fallback.RoundTrip(req)
}

type connection struct {
	bypassed atomic.Bool
}

func (c *connection) Bypass()        { c.bypassed.Store(true) }
func (c *connection) Bypassed() bool { return c.bypassed.Load() }

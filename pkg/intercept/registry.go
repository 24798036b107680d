package intercept

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/getmockd/interaptor/internal/matching"
	"github.com/getmockd/interaptor/pkg/logging"
	"github.com/getmockd/interaptor/pkg/requestlog"
	"github.com/getmockd/interaptor/pkg/transport"
)

// Collaborator is the transport that delivers interception events.
// *transport.Interceptor implements it.
type Collaborator interface {
	Attach(onConnect transport.ConnectHandler, onRequest transport.RequestHandler)
	Detach()
}

// Options configures a Registry.
type Options struct {
	// Transport delivers connection and request events. Defaults to a new
	// non-global transport.Interceptor; use Registry.Client to reach it.
	Transport Collaborator

	// Logger for registry events (nil = no logging).
	Logger *slog.Logger

	// Journal records every request seen. Defaults to an in-memory store.
	Journal requestlog.Store
}

// Registry holds the rules of one interception session and answers the
// transport's connection and request events.
//
// Its lifecycle is explicit: the first Register (or Initialize) attaches it
// to the transport, Teardown detaches it and drops all rules.
type Registry struct {
	mu        sync.Mutex
	rules     []*Rule // replaced, never mutated in place
	active    bool
	transport Collaborator
	log       *slog.Logger
	journal   requestlog.Store
}

// New creates an inactive Registry.
func New(opts Options) *Registry {
	log := logging.Component(opts.Logger, "intercept")

	tr := opts.Transport
	if tr == nil {
		tr = transport.New(transport.Options{Logger: logging.Component(opts.Logger, "transport")})
	}

	journal := opts.Journal
	if journal == nil {
		journal = requestlog.NewMemoryStore(0)
	}

	return &Registry{
		transport: tr,
		log:       log,
		journal:   journal,
	}
}

// Initialize attaches the registry to its transport. It does nothing while
// the registry is already active.
func (r *Registry) Initialize() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		return
	}
	r.rules = nil
	r.transport.Attach(r.OnConnection, r.OnRequest)
	r.active = true
	r.log.Debug("interception session started")
}

// Register creates an armed rule for host ("" matches any host), appends it
// after the existing rules and returns it for configuration.
func (r *Registry) Register(host string) *Rule {
	r.Initialize()

	rule := newRule(r, host)

	r.mu.Lock()
	r.rules = append(slices.Clip(r.rules), rule)
	r.mu.Unlock()

	rule.log.Debug("rule registered", "host", host)
	return rule
}

// Intercept is Register.
func (r *Registry) Intercept(host string) *Rule {
	return r.Register(host)
}

// FindMatch returns the earliest registered rule whose method, host and
// path constraints are absent or satisfied by req and that has a use left.
// It returns nil when the request should not be intercepted.
func (r *Registry) FindMatch(req *transport.Request) *Rule {
	t := target(req)
	for _, rule := range r.snapshot() {
		if rule.matches(t) && rule.available() {
			return rule
		}
	}
	return nil
}

// OnConnection bypasses interception for requests no rule cares about.
func (r *Registry) OnConnection(conn transport.Conn, req *transport.Request) {
	if r.FindMatch(req) != nil {
		return
	}
	conn.Bypass()
	r.log.Debug("request bypassed", "method", req.Method, "host", req.Host, "path", req.Path)
	r.journal.Log(&requestlog.Entry{
		Method:      req.Method,
		Host:        req.Host,
		Path:        matching.Normalize(req.Path),
		QueryString: rawQuery(req),
		Headers:     req.Header.Clone(),
		Bypassed:    true,
	})
}

// OnRequest serves req with the first matching rule that still has a use.
// A request no rule can serve should have been bypassed; it fails with
// ErrUnmatchedRequest.
func (r *Registry) OnRequest(req *transport.Request, w transport.ResponseSink) error {
	start := time.Now()
	t := target(req)

	for _, rule := range r.snapshot() {
		if !rule.matches(t) || !rule.claim() {
			continue
		}
		rule.log.Debug("request intercepted", "method", req.Method, "host", req.Host, "path", req.Path)

		served, err := rule.serve(req, w)
		r.record(req, rule, served, w, time.Since(start), err)
		if err != nil {
			rule.log.Debug("rule raised failure", "error", err)
		}
		return err
	}

	err := fmt.Errorf("%w: %s %s%s", ErrUnmatchedRequest, req.Method, req.Host, req.Path)
	r.log.Error("request reached registry without a rule", "method", req.Method, "host", req.Host, "path", req.Path)
	r.record(req, nil, nil, w, time.Since(start), err)
	return err
}

// Teardown detaches the registry from its transport and drops all rules.
// Dropped rules are abandoned, not disabled.
func (r *Registry) Teardown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = nil
	if !r.active {
		return
	}
	r.transport.Detach()
	r.active = false
	r.log.Debug("interception session ended")
}

// Active reports whether the registry is attached to its transport.
func (r *Registry) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Rules returns the registered rules in registration order.
func (r *Registry) Rules() []*Rule {
	return slices.Clone(r.snapshot())
}

// Pending returns the rules that have not been used up.
func (r *Registry) Pending() []*Rule {
	var pending []*Rule
	for _, rule := range r.snapshot() {
		if !rule.Retired() {
			pending = append(pending, rule)
		}
	}
	return pending
}

// Done reports whether every registered rule has been used up.
func (r *Registry) Done() bool {
	return len(r.Pending()) == 0
}

// Journal returns the store recording the requests seen by the registry.
func (r *Registry) Journal() requestlog.Store {
	return r.journal
}

// Transport returns the collaborator the registry attaches to.
func (r *Registry) Transport() Collaborator {
	return r.transport
}

// Client returns an http.Client whose requests go through the registry's
// transport when it is an http.RoundTripper, or http.DefaultClient.
func (r *Registry) Client() *http.Client {
	if rt, ok := r.transport.(http.RoundTripper); ok {
		return &http.Client{Transport: rt}
	}
	return http.DefaultClient
}

func (r *Registry) snapshot() []*Rule {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rules
}

func (r *Registry) remove(rule *Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !slices.Contains(r.rules, rule) {
		return
	}
	r.rules = slices.DeleteFunc(slices.Clone(r.rules), func(x *Rule) bool { return x == rule })
}

func (r *Registry) record(req *transport.Request, rule *Rule, served *Request, w transport.ResponseSink, d time.Duration, err error) {
	entry := &requestlog.Entry{
		Method:      req.Method,
		Host:        req.Host,
		Path:        matching.Normalize(req.Path),
		QueryString: rawQuery(req),
		Headers:     req.Header.Clone(),
		Duration:    d,
	}
	if rule != nil {
		entry.RuleID = rule.ID()
	}
	if served != nil {
		entry.Body = requestlog.Truncate(served.Body)
		entry.BodySize = len(served.Body)
	}
	if rec, ok := w.(*transport.Recorder); ok && rec.Ended() {
		entry.ResponseStatus = rec.Status()
		entry.ResponseBody = requestlog.Truncate(rec.Body())
	}
	if err != nil {
		entry.Error = err.Error()
	}
	r.journal.Log(entry)
}

func target(req *transport.Request) matching.Target {
	return matching.Target{
		Method: req.Method,
		Host:   req.Host,
		Path:   matching.Normalize(req.Path),
	}
}

func rawQuery(req *transport.Request) string {
	if req.URL == nil {
		return ""
	}
	return req.URL.RawQuery
}

package intercept

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/getmockd/interaptor/internal/id"
	"github.com/getmockd/interaptor/internal/matching"
)

// RuleState is the lifecycle state of a Rule.
type RuleState int

// Rule states. A rule cycles Armed → BodyPending → Asserting → Responding
// for each request it serves and ends Retired.
const (
	Armed RuleState = iota
	BodyPending
	Asserting
	Responding
	Retired
)

func (s RuleState) String() string {
	switch s {
	case Armed:
		return "armed"
	case BodyPending:
		return "body-pending"
	case Asserting:
		return "asserting"
	case Responding:
		return "responding"
	case Retired:
		return "retired"
	default:
		return fmt.Sprintf("RuleState(%d)", int(s))
	}
}

type headerPair struct {
	name, value string
}

// setHeader overwrites an existing name (case-insensitively) in place so
// configuration order is kept.
func setHeader(pairs []headerPair, name, value string) []headerPair {
	for i := range pairs {
		if strings.EqualFold(pairs[i].name, name) {
			pairs[i] = headerPair{name, value}
			return pairs
		}
	}
	return append(pairs, headerPair{name, value})
}

type response struct {
	headers   []headerPair
	status    int
	body      *string
	responder Responder
}

type assertions struct {
	headers    []headerPair
	status     int
	body       *string
	custom     Assertion
	jsonPaths  []*matching.JSONPath
	schema     *matching.Schema
	conditions []*matching.Condition
}

// Rule is one registered interception: what to match, how to respond, what
// to expect, and how many times. Configure it fluently right after
// registration:
//
//	registry.Intercept("example.org").
//		Get("/users/:id").
//		Set(intercept.Status(200)).
//		Set(intercept.JSON(user)).
//		Times(2)
//
// A Rule is safe for concurrent use.
type Rule struct {
	mu        sync.Mutex
	registry  *Registry
	id        string
	host      string
	method    string
	path      matching.PathMatcher
	remaining int
	inflight  int
	response  response
	expect    assertions
	errs      errorChannel
	state     RuleState
	err       error
	log       *slog.Logger
}

func newRule(registry *Registry, host string) *Rule {
	ruleID := id.Rule()
	return &Rule{
		registry:  registry,
		id:        ruleID,
		host:      host,
		remaining: 1,
		response:  response{status: 200},
		state:     Armed,
		log:       registry.log.With("rule", ruleID),
	}
}

// setError records the first configuration error (first error wins).
// Caller holds r.mu.
func (r *Rule) setError(err error) {
	if r.err == nil {
		r.err = err
	}
	r.log.Warn("invalid rule configuration", "error", err)
}

// Err returns the first configuration error recorded on the rule.
func (r *Rule) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Method sets the HTTP method and path the rule matches. path may be a
// string (literal, route template such as /users/:id, or glob such as
// /files/**), a *regexp.Regexp, a matching.PathMatcher, or nil for any path.
// An invalid path is recorded as a configuration error and the rule never
// matches.
func (r *Rule) Method(verb string, path any) *Rule {
	matcher, err := compilePath(path)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == Retired {
		return r
	}
	r.method = strings.ToLower(verb)
	r.path = matcher
	if err != nil {
		r.setError(err)
	}
	return r
}

func compilePath(path any) (matching.PathMatcher, error) {
	switch p := path.(type) {
	case nil:
		return nil, nil
	case string:
		m, err := matching.Compile(p)
		if err != nil {
			return matching.Nothing(p), err
		}
		return m, nil
	case *regexp.Regexp:
		if p == nil {
			return nil, nil
		}
		return matching.Pattern(p), nil
	case matching.PathMatcher:
		return p, nil
	default:
		spec := fmt.Sprint(path)
		return matching.Nothing(spec), fmt.Errorf("%w: unsupported path type %T", matching.ErrInvalidPath, path)
	}
}

// Set configures the response: Header adds a header (later values for the
// same name overwrite), Status sets the status code, Text and JSON set the
// body, Respond installs a custom responder.
func (r *Rule) Set(v Value) *Rule {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == Retired {
		return r
	}
	if v.err != nil {
		r.setError(v.err)
		return r
	}

	switch v.kind {
	case kindHeader:
		r.response.headers = setHeader(r.response.headers, v.name, v.text)
	case kindStatus:
		r.response.status = v.status
	case kindBody:
		body := v.text
		r.response.body = &body
	case kindResponder:
		r.response.responder = v.responder
	default:
		r.setError(fmt.Errorf("%w: Set does not accept a %s", ErrInvalidValue, v.kind))
	}
	return r
}

// Expect configures assertions on matching requests: Header expects a
// request header value, Text and JSON expect the exact body, Check runs a
// custom assertion, JSONPath, Schema and Condition inspect the body and
// request. Status records the expected status; it is not enforced.
func (r *Rule) Expect(v Value) *Rule {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == Retired {
		return r
	}
	if v.err != nil {
		r.setError(v.err)
		return r
	}

	switch v.kind {
	case kindHeader:
		r.expect.headers = setHeader(r.expect.headers, v.name, v.text)
	case kindStatus:
		r.expect.status = v.status
	case kindBody:
		body := v.text
		r.expect.body = &body
	case kindAssertion:
		r.expect.custom = v.assertion
	case kindJSONPath:
		r.expect.jsonPaths = append(r.expect.jsonPaths, v.jsonPath)
	case kindSchema:
		r.expect.schema = v.schema
	case kindCondition:
		r.expect.conditions = append(r.expect.conditions, v.condition)
	default:
		r.setError(fmt.Errorf("%w: Expect does not accept a %s", ErrInvalidValue, v.kind))
	}
	return r
}

// Times sets how many requests the rule serves before it retires.
func (r *Rule) Times(n int) *Rule {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == Retired {
		return r
	}
	if n < 1 {
		r.setError(fmt.Errorf("%w: times must be at least 1, got %d", ErrInvalidValue, n))
		return r
	}
	r.remaining = n
	return r
}

// Once is Times(1), the default.
func (r *Rule) Once() *Rule {
	return r.Times(1)
}

// OnError attaches a failure observer. While at least one observer is
// attached, assertion and body-read failures are delivered to the observers
// asynchronously instead of failing the request.
func (r *Rule) OnError(fn func(error)) *Rule {
	if fn == nil {
		return r
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Retired {
		r.errs.observe(fn)
	}
	return r
}

// Disable removes the rule from its registry and clears its configuration.
// It is irreversible; later calls do nothing.
func (r *Rule) Disable() {
	r.mu.Lock()
	registry := r.registry
	r.registry = nil
	r.host = ""
	r.method = ""
	r.path = nil
	r.remaining = 0
	r.response = response{}
	r.expect = assertions{}
	r.errs = errorChannel{}
	if r.state != Retired {
		r.state = Retired
		r.log.Debug("rule retired")
	}
	r.mu.Unlock()

	if registry != nil {
		registry.remove(r)
	}
}

// ID returns the rule identifier.
func (r *Rule) ID() string { return r.id }

// Host returns the host the rule matches, or "" for any host.
func (r *Rule) Host() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.host
}

// Remaining returns the number of requests the rule will still serve.
func (r *Rule) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining
}

// State returns the current lifecycle state.
func (r *Rule) State() RuleState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Retired reports whether the rule has been used up or disabled.
func (r *Rule) Retired() bool {
	return r.State() == Retired
}

// String describes the rule for logs and test output.
func (r *Rule) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	method, host, path := "*", "*", "*"
	if r.method != "" {
		method = strings.ToUpper(r.method)
	}
	if r.host != "" {
		host = r.host
	}
	if r.path != nil {
		path = r.path.String()
	}
	return fmt.Sprintf("%s %s %s %s", r.id, method, host, path)
}

func (r *Rule) matches(t matching.Target) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == Retired {
		return false
	}
	c := matching.Criteria{Method: r.method, Host: r.host, Path: r.path}
	return c.Matches(t)
}

// available reports whether a use is left that no request has claimed.
func (r *Rule) available() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state != Retired && r.remaining-r.inflight > 0
}

// claim reserves one use for a request.
func (r *Rule) claim() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == Retired || r.remaining-r.inflight <= 0 {
		return false
	}
	r.inflight++
	return true
}

// release gives back a claimed use that was not completed.
func (r *Rule) release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inflight > 0 {
		r.inflight--
	}
	if r.state != Retired {
		r.state = Armed
	}
}

// complete consumes a claimed use and retires the rule at zero.
func (r *Rule) complete() {
	r.mu.Lock()
	if r.inflight > 0 {
		r.inflight--
	}
	if r.state == Retired {
		r.mu.Unlock()
		return
	}
	r.remaining--
	exhausted := r.remaining <= 0
	if !exhausted {
		r.state = Armed
	}
	r.mu.Unlock()

	if exhausted {
		r.Disable()
	}
}

func (r *Rule) transition(s RuleState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Retired {
		r.state = s
	}
}

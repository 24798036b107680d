package intercept

import (
	"fmt"
	"io"
	"net/http"

	"github.com/getmockd/interaptor/internal/matching"
	"github.com/getmockd/interaptor/pkg/transport"
)

// plan is the configuration a request is served with, copied when the
// request claims the rule so a concurrent Disable cannot change it midway.
type plan struct {
	id       string
	path     matching.PathMatcher
	response response
	expect   assertions
	errs     errorChannel
}

func (r *Rule) plan() plan {
	r.mu.Lock()
	defer r.mu.Unlock()
	return plan{
		id:   r.id,
		path: r.path,
		response: response{
			headers:   append([]headerPair(nil), r.response.headers...),
			status:    r.response.status,
			body:      r.response.body,
			responder: r.response.responder,
		},
		expect: assertions{
			headers:    append([]headerPair(nil), r.expect.headers...),
			status:     r.expect.status,
			body:       r.expect.body,
			custom:     r.expect.custom,
			jsonPaths:  append([]*matching.JSONPath(nil), r.expect.jsonPaths...),
			schema:     r.expect.schema,
			conditions: append([]*matching.Condition(nil), r.expect.conditions...),
		},
		errs: r.errs.snapshot(),
	}
}

// serve runs the pipeline for a request that has claimed the rule:
// buffer the body, assert, respond, then consume the use. The returned
// Request is nil when the body could not be read.
func (r *Rule) serve(raw *transport.Request, w transport.ResponseSink) (*Request, error) {
	p := r.plan()

	r.transition(BodyPending)
	body, err := io.ReadAll(raw.Body)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrBodyRead, err)
		_ = p.errs.report(err)
		r.release()
		return nil, err
	}
	req := newRequest(raw, body, p.path)

	r.transition(Asserting)
	failure := p.assert(req)

	r.transition(Responding)
	if err := p.respond(req, w); err != nil && failure == nil {
		failure = err
	}

	r.complete()
	return req, failure
}

// assert runs every configured expectation. With no observers the first
// failure is returned and the remaining expectations are skipped.
func (p plan) assert(req *Request) error {
	for _, h := range p.expect.headers {
		actual, ok := matching.HeaderValue(req.Header, h.name)
		if !ok {
			actual = "<missing>"
		}
		if !ok || actual != h.value {
			if err := p.errs.report(assertionf(p.id, "Got %s, expected %s in %s header", actual, h.value, h.name)); err != nil {
				return err
			}
		}
	}

	if p.expect.body != nil && req.Body != *p.expect.body {
		if err := p.errs.report(assertionf(p.id, "Got %s, expected %s in request body", req.Body, *p.expect.body)); err != nil {
			return err
		}
	}

	for _, jp := range p.expect.jsonPaths {
		if err := jp.Check([]byte(req.Body)); err != nil {
			if raised := p.errs.report(&AssertionError{Rule: p.id, Message: err.Error()}); raised != nil {
				return raised
			}
		}
	}

	if p.expect.schema != nil {
		if err := p.expect.schema.Validate([]byte(req.Body)); err != nil {
			if raised := p.errs.report(&AssertionError{Rule: p.id, Message: err.Error()}); raised != nil {
				return raised
			}
		}
	}

	if len(p.expect.conditions) > 0 {
		env := req.conditionEnv()
		for _, c := range p.expect.conditions {
			if err := c.Check(env); err != nil {
				if raised := p.errs.report(&AssertionError{Rule: p.id, Message: err.Error()}); raised != nil {
					return raised
				}
			}
		}
	}

	if p.expect.custom != nil {
		if err := p.errs.report(runAssertion(p.expect.custom, req)); err != nil {
			return err
		}
	}
	return nil
}

func runAssertion(fn Assertion, req *Request) (err error) {
	defer func() {
		if v := recover(); v != nil {
			if e, ok := v.(error); ok {
				err = e
				return
			}
			err = fmt.Errorf("assertion panicked: %v", v)
		}
	}()
	return fn(req)
}

// respond writes headers and status, runs the custom responder, then ends
// the response with the configured body. A responder panic is reported like
// an assertion failure; the response is still ended.
func (p plan) respond(req *Request, w transport.ResponseSink) error {
	for _, h := range p.response.headers {
		w.Header().Set(h.name, h.value)
	}
	status := p.response.status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	var failure error
	if p.response.responder != nil {
		failure = p.errs.report(runResponder(p.response.responder, req, w))
	}

	body := ""
	if p.response.body != nil {
		body = *p.response.body
	}
	w.End(body)
	return failure
}

func runResponder(fn Responder, req *Request, w transport.ResponseSink) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("responder panicked: %v", v)
		}
	}()
	fn(req, w)
	return nil
}

package intercept

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Sentinel errors.
var (
	// ErrUnmatchedRequest is returned by OnRequest when a request reaches
	// the registry that no rule can serve.
	ErrUnmatchedRequest = errors.New("no rule matches intercepted request")

	// ErrInvalidValue is recorded on a rule configured with a bad Value.
	ErrInvalidValue = errors.New("invalid rule value")

	// ErrBodyRead wraps failures reading an intercepted request body.
	ErrBodyRead = errors.New("failed to read request body")
)

// AssertionError is a failed expectation on an intercepted request.
type AssertionError struct {
	// Rule is the ID of the rule the expectation belongs to.
	Rule string
	// Message is the failure text, for example
	// "Got true, expected false in X-Test-Flag header".
	Message string
}

func (e *AssertionError) Error() string { return e.Message }

func assertionf(rule, format string, args ...any) *AssertionError {
	return &AssertionError{Rule: rule, Message: fmt.Sprintf(format, args...)}
}

// errorChannel routes pipeline failures. With no observers a failure is
// returned to the caller; otherwise it is delivered to the observers and
// dropped from the pipeline.
type errorChannel struct {
	observers []func(error)
	queue     *dispatchQueue
}

func (c *errorChannel) observe(fn func(error)) {
	if c.queue == nil {
		c.queue = &dispatchQueue{}
	}
	c.observers = append(c.observers, fn)
}

// snapshot copies the observer list. The copy shares the delivery queue, so
// failures from every request of a rule are delivered in report order.
func (c *errorChannel) snapshot() errorChannel {
	return errorChannel{observers: slices.Clone(c.observers), queue: c.queue}
}

// report returns err when nobody observes the channel. Otherwise it queues
// err for delivery to every observer, in attachment order, and returns nil.
// Queued failures are delivered one at a time in the order they were
// reported.
func (c errorChannel) report(err error) error {
	if err == nil {
		return nil
	}
	if len(c.observers) == 0 {
		return err
	}
	observers := c.observers
	c.queue.push(func() {
		for _, fn := range observers {
			fn(err)
		}
	})
	return nil
}

// dispatchQueue runs queued deliveries on a single goroutine that exists
// only while the queue is non-empty.
type dispatchQueue struct {
	mu      sync.Mutex
	pending []func()
	running bool
}

func (q *dispatchQueue) push(fn func()) {
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.mu.Unlock()

	go q.drain()
}

func (q *dispatchQueue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		fn := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		fn()
	}
}

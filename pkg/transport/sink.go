package transport

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
)

// ErrSinkClosed is returned when writing to a sink that has been ended.
var ErrSinkClosed = errors.New("response already ended")

// ResponseSink receives a simulated response.
//
// Unlike a server-side http.ResponseWriter, headers and status stay mutable
// until End, so they can be set in any order relative to body writes.
type ResponseSink interface {
	http.ResponseWriter
	// End appends body and closes the response. Later calls are no-ops.
	End(body string)
}

// Recorder is an in-memory ResponseSink.
type Recorder struct {
	mu     sync.Mutex
	header http.Header
	status int
	body   bytes.Buffer
	ended  bool
}

// NewRecorder returns a Recorder with status 200.
func NewRecorder() *Recorder {
	return &Recorder{
		header: make(http.Header),
		status: http.StatusOK,
	}
}

// Header returns the response header map.
func (r *Recorder) Header() http.Header {
	return r.header
}

// WriteHeader records the status code. Later calls overwrite earlier ones
// until the response is ended.
func (r *Recorder) WriteHeader(statusCode int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.ended {
		r.status = statusCode
	}
}

// Write appends p to the body.
func (r *Recorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ended {
		return 0, ErrSinkClosed
	}
	return r.body.Write(p)
}

// End appends body and closes the response.
func (r *Recorder) End(body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ended {
		return
	}
	r.body.WriteString(body)
	r.ended = true
}

// Ended reports whether End has been called.
func (r *Recorder) Ended() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ended
}

// Status returns the recorded status code.
func (r *Recorder) Status() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Body returns the recorded body.
func (r *Recorder) Body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.String()
}

// Result builds the *http.Response delivered to the client for req.
func (r *Recorder) Result(req *http.Request) *http.Response {
	r.mu.Lock()
	defer r.mu.Unlock()

	body := bytes.Clone(r.body.Bytes())
	header := r.header.Clone()
	if header.Get("Content-Length") == "" {
		header.Set("Content-Length", strconv.Itoa(len(body)))
	}

	var rc io.ReadCloser = http.NoBody
	if len(body) > 0 {
		rc = io.NopCloser(bytes.NewReader(body))
	}

	return &http.Response{
		Status:        fmt.Sprintf("%d %s", r.status, http.StatusText(r.status)),
		StatusCode:    r.status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          rc,
		ContentLength: int64(len(body)),
		Request:       req,
	}
}

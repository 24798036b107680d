package requestlog

// Logger is the minimal interface for logging request entries.
type Logger interface {
	Log(entry *Entry)
}

// Store defines the interface for request history storage.
// Store embeds Logger, so any Store implementation can be used where Logger is expected.
type Store interface {
	Logger

	// Get retrieves a log entry by ID.
	Get(id string) *Entry

	// List returns log entries in the order they were logged, optionally filtered.
	List(filter *Filter) []*Entry

	// Clear removes all log entries.
	Clear()

	// Count returns the number of log entries.
	Count() int
}

// Subscriber receives entries as they are logged.
type Subscriber chan *Entry

// Filter defines criteria for filtering request logs.
type Filter struct {
	// Method filters by HTTP method, ignoring case.
	Method string

	// Host filters by exact host.
	Host string

	// Path filters by path prefix.
	Path string

	// RuleID filters by the rule that served the request.
	RuleID string

	// Bypassed filters by bypass state.
	Bypassed *bool

	// StatusCode filters by response status code.
	StatusCode int

	// HasError filters by error presence.
	HasError *bool

	// Limit is the maximum number of entries to return.
	Limit int

	// Offset is the number of entries to skip.
	Offset int
}

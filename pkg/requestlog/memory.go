package requestlog

import (
	"strings"
	"sync"
	"time"

	"github.com/getmockd/interaptor/internal/id"
)

// DefaultCapacity is the number of entries a MemoryStore keeps by default.
const DefaultCapacity = 1000

// MemoryStore implements Store with a bounded in-memory buffer. The oldest
// entry is evicted when the buffer is full.
type MemoryStore struct {
	mu          sync.RWMutex
	entries     []*Entry
	maxEntries  int
	subscribers map[Subscriber]struct{}
	subMu       sync.RWMutex
}

// NewMemoryStore creates a MemoryStore with the given capacity.
func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = DefaultCapacity
	}
	return &MemoryStore{
		entries:     make([]*Entry, 0, min(maxEntries, 64)),
		maxEntries:  maxEntries,
		subscribers: make(map[Subscriber]struct{}),
	}
}

// Log records a request log entry.
func (s *MemoryStore) Log(entry *Entry) {
	if entry == nil {
		return
	}

	s.mu.Lock()
	if entry.ID == "" {
		entry.ID = id.Entry()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if len(s.entries) >= s.maxEntries {
		s.entries = s.entries[1:]
	}
	s.entries = append(s.entries, entry)
	s.mu.Unlock()

	s.subMu.RLock()
	for sub := range s.subscribers {
		select {
		case sub <- entry:
		default:
			// slow subscriber
		}
	}
	s.subMu.RUnlock()
}

// Get retrieves a log entry by ID.
func (s *MemoryStore) Get(id string) *Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, entry := range s.entries {
		if entry.ID == id {
			return entry
		}
	}
	return nil
}

// List returns log entries oldest first, optionally filtered.
func (s *MemoryStore) List(filter *Filter) []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		if filter != nil && !matchesFilter(entry, filter) {
			continue
		}
		result = append(result, entry)
	}

	if filter != nil {
		if filter.Offset > 0 {
			if filter.Offset >= len(result) {
				return []*Entry{}
			}
			result = result[filter.Offset:]
		}
		if filter.Limit > 0 && filter.Limit < len(result) {
			result = result[:filter.Limit]
		}
	}
	return result
}

// Clear removes all log entries.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = s.entries[:0]
}

// Count returns the number of log entries.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Subscribe returns a channel receiving new entries and a function that
// closes it. Entries are dropped for a subscriber whose buffer is full.
func (s *MemoryStore) Subscribe(buffer int) (Subscriber, func()) {
	if buffer <= 0 {
		buffer = 100
	}
	sub := make(Subscriber, buffer)

	s.subMu.Lock()
	s.subscribers[sub] = struct{}{}
	s.subMu.Unlock()

	var once sync.Once
	return sub, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers, sub)
			s.subMu.Unlock()
			close(sub)
		})
	}
}

func matchesFilter(entry *Entry, filter *Filter) bool {
	if filter.Method != "" && !strings.EqualFold(entry.Method, filter.Method) {
		return false
	}
	if filter.Host != "" && entry.Host != filter.Host {
		return false
	}
	if filter.Path != "" && !strings.HasPrefix(entry.Path, filter.Path) {
		return false
	}
	if filter.RuleID != "" && entry.RuleID != filter.RuleID {
		return false
	}
	if filter.Bypassed != nil && entry.Bypassed != *filter.Bypassed {
		return false
	}
	if filter.StatusCode != 0 && entry.ResponseStatus != filter.StatusCode {
		return false
	}
	if filter.HasError != nil && (entry.Error != "") != *filter.HasError {
		return false
	}
	return true
}

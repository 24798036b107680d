package requestlog

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_LogAssignsIDAndTimestamp(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(0)
	entry := &Entry{Method: "GET", Host: "example.org", Path: "/"}
	store.Log(entry)
	store.Log(nil)

	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.Timestamp.IsZero())
	assert.Equal(t, 1, store.Count())
	assert.Same(t, entry, store.Get(entry.ID))
	assert.Nil(t, store.Get("missing"))
}

func TestMemoryStore_KeepsExplicitID(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(0)
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	store.Log(&Entry{ID: "fixed", Timestamp: ts})

	got := store.Get("fixed")
	require.NotNil(t, got)
	assert.Equal(t, ts, got.Timestamp)
}

func TestMemoryStore_Eviction(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(3)
	for i := range 5 {
		store.Log(&Entry{ID: fmt.Sprintf("e%d", i)})
	}

	entries := store.List(nil)
	require.Len(t, entries, 3)
	assert.Equal(t, "e2", entries[0].ID)
	assert.Equal(t, "e4", entries[2].ID)
}

func TestMemoryStore_ListFilter(t *testing.T) {
	t.Parallel()

	yes, no := true, false
	store := NewMemoryStore(0)
	store.Log(&Entry{ID: "a", Method: "GET", Host: "example.org", Path: "/users/1", RuleID: "rule_1", ResponseStatus: 200})
	store.Log(&Entry{ID: "b", Method: "POST", Host: "example.org", Path: "/users", RuleID: "rule_2", ResponseStatus: 201})
	store.Log(&Entry{ID: "c", Method: "GET", Host: "other.org", Path: "/", Bypassed: true})
	store.Log(&Entry{ID: "d", Method: "GET", Host: "example.org", Path: "/users/2", RuleID: "rule_1", ResponseStatus: 200, Error: "boom"})

	tests := []struct {
		name   string
		filter *Filter
		want   []string
	}{
		{"nil", nil, []string{"a", "b", "c", "d"}},
		{"method case-insensitive", &Filter{Method: "get"}, []string{"a", "c", "d"}},
		{"host", &Filter{Host: "other.org"}, []string{"c"}},
		{"path prefix", &Filter{Path: "/users"}, []string{"a", "b", "d"}},
		{"rule", &Filter{RuleID: "rule_1"}, []string{"a", "d"}},
		{"bypassed", &Filter{Bypassed: &yes}, []string{"c"}},
		{"not bypassed", &Filter{Bypassed: &no}, []string{"a", "b", "d"}},
		{"status", &Filter{StatusCode: 201}, []string{"b"}},
		{"has error", &Filter{HasError: &yes}, []string{"d"}},
		{"offset", &Filter{Offset: 2}, []string{"c", "d"}},
		{"offset past end", &Filter{Offset: 10}, []string{}},
		{"limit", &Filter{Limit: 1, Method: "GET"}, []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := []string{}
			for _, e := range store.List(tt.filter) {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestMemoryStore_Clear(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(0)
	store.Log(&Entry{})
	store.Log(&Entry{})
	store.Clear()
	assert.Equal(t, 0, store.Count())
	assert.Empty(t, store.List(nil))
}

func TestMemoryStore_Subscribe(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(0)
	sub, cancel := store.Subscribe(1)

	store.Log(&Entry{ID: "first"})
	store.Log(&Entry{ID: "dropped"})

	got := <-sub
	assert.Equal(t, "first", got.ID)

	cancel()
	cancel()
	_, open := <-sub
	assert.False(t, open)

	store.Log(&Entry{ID: "after"})
	assert.Equal(t, 3, store.Count())
}

func TestMemoryStore_Concurrent(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(0)
	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			store.Log(&Entry{Method: "GET"})
			_ = store.List(&Filter{Method: "GET"})
		})
	}
	wg.Wait()
	assert.Equal(t, 50, store.Count())
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", Truncate("short"))
	long := strings.Repeat("x", MaxBodySize+10)
	assert.Len(t, Truncate(long), MaxBodySize)
}

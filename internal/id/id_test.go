package id

import (
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUUID_Format(t *testing.T) {
	id := UUID()

	uuidRegex := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
	assert.Regexp(t, uuidRegex, id)
	assert.True(t, IsValid(id))
}

func TestShort_Format(t *testing.T) {
	s := Short()
	assert.Len(t, s, 16)
	assert.Regexp(t, `^[0-9a-f]{16}$`, s)
}

func TestRule_Prefix(t *testing.T) {
	r := Rule()
	assert.True(t, strings.HasPrefix(r, "rule_"), "got %q", r)
	assert.Len(t, r, len("rule_")+16)
}

func TestIsValid(t *testing.T) {
	assert.False(t, IsValid(""))
	assert.False(t, IsValid("not-a-uuid"))
	assert.True(t, IsValid(Entry()))
}

func TestUUID_ConcurrentUniqueness(t *testing.T) {
	const goroutines = 8
	const perG = 200

	var mu sync.Mutex
	seen := make(map[string]bool, goroutines*perG)
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perG; i++ {
				v := UUID()
				mu.Lock()
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, goroutines*perG)
}

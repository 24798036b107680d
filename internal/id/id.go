// Package id provides unique identifier generation utilities.
package id

import (
	"strings"

	"github.com/google/uuid"
)

// UUID generates a random UUID v4 string.
func UUID() string {
	return uuid.NewString()
}

// Short generates a short random hex ID (16 characters).
func Short() string {
	u := uuid.New()
	return strings.ReplaceAll(u.String(), "-", "")[:16]
}

// Rule generates an identifier for an interception rule.
func Rule() string {
	return "rule_" + Short()
}

// Entry generates an identifier for a request journal entry.
func Entry() string {
	return UUID()
}

// IsValid reports whether s is a UUID string.
func IsValid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

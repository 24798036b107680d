// Package id provides identifier generation for rules and journal entries.
//
// Rule IDs are UUID v4 strings so they can be correlated across the request
// journal and log output. Short IDs are 16-character hex strings meant for
// human-facing output such as test failure messages.
package id

// Package logging provides structured logging configuration for interaptor.
//
// This package wraps log/slog so the registry, the transport and the test
// helpers log the same way. Every component accepts a *slog.Logger; when
// none is given it uses Nop.
//
// # Usage
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelDebug,
//	    Format: logging.FormatText,
//	})
//
//	logger.Debug("rule matched", "rule", id, "path", path)
//
// Inside tests, TestLogger routes records to t.Logf, and Tee fans one record
// out to several handlers:
//
//	h := logging.Tee(logging.TestLogger(t, logging.LevelDebug).Handler(), other)
//	logger := slog.New(h)
package logging

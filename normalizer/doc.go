// Package normalizer is the only place raw provider record shapes are
// touched. It narrows arbitrary map records into strict telemetry samples
// using configured alias-key lists, and resolves the timestamp encodings the
// providers use (epoch seconds, epoch milliseconds, free-text dates).
package normalizer

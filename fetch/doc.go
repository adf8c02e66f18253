// Package fetch retrieves raw payloads from unreliable upstream endpoints.
// The orchestrator implements retry-through-fallback-endpoint semantics and
// the scheduler enforces at-most-one-in-flight periodic polling per source.
package fetch

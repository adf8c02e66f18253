package fetch

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"context"

	log "github.com/sirupsen/logrus"

	"github.com/theoremus-urban-solutions/fleet-telemetry/config"
)

// Attempt records one endpoint try within a single fetch. Attempts are
// transient diagnostics; they are never persisted.
type Attempt struct {
	URL     string
	Err     error
	Latency time.Duration
}

// ExhaustedError reports that every candidate endpoint (primary plus
// fallbacks) failed. The most recent underlying cause is preserved for
// diagnosability and available through errors.Unwrap.
type ExhaustedError struct {
	Attempts []Attempt
	last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all %d endpoints failed, last error: %v", len(e.Attempts), e.last)
}

func (e *ExhaustedError) Unwrap() error { return e.last }

// Orchestrator fetches upstream payloads with retry-through-fallback
// semantics. Several municipal providers sit behind unreliable or
// CORS-restricted gateways, so each configured fallback template (typically a
// proxy wrapper) is applied to the original URL in order until one candidate
// yields a decodable payload.
type Orchestrator struct {
	client    *http.Client
	fallbacks []string
}

// NewOrchestrator creates an orchestrator with the given fallback templates.
// Each template must contain a {url} or {urlenc} placeholder; a template
// without one is a configuration error.
func NewOrchestrator(timeout time.Duration, fallbacks []string) (*Orchestrator, error) {
	for _, tmpl := range fallbacks {
		if !strings.Contains(tmpl, config.URLPlaceholder) && !strings.Contains(tmpl, config.EscapedURLPlaceholder) {
			return nil, &config.ConfigurationError{Msg: fmt.Sprintf("fallback template %q has no URL placeholder", tmpl)}
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Orchestrator{
		client:    &http.Client{Timeout: timeout},
		fallbacks: append([]string(nil), fallbacks...),
	}, nil
}

// Candidates returns the endpoints a fetch will try, in order: the primary
// URL first, then each fallback template applied to it.
func (o *Orchestrator) Candidates(rawURL string) []string {
	out := make([]string, 0, 1+len(o.fallbacks))
	out = append(out, rawURL)
	for _, tmpl := range o.fallbacks {
		ep := strings.ReplaceAll(tmpl, config.URLPlaceholder, rawURL)
		ep = strings.ReplaceAll(ep, config.EscapedURLPlaceholder, url.QueryEscape(rawURL))
		out = append(out, ep)
	}
	return out
}

// FetchRecords fetches the URL and decodes the payload into raw records,
// advancing through the fallback endpoints on any failure: network error,
// non-2xx status, or an undecodable body. If every candidate fails the
// returned error is an *ExhaustedError carrying the last cause. Cancelling
// the context aborts the in-flight attempt and returns the context error.
func (o *Orchestrator) FetchRecords(ctx context.Context, rawURL string, format string) ([]map[string]any, error) {
	var attempts []Attempt
	var lastErr error
	for _, endpoint := range o.Candidates(rawURL) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		start := time.Now()
		records, err := o.fetchOne(ctx, endpoint, format)
		attempts = append(attempts, Attempt{URL: endpoint, Err: err, Latency: time.Since(start)})
		if err == nil {
			return records, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		log.WithFields(log.Fields{"endpoint": endpoint, "latency": time.Since(start)}).
			Debugf("fetch attempt failed: %v", err)
	}
	return nil, &ExhaustedError{Attempts: attempts, last: lastErr}
}

func (o *Orchestrator) fetchOne(ctx context.Context, endpoint string, format string) ([]map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", endpoint, err)
	}
	req.Header.Set("Accept", "*/*")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, endpoint)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body from %s: %w", endpoint, err)
	}
	return DecodeRecords(body, format)
}

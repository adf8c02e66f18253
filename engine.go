package fleettelemetry

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/theoremus-urban-solutions/fleet-telemetry/config"
	"github.com/theoremus-urban-solutions/fleet-telemetry/fetch"
	"github.com/theoremus-urban-solutions/fleet-telemetry/identity"
	"github.com/theoremus-urban-solutions/fleet-telemetry/normalizer"
	"github.com/theoremus-urban-solutions/fleet-telemetry/telemetry"
	"github.com/theoremus-urban-solutions/fleet-telemetry/track"
)

// LiveVehicle is one entry of the live roster snapshot. Label carries the
// identifier as the source reported it; the canonical map key is for
// correlation only and must not be displayed.
type LiveVehicle struct {
	Label  string                  `json:"label"`
	Sample telemetry.VehicleSample `json:"sample"`
	Status telemetry.VehicleStatus `json:"status"`
	Stale  bool                    `json:"stale"`
	Source string                  `json:"source"`
}

// SourceStats is the per-source observability counter set.
type SourceStats struct {
	Polls            uint64 `json:"polls"`
	Failures         uint64 `json:"failures"`
	RejectedRecords  uint64 `json:"rejectedRecords"`
	LastSuccessEpoch int64  `json:"lastSuccessEpoch"`
}

// rosterEntry is the last known sample for one vehicle. Entries are replaced
// whole; fields are never merged.
type rosterEntry struct {
	sample     telemetry.VehicleSample
	receivedAt time.Time
	idleSince  time.Time
	source     string
}

// Engine ingests the configured sources, maintains the live roster, and
// answers snapshot, track, and identity queries. It is stateless between
// polls except for the last-known-sample table.
type Engine struct {
	cfg     config.AppConfig
	norm    *normalizer.Normalizer
	orch    *fetch.Orchestrator
	sources map[string]config.SourceConfig

	schedulers []*fetch.Scheduler

	mu     sync.RWMutex
	roster map[identity.CanonicalID]rosterEntry
	stats  map[string]*SourceStats
}

// NewEngine builds an engine from validated configuration.
func NewEngine(cfg config.AppConfig) (*Engine, error) {
	orch, err := fetch.NewOrchestrator(maxSourceTimeout(cfg), cfg.Fallbacks)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:     cfg,
		norm:    normalizer.New(cfg.Aliases),
		orch:    orch,
		sources: map[string]config.SourceConfig{},
		roster:  map[identity.CanonicalID]rosterEntry{},
		stats:   map[string]*SourceStats{},
	}
	for _, src := range cfg.Sources {
		e.sources[src.Name] = src
		e.stats[src.Name] = &SourceStats{}
		if src.Kind == "history" {
			continue
		}
		src := src
		e.schedulers = append(e.schedulers, fetch.NewScheduler(src.Name, src.PollInterval(), func(ctx context.Context) {
			e.pollSource(ctx, src)
		}))
	}
	return e, nil
}

func maxSourceTimeout(cfg config.AppConfig) time.Duration {
	max := 10 * time.Second
	for _, src := range cfg.Sources {
		if t := src.Timeout(); t > max {
			max = t
		}
	}
	return max
}

// Start launches one scheduler per polled source.
func (e *Engine) Start(ctx context.Context) {
	for _, s := range e.schedulers {
		s.Start(ctx)
	}
}

// Stop tears down all schedulers, waiting for in-flight polls to abort.
func (e *Engine) Stop() {
	for _, s := range e.schedulers {
		s.Stop()
	}
}

// PollAllOnce polls every non-history source once, synchronously. Used by the
// oneshot CLI mode and by tests.
func (e *Engine) PollAllOnce(ctx context.Context) {
	for _, src := range e.cfg.Sources {
		if src.Kind == "history" {
			continue
		}
		e.pollSource(ctx, src)
	}
}

func (e *Engine) pollSource(ctx context.Context, src config.SourceConfig) {
	cctx, cancel := context.WithTimeout(ctx, src.Timeout())
	defer cancel()

	records, err := e.orch.FetchRecords(cctx, src.URL, src.Format)
	if ctx.Err() != nil {
		// Shutdown or caller cancellation: discard whatever we got, the
		// roster must not see partial results.
		return
	}
	if err != nil {
		e.mu.Lock()
		e.stats[src.Name].Polls++
		e.stats[src.Name].Failures++
		e.mu.Unlock()
		log.WithField("source", src.Name).
			Warnf("poll failed, keeping last known samples: %v", err)
		return
	}

	samples, rejected := e.norm.NormalizeBatchLive(records)
	now := time.Now()

	e.mu.Lock()
	for _, s := range samples {
		e.upsertLocked(src.Name, s, now)
	}
	st := e.stats[src.Name]
	st.Polls++
	st.RejectedRecords += uint64(rejected)
	st.LastSuccessEpoch = now.Unix()
	e.mu.Unlock()

	log.WithFields(log.Fields{
		"source":   src.Name,
		"vehicles": len(samples),
		"rejected": rejected,
	}).Info("poll complete")
}

func (e *Engine) upsertLocked(source string, s telemetry.VehicleSample, now time.Time) {
	key := identity.Canonicalize(s.VehicleID)
	if key == "" {
		e.stats[source].RejectedRecords++
		return
	}
	idleSince := now
	if s.SpeedKmh <= e.cfg.Engine.MovementThresholdKmh {
		prev, ok := e.roster[key]
		if ok && prev.sample.SpeedKmh <= e.cfg.Engine.MovementThresholdKmh {
			idleSince = prev.idleSince
		}
	}
	e.roster[key] = rosterEntry{sample: s, receivedAt: now, idleSince: idleSince, source: source}
}

// GetLiveVehicles returns a snapshot of the live roster with the canonical
// status derived per vehicle. Safe to call frequently and concurrently with
// polling.
func (e *Engine) GetLiveVehicles() map[identity.CanonicalID]LiveVehicle {
	e.mu.RLock()
	defer e.mu.RUnlock()
	now := time.Now()
	out := make(map[identity.CanonicalID]LiveVehicle, len(e.roster))
	for key, entry := range e.roster {
		age := now.Sub(entry.receivedAt)
		idleFor := time.Duration(0)
		if entry.sample.SpeedKmh <= e.cfg.Engine.MovementThresholdKmh {
			idleFor = now.Sub(entry.idleSince)
		}
		status := telemetry.Classify(entry.sample, age, idleFor, e.classifyParams(entry.source))
		out[key] = LiveVehicle{
			Label:  entry.sample.VehicleID,
			Sample: entry.sample,
			Status: status,
			Stale:  age > e.cfg.Engine.StalenessWindow(),
			Source: entry.source,
		}
	}
	return out
}

func (e *Engine) classifyParams(sourceName string) telemetry.ClassifyParams {
	p := telemetry.ClassifyParams{
		SpeedLimitKmh:        e.cfg.Engine.SpeedLimitKmh,
		MovementThresholdKmh: e.cfg.Engine.MovementThresholdKmh,
		IdleThreshold:        e.cfg.Engine.IdleThreshold(),
		StalenessWindow:      e.cfg.Engine.StalenessWindow(),
	}
	if src, ok := e.sources[sourceName]; ok && src.SpeedLimitKmh > 0 {
		p.SpeedLimitKmh = src.SpeedLimitKmh
	}
	return p
}

// GetTrack fetches the history source for the window and builds the track
// for the vehicle matching vehicleRef. A fetch failure is an error; a window
// with no matching records is an empty track and nil error, which callers
// present as "no records", not as a failure.
func (e *Engine) GetTrack(ctx context.Context, vehicleRef string, from, to time.Time) (track.Track, error) {
	src, ok := e.cfg.HistorySource()
	if !ok {
		return track.Track{}, fmt.Errorf("no history source configured")
	}
	cctx, cancel := context.WithTimeout(ctx, src.Timeout())
	defer cancel()

	records, err := e.orch.FetchRecords(cctx, historyURL(src.URL, vehicleRef, from, to), src.Format)
	if err != nil {
		e.mu.Lock()
		e.stats[src.Name].Polls++
		e.stats[src.Name].Failures++
		e.mu.Unlock()
		return track.Track{}, fmt.Errorf("history fetch: %w", err)
	}

	samples, rejected := e.norm.NormalizeBatchHistory(records)
	matched := make([]telemetry.VehicleSample, 0, len(samples))
	for _, s := range samples {
		if identity.Match(s.VehicleID, vehicleRef) {
			matched = append(matched, s)
		}
	}

	e.mu.Lock()
	st := e.stats[src.Name]
	st.Polls++
	st.RejectedRecords += uint64(rejected)
	st.LastSuccessEpoch = time.Now().Unix()
	e.mu.Unlock()

	return track.Build(matched, from, to), nil
}

// historyURL substitutes the optional {vehicle}, {from} and {to} placeholders
// of a history source URL. The vehicle reference is query-escaped; registry
// labels routinely carry spaces and dashes.
func historyURL(rawURL, vehicleRef string, from, to time.Time) string {
	out := strings.ReplaceAll(rawURL, "{vehicle}", url.QueryEscape(vehicleRef))
	out = strings.ReplaceAll(out, "{from}", strconv.FormatInt(from.Unix(), 10))
	out = strings.ReplaceAll(out, "{to}", strconv.FormatInt(to.Unix(), 10))
	return out
}

// Match reports whether two raw identifiers name the same physical vehicle.
// Exposed for cross-subsystem correlation, e.g. matching a weighbridge
// ticket's vehicle label to a live roster entry.
func (e *Engine) Match(a, b string) bool {
	return identity.Match(a, b)
}

// Stats returns a copy of the per-source counters.
func (e *Engine) Stats() map[string]SourceStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]SourceStats, len(e.stats))
	for name, st := range e.stats {
		out[name] = *st
	}
	return out
}

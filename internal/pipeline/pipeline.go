// Package pipeline orchestrates the fetch-baseline-fuse-score cycle and owns
// the in-memory session state the API layer reads from.
//
// Concurrency model: source fetches run concurrently and are all joined
// before fusion starts. Fusions themselves are serialized through a single
// run loop — the periodic tick and manual refresh requests funnel into the
// same goroutine and each cycle is awaited to completion before the next may
// start, so no two fusions ever overlap.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/railmet/platform-risk-service/internal/baseline"
	"github.com/railmet/platform-risk-service/internal/domain"
	"github.com/railmet/platform-risk-service/internal/fusion"
	"github.com/railmet/platform-risk-service/internal/observability"
	"github.com/railmet/platform-risk-service/internal/pattern"
	"github.com/railmet/platform-risk-service/internal/risk"
)

// SourceAdapter fetches one reading from one external provider. Fetch must
// not panic and must fold every failure into an error-status SourceResult.
type SourceAdapter interface {
	Name() string
	Fetch(ctx context.Context) domain.SourceResult
}

// HistoryProvider fetches the retrospective daily series for the baseline.
type HistoryProvider interface {
	RecentDaily(ctx context.Context, days int) ([]domain.HistoricalDay, error)
}

// SnapshotPublisher exports a completed cycle's snapshot. Optional: a nil
// publisher disables export.
type SnapshotPublisher interface {
	Publish(ctx context.Context, snap Snapshot) error
}

// Refresh and simulation errors surfaced to the API layer.
var (
	ErrCooldown         = errors.New("manual refresh rejected: cool-down in effect")
	ErrSimulationActive = errors.New("refresh unavailable while a simulation is active")
	ErrNotSimulating    = errors.New("no simulation active")
)

// InvalidReadingError reports every field of an injected reading that failed
// physical plausibility validation. No state changes when it is returned.
type InvalidReadingError struct {
	Fields []error
}

func (e *InvalidReadingError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, err := range e.Fields {
		msgs[i] = err.Error()
	}
	return "invalid simulated reading: " + strings.Join(msgs, "; ")
}

// Snapshot is the complete session state after one cycle (or one simulation
// injection). It is replaced wholesale, never partially mutated; readers get
// a copy.
type Snapshot struct {
	Fused          domain.FusedWeather
	Baseline       baseline.Baseline
	Platforms      []domain.Platform
	Assessment     pattern.Assessment
	ProcessingTime time.Duration
	Simulated      bool
}

// Params wires an Engine. Adapters are ordered: the first is the primary
// fusion source, the second the secondary.
type Params struct {
	Adapters     []SourceAdapter
	History      HistoryProvider
	Fuser        *fusion.Engine
	Platforms    []domain.Platform
	Publisher    SnapshotPublisher
	Logger       *slog.Logger
	Metrics      *observability.Metrics
	Clock        clockwork.Clock
	BaselineDays int

	RefreshInterval time.Duration
	ManualCooldown  time.Duration
	FetchTimeout    time.Duration
}

// Engine is the dependency-injected session object: one instance per process,
// reset only via teardown.
type Engine struct {
	adapters  []SourceAdapter
	history   HistoryProvider
	fuser     *fusion.Engine
	platforms []domain.Platform
	publisher SnapshotPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock

	baselineDays    int
	refreshInterval time.Duration
	manualCooldown  time.Duration
	fetchTimeout    time.Duration

	refreshCh chan string

	mu         sync.RWMutex
	state      Snapshot
	saved      *Snapshot // pre-simulation state, nil unless simulating
	lastManual time.Time
	hasManual  bool

	ready atomic.Bool
}

// New creates the pipeline engine.
func New(p Params) *Engine {
	return &Engine{
		adapters:        p.Adapters,
		history:         p.History,
		fuser:           p.Fuser,
		platforms:       p.Platforms,
		publisher:       p.Publisher,
		logger:          p.Logger,
		metrics:         p.Metrics,
		clock:           p.Clock,
		baselineDays:    p.BaselineDays,
		refreshInterval: p.RefreshInterval,
		manualCooldown:  p.ManualCooldown,
		fetchTimeout:    p.FetchTimeout,
		refreshCh:       make(chan string, 1),
	}
}

// CheckReadiness returns nil once the first cycle has completed, or an error
// describing why the service is not yet ready.
func (e *Engine) CheckReadiness(_ context.Context) error {
	if !e.ready.Load() {
		return errors.New("no fusion cycle has completed yet")
	}
	return nil
}

// LastCycle identifies the most recent fused state: the cycle ID and how long
// ago it was produced. The ID is empty before the first cycle.
func (e *Engine) LastCycle() (string, time.Duration) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state.Fused.CycleID == "" {
		return "", 0
	}
	return e.state.Fused.CycleID, e.clock.Now().UTC().Sub(e.state.Fused.FusedAt)
}

// Run executes the refresh loop until the context is cancelled. An initial
// cycle runs immediately so the service becomes ready without waiting a full
// interval.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("pipeline started",
		"refresh_interval", e.refreshInterval,
		"manual_cooldown", e.manualCooldown,
	)
	e.metrics.PipelineRunning.Set(1)
	defer e.metrics.PipelineRunning.Set(0)

	e.runCycle(ctx, "startup")

	ticker := e.clock.NewTicker(e.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			if e.simulating() {
				// A tick must not clobber an injected scenario; the real
				// state is restored on reset.
				e.logger.Debug("periodic refresh skipped, simulation active")
				continue
			}
			e.runCycle(ctx, "periodic")
		case reason := <-e.refreshCh:
			e.runCycle(ctx, reason)
		}
	}
}

// Refresh requests a manual fusion cycle. It is rejected while a simulation
// is active and by the cool-down gate: a second call inside the window is a
// no-op that leaves platform scores untouched.
func (e *Engine) Refresh() error {
	e.mu.Lock()
	if e.state.Simulated {
		e.mu.Unlock()
		e.metrics.ManualRefreshRejected.Inc()
		return ErrSimulationActive
	}
	now := e.clock.Now()
	if e.hasManual && now.Sub(e.lastManual) < e.manualCooldown {
		e.mu.Unlock()
		e.metrics.ManualRefreshRejected.Inc()
		return ErrCooldown
	}
	e.lastManual = now
	e.hasManual = true
	e.mu.Unlock()

	select {
	case e.refreshCh <- "manual":
	default:
		// A cycle request is already queued; it will serve this caller too.
	}
	return nil
}

// Snapshot returns a copy of the current session state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Simulate injects a fully-formed reading, bypassing all adapters and fusion,
// and forces scoring with the extreme anomaly factor. The state active before
// the first injection is kept aside for Reset.
func (e *Engine) Simulate(r domain.WeatherReading) error {
	if errs := r.Validate(); len(errs) > 0 {
		return &InvalidReadingError{Fields: errs}
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = e.clock.Now().UTC()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.Simulated {
		saved := e.state
		e.saved = &saved
	}

	platforms := risk.ScoreAll(e.platforms, r, domain.AnomalyExtreme)
	assessment := pattern.Assess(r, risk.MaxScore(platforms), domain.AnomalyExtreme, nil)

	confidence := fusion.MaxConfidence
	e.state = Snapshot{
		Fused: domain.FusedWeather{
			WeatherReading: r,
			Sources:        []string{"simulation"},
			Confidence:     confidence,
			DataQuality:    domain.QualityForConfidence(confidence),
			Strategy:       "simulation-injection",
			CycleID:        uuid.NewString(),
			FusedAt:        e.clock.Now().UTC(),
		},
		Baseline:   e.state.Baseline,
		Platforms:  platforms,
		Assessment: assessment,
		Simulated:  true,
	}

	e.metrics.SimulationActive.Set(1)
	e.publishGauges(e.state)
	e.logger.Info("simulation injected",
		"temperature", r.TemperatureC,
		"precipitation", r.PrecipitationMMH,
		"wind", r.WindSpeedMS,
		"max_risk", risk.MaxScore(platforms),
	)
	return nil
}

// Reset restores the real session state: the snapshot active immediately
// before the first Simulate call, or the result of a cycle that completed
// while the simulation was running, whichever is fresher. The fused reading,
// its confidence and sources, and every platform score come back exactly.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.Simulated || e.saved == nil {
		return ErrNotSimulating
	}

	e.state = *e.saved
	e.saved = nil

	e.metrics.SimulationActive.Set(0)
	e.publishGauges(e.state)
	e.logger.Info("simulation reset, restored last fused reading",
		"cycle_id", e.state.Fused.CycleID)
	return nil
}

func (e *Engine) simulating() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Simulated
}

// runCycle performs one complete fetch-baseline-fuse-score pass and swaps the
// session state. It never fails: total upstream failure degrades into the
// fusion engine's emergency fallback.
func (e *Engine) runCycle(ctx context.Context, reason string) {
	start := time.Now()
	cycleID := uuid.NewString()

	fetchCtx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
	results, days, histErr := e.fetchAll(fetchCtx)
	cancel()

	for _, r := range results {
		e.metrics.SourceFetches.WithLabelValues(r.SourceName, r.Status.String()).Inc()
		e.metrics.SourceDuration.WithLabelValues(r.SourceName).Observe(r.Elapsed.Seconds())
	}
	if histErr != nil {
		e.logger.Warn("historical series unavailable, baseline falls back to climatology",
			"cycle_id", cycleID, "error", histErr)
	}

	merged := e.fuser.Merge(results)
	b := baseline.Compute(days, merged, "era5")

	fused := e.fuser.Fuse(cycleID, results, fusion.Validation{
		OK:         !b.Fallback,
		Confidence: b.Confidence,
		Level:      b.OverallLevel,
	})
	if fused.Strategy == fusion.StrategyEmergency {
		e.metrics.EmergencyFallbacks.Inc()
	}

	platforms := risk.ScoreAll(e.platforms, fused.WeatherReading, b.OverallLevel)

	var tolCtx *baseline.Baseline
	if !b.Fallback {
		tolCtx = &b
	}
	assessment := pattern.Assess(fused.WeatherReading, risk.MaxScore(platforms), b.OverallLevel, tolCtx)

	snap := Snapshot{
		Fused:          fused,
		Baseline:       b,
		Platforms:      platforms,
		Assessment:     assessment,
		ProcessingTime: time.Since(start),
	}

	// A simulation may have been injected while this cycle was in flight; the
	// flag has to be re-checked under the same lock as the swap. The injected
	// scenario stays live and the fresh result becomes the state Reset
	// restores.
	e.mu.Lock()
	parked := e.state.Simulated
	if parked {
		e.saved = &snap
	} else {
		e.state = snap
	}
	e.mu.Unlock()
	e.ready.Store(true)

	e.metrics.FusionCycles.Inc()
	e.metrics.CycleDuration.Observe(snap.ProcessingTime.Seconds())
	if parked {
		e.logger.Info("fusion cycle completed during simulation, result kept for reset",
			"cycle_id", cycleID, "reason", reason)
		e.publish(ctx, snap)
		return
	}
	e.publishGauges(snap)

	e.logger.Info("fusion cycle complete",
		"cycle_id", cycleID,
		"reason", reason,
		"strategy", fused.Strategy,
		"confidence", fused.Confidence,
		"sources", fused.Sources,
		"anomaly_level", b.OverallLevel.String(),
		"warning", assessment.Warning,
		"max_risk", risk.MaxScore(platforms),
		"duration", snap.ProcessingTime,
	)

	e.publish(ctx, snap)
}

// fetchAll issues every source fetch plus the historical series fetch
// concurrently and joins them all. Fusion never starts before every call has
// settled; a fetch outliving its context simply reports an error result.
func (e *Engine) fetchAll(ctx context.Context) ([]domain.SourceResult, []domain.HistoricalDay, error) {
	results := make([]domain.SourceResult, len(e.adapters))
	var days []domain.HistoricalDay
	var histErr error

	var wg sync.WaitGroup
	for i, a := range e.adapters {
		wg.Add(1)
		go func(i int, a SourceAdapter) {
			defer wg.Done()
			results[i] = a.Fetch(ctx)
		}(i, a)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		days, histErr = e.history.RecentDaily(ctx, e.baselineDays)
	}()
	wg.Wait()

	return results, days, histErr
}

func (e *Engine) publish(ctx context.Context, snap Snapshot) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, snap); err != nil {
		e.metrics.PublishErrors.Inc()
		e.logger.Warn("snapshot publish failed", "cycle_id", snap.Fused.CycleID, "error", err)
		return
	}
	e.metrics.SnapshotsPublished.Inc()
}

func (e *Engine) publishGauges(snap Snapshot) {
	e.metrics.FusionConfidence.Set(float64(snap.Fused.Confidence))
	for _, p := range snap.Platforms {
		e.metrics.PlatformRisk.WithLabelValues(p.ID).Set(float64(p.RiskScore))
	}
}

// String renders a short human-readable summary, used by cmd/scorecheck.
func (s Snapshot) String() string {
	return fmt.Sprintf("fused %s conf=%d quality=%s warning=%s platforms=%d",
		s.Fused.Strategy, s.Fused.Confidence, s.Fused.DataQuality,
		s.Assessment.Warning, len(s.Platforms))
}

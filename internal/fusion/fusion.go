// Package fusion merges per-source weather readings into a single fused
// snapshot with a bounded confidence value.
package fusion

import (
	"log/slog"
	"math/rand"

	"github.com/jonboulle/clockwork"
	"github.com/railmet/platform-risk-service/internal/domain"
)

// Fusion strategy names carried on the output for consumers.
const (
	StrategyWeighted  = "weighted-average"
	StrategyEmergency = "emergency-fallback"

	// ValidatorSource is appended to the sources list when baseline
	// validation succeeded.
	ValidatorSource = "era5-baseline"
)

// Source weights: the first result passed to Fuse is the primary source, the
// second the secondary. A field present in only one source is used at full
// weight for that field.
const (
	primaryWeight   = 0.6
	secondaryWeight = 0.4
)

// Hard-coded per-field defaults applied when no source carries a field. They
// exist so the pipeline always produces a usable reading.
const (
	defaultTemperatureC     = 18.0
	defaultHumidityPct      = 60.0
	defaultPrecipitationMMH = 0.0
	defaultWindSpeedMS      = 5.0
	defaultWindDirectionDeg = 180.0
	defaultPressureHPa      = 1013.0
)

// Confidence bounds for every normal fusion path. Only the emergency fallback
// goes lower.
const (
	MinConfidence       = 30
	MaxConfidence       = 95
	EmergencyConfidence = 20
)

// Validation is the baseline validator's verdict, consumed during confidence
// computation.
type Validation struct {
	OK         bool
	Confidence int
	Level      domain.AnomalyLevel
}

// Engine fuses source results. One instance per process; safe for the single
// serialized fusion flow (the rng is not touched concurrently).
type Engine struct {
	logger *slog.Logger
	clock  clockwork.Clock
	rng    *rand.Rand
}

// New creates a fusion engine. The rng seeds the emergency fallback values.
func New(logger *slog.Logger, clock clockwork.Clock, rng *rand.Rand) *Engine {
	return &Engine{logger: logger, clock: clock, rng: rng}
}

// Merge combines the source readings field by field with primary/secondary
// weighting and per-field defaults. It carries no confidence semantics and is
// used to obtain the provisional reading the baseline engine compares against.
// results[0] is the primary source, results[1] the secondary.
func (e *Engine) Merge(results []domain.SourceResult) domain.WeatherReading {
	var primary, secondary domain.SourceResult
	if len(results) > 0 && results[0].Status == domain.StatusSuccess {
		primary = results[0]
	}
	if len(results) > 1 && results[1].Status == domain.StatusSuccess {
		secondary = results[1]
	}

	return domain.WeatherReading{
		Timestamp:        e.clock.Now().UTC(),
		TemperatureC:     fuseField(primary.Temperature, secondary.Temperature, defaultTemperatureC),
		HumidityPct:      fuseField(primary.Humidity, secondary.Humidity, defaultHumidityPct),
		PrecipitationMMH: fuseField(primary.Precipitation, secondary.Precipitation, defaultPrecipitationMMH),
		WindSpeedMS:      fuseField(primary.WindSpeed, secondary.WindSpeed, defaultWindSpeedMS),
		WindDirectionDeg: fuseField(primary.WindDirection, secondary.WindDirection, defaultWindDirectionDeg),
		PressureHPa:      fuseField(primary.Pressure, secondary.Pressure, defaultPressureHPa),
	}
}

// Fuse produces exactly one FusedWeather from the settled source results and
// the baseline validation verdict. It never returns an error: total failure
// degrades into the emergency fallback reading.
func (e *Engine) Fuse(cycleID string, results []domain.SourceResult, v Validation) domain.FusedWeather {
	succeeded := 0
	sources := make([]string, 0, len(results)+1)
	for _, r := range results {
		if r.Status == domain.StatusSuccess {
			succeeded++
			sources = append(sources, r.SourceName)
		}
	}

	if succeeded == 0 && !v.OK {
		return e.emergency(cycleID, results)
	}

	if v.OK {
		sources = append(sources, ValidatorSource)
	}

	confidence := e.confidence(succeeded, v)
	fused := domain.FusedWeather{
		WeatherReading: e.Merge(results),
		Sources:        sources,
		Confidence:     confidence,
		DataQuality:    domain.QualityForConfidence(confidence),
		Strategy:       StrategyWeighted,
		CycleID:        cycleID,
		FusedAt:        e.clock.Now().UTC(),
		RawSources:     results,
	}
	return fused
}

// confidence degrades gracefully under partial and total source failure and
// anomaly severity, always landing in [MinConfidence, MaxConfidence].
func (e *Engine) confidence(succeeded int, v Validation) int {
	base := 50
	switch {
	case succeeded >= 2:
		base = 95
	case succeeded == 1:
		base = 75
	}

	final := base
	if v.OK {
		validated := v.Confidence + v.Level.ConfidencePenalty()
		if validated < final {
			final = validated
		}
	} else {
		final = base - 10
	}

	if final < MinConfidence {
		return MinConfidence
	}
	if final > MaxConfidence {
		return MaxConfidence
	}
	return final
}

// emergency builds the last-resort snapshot when every source and the
// baseline failed: plausible randomized values within tight bounds and a
// confidence pinned at the floor. The caller still gets a complete reading.
func (e *Engine) emergency(cycleID string, results []domain.SourceResult) domain.FusedWeather {
	e.logger.Warn("all sources and baseline failed, emitting emergency fallback reading")

	reading := domain.WeatherReading{
		Timestamp:        e.clock.Now().UTC(),
		TemperatureC:     e.bounded(12, 22),
		HumidityPct:      e.bounded(50, 70),
		PrecipitationMMH: 0,
		WindSpeedMS:      e.bounded(2, 6),
		WindDirectionDeg: e.bounded(0, 360),
		PressureHPa:      e.bounded(1005, 1020),
	}

	return domain.FusedWeather{
		WeatherReading: reading,
		Sources:        []string{},
		Confidence:     EmergencyConfidence,
		DataQuality:    domain.QualityEmergency,
		Strategy:       StrategyEmergency,
		CycleID:        cycleID,
		FusedAt:        e.clock.Now().UTC(),
		RawSources:     results,
	}
}

func (e *Engine) bounded(lo, hi float64) float64 {
	return lo + e.rng.Float64()*(hi-lo)
}

// fuseField merges one field: both present → weighted average, one present →
// that value at full weight, neither → default.
func fuseField(primary, secondary domain.Sample, def float64) float64 {
	switch {
	case primary.Valid && secondary.Valid:
		return primary.Value*primaryWeight + secondary.Value*secondaryWeight
	case primary.Valid:
		return primary.Value
	case secondary.Valid:
		return secondary.Value
	default:
		return def
	}
}

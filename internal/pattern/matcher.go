// Package pattern compares current conditions against a static catalog of
// historical weather events and derives a qualitative warning level.
package pattern

import (
	"math"

	"github.com/railmet/platform-risk-service/internal/baseline"
	"github.com/railmet/platform-risk-service/internal/domain"
)

// Default matching tolerances and their hard floors. The tightening slope k
// and the floors are calibration choices carried over from operational
// tuning, not derived from a statistical method.
const (
	defaultPrecipTolMMH = 15.0
	defaultWindTolMS    = 20.0
	defaultTempTolC     = 8.0

	floorPrecipTolMMH = 5.0
	floorWindTolMS    = 8.0
	floorTempTolC     = 3.0

	tighteningSlope = 0.5

	// matchBonus is added on top of the anomaly bonus when a catalog event
	// matched, completing the 0/5/10/15/20 bonus ladder.
	matchBonus = 5

	// Conditions required out of the three tested (precipitation closeness,
	// wind closeness, temperature range overlap).
	requiredConditions = 2
)

// Assessment is the matcher's output: the closest historical event (nil when
// nothing matched), the bonus-adjusted effective score, and the warning
// bucket.
type Assessment struct {
	Match          *Event              `json:"match,omitempty"`
	Conditions     int                 `json:"conditionsMet"`
	EffectiveScore int                 `json:"effectiveScore"`
	Warning        domain.WarningLevel `json:"warningLevel"`
}

// Assess matches the reading against the catalog and buckets the risk score
// into a warning level. The baseline is optional: when present, its anomalies
// tighten the match tolerances; when nil, defaults apply. The anomaly level
// feeds the score bonus whether or not an event matched.
func Assess(r domain.WeatherReading, riskScore int, level domain.AnomalyLevel, b *baseline.Baseline) Assessment {
	precipTol, windTol, tempTol := tolerances(b)

	events := Catalog()
	var best *Event
	bestConditions := 0
	for i := range events {
		met := conditionsMet(r, events[i], precipTol, windTol, tempTol)
		if met < requiredConditions {
			continue
		}
		// Later date wins among matches, including exact-date ties.
		if best == nil || !events[i].Date.Before(best.Date) {
			best = &events[i]
			bestConditions = met
		}
	}

	effective := riskScore + level.WarningBonus()
	if best != nil {
		effective += matchBonus
	}
	if effective > 100 {
		effective = 100
	}

	return Assessment{
		Match:          best,
		Conditions:     bestConditions,
		EffectiveScore: effective,
		Warning:        warningFor(effective, best != nil),
	}
}

// tolerances tightens the default match tolerances when baseline anomalies
// are large: tol = max(floor, default − k×|anomaly|) per parameter.
func tolerances(b *baseline.Baseline) (precip, wind, temp float64) {
	if b == nil {
		return defaultPrecipTolMMH, defaultWindTolMS, defaultTempTolC
	}
	tighten := func(def, floor, anomaly float64) float64 {
		t := def - tighteningSlope*math.Abs(anomaly)
		if t < floor {
			return floor
		}
		return t
	}
	return tighten(defaultPrecipTolMMH, floorPrecipTolMMH, b.Precipitation.Anomaly),
		tighten(defaultWindTolMS, floorWindTolMS, b.WindSpeed.Anomaly),
		tighten(defaultTempTolC, floorTempTolC, b.Temperature.Anomaly)
}

func conditionsMet(r domain.WeatherReading, ev Event, precipTol, windTol, tempTol float64) int {
	met := 0
	if math.Abs(r.PrecipitationMMH-ev.PeakPrecipMMH) <= precipTol {
		met++
	}
	if math.Abs(r.WindSpeedMS-ev.PeakWindMS) <= windTol {
		met++
	}
	if r.TemperatureC >= ev.TempMinC-tempTol && r.TemperatureC <= ev.TempMaxC+tempTol {
		met++
	}
	return met
}

// warningFor buckets the effective score. The no-match thresholds sit 5
// points higher: without a historical precedent the same score alerts later.
func warningFor(effective int, matched bool) domain.WarningLevel {
	if matched {
		switch {
		case effective >= 70:
			return domain.WarningAlert
		case effective >= 50:
			return domain.WarningAdvisory
		case effective >= 30:
			return domain.WarningWatch
		default:
			return domain.WarningInfo
		}
	}
	switch {
	case effective >= 75:
		return domain.WarningAlert
	case effective >= 55:
		return domain.WarningAdvisory
	case effective >= 35:
		return domain.WarningWatch
	default:
		return domain.WarningInfo
	}
}

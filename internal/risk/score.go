// Package risk converts a fused weather reading and static platform
// attributes into a bounded 0–100 operational risk score.
//
// The formula is a fixed weighted sum of six independent factor functions,
// multiplied by an anomaly factor and clamped. Thresholds, weights and ramp
// slopes are frozen calibration values; changing any of them changes the
// published scores, so they live in one place here.
package risk

import (
	"math"

	"github.com/railmet/platform-risk-service/internal/domain"
)

// Factor weights. They sum to 1.0 so the pre-multiplier score is itself
// bounded by the worst individual factor value (100).
const (
	weightPrecipitation = 0.30
	weightWind          = 0.25
	weightExposure      = 0.15
	weightHumidity      = 0.10
	weightTemperature   = 0.10
	weightPressure      = 0.10
)

// Score computes the risk score for one platform under the given reading and
// anomaly level. It is a pure function: same inputs, same score.
func Score(r domain.WeatherReading, p domain.Platform, level domain.AnomalyLevel) int {
	sum := weightPrecipitation*precipitationFactor(r.PrecipitationMMH) +
		weightWind*windFactor(r.WindSpeedMS) +
		weightExposure*exposureFactor(p) +
		weightHumidity*humidityFactor(r.HumidityPct) +
		weightTemperature*temperatureFactor(r.TemperatureC) +
		weightPressure*pressureFactor(r.PressureHPa)

	score := int(math.Round(sum * level.RiskFactor()))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// ScoreAll returns a fresh platform slice with every risk score recomputed.
// Scores are replaced wholesale, never partially mutated.
func ScoreAll(platforms []domain.Platform, r domain.WeatherReading, level domain.AnomalyLevel) []domain.Platform {
	out := make([]domain.Platform, len(platforms))
	for i, p := range platforms {
		p.RiskScore = Score(r, p, level)
		out[i] = p
	}
	return out
}

// MaxScore returns the highest risk score among the platforms, or 0 for an
// empty set. Used as the station-level score for warning derivation.
func MaxScore(platforms []domain.Platform) int {
	max := 0
	for _, p := range platforms {
		if p.RiskScore > max {
			max = p.RiskScore
		}
	}
	return max
}

// Moderate-rain ramp: 20 at 0.5 mm/h rising to ≈53.3 at 5 mm/h.
const (
	precipModerateSlope = 33.3 / 4.5
	precipModerateEnd   = 20 + 4.5*precipModerateSlope
)

// precipitationFactor: 0 below 0.5 mm/h, moderate ramp to ~53 at 5 mm/h,
// heavy ramp from 50 upward above 5 mm/h. The heavy ramp is floored at the
// moderate ramp's endpoint so the factor never decreases as rain intensifies.
func precipitationFactor(p float64) float64 {
	switch {
	case p < 0.5:
		return 0
	case p <= 5:
		return 20 + (p-0.5)*precipModerateSlope
	default:
		heavy := 50 + (p-5)*10
		if heavy < precipModerateEnd {
			heavy = precipModerateEnd
		}
		return math.Min(100, heavy)
	}
}

// windFactor: 0 below 8 m/s, 30→70 between 8 and 14 m/s, 70→100 above.
func windFactor(w float64) float64 {
	switch {
	case w < 8:
		return 0
	case w <= 14:
		return 30 + (w-8)*(40.0/6.0)
	default:
		return math.Min(100, 70+(w-14)*7.5)
	}
}

// exposureFactor: a roof nullifies exposure entirely, whatever the static
// exposure value says.
func exposureFactor(p domain.Platform) float64 {
	if p.IsRoofed {
		return 0
	}
	return p.Exposure * 100
}

// humidityFactor: step at 85% (adhesion loss on platform surfaces).
func humidityFactor(h float64) float64 {
	if h > 85 {
		return 60
	}
	return 0
}

// temperatureFactor: 0 within [0, 35] °C, ramps above for heat (buckling
// watch) and below for ice.
func temperatureFactor(t float64) float64 {
	switch {
	case t > 35:
		return math.Min(100, 40+5*(t-35))
	case t < 0:
		return math.Min(100, 60+5*-t)
	default:
		return 0
	}
}

// pressureFactor: step below 1000 hPa (active low-pressure system).
func pressureFactor(hpa float64) float64 {
	if hpa < 1000 {
		return 40
	}
	return 0
}

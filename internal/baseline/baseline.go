// Package baseline derives a short-window historical baseline and per-parameter
// anomaly levels from a retrospective daily series.
package baseline

import (
	"math"

	"github.com/railmet/platform-risk-service/internal/domain"
)

// Fixed climatological constants for the Valencia coastal strip, used when no
// historical series is available. Approximate annual values; good enough to
// keep the pipeline producing output, flagged by FallbackConfidence.
const (
	FallbackTempC       = 18.5
	FallbackHumidityPct = 65.0
	FallbackPrecipMM    = 1.2
	FallbackWindMS      = 4.5
	FallbackPressureHPa = 1016.0

	// FallbackConfidence signals reduced trust when climatology replaces
	// real history.
	FallbackConfidence = 30

	maxConfidence = 95
)

// ParameterStats holds the baseline statistics for one tracked parameter.
type ParameterStats struct {
	Mean       float64             `json:"mean"`
	StdDev     float64             `json:"stdDev"`
	Anomaly    float64             `json:"anomaly"`
	Normalized float64             `json:"normalizedAnomaly"`
	Level      domain.AnomalyLevel `json:"level"`
}

// Baseline is the outcome of comparing current conditions against the
// historical window.
type Baseline struct {
	Temperature   ParameterStats `json:"temperature"`
	Precipitation ParameterStats `json:"precipitation"`
	WindSpeed     ParameterStats `json:"windSpeed"`
	Pressure      ParameterStats `json:"pressure"`

	// Humidity is tracked as a simple delta against its mean, never as a
	// z-score, and never drives the overall level.
	HumidityMean  float64 `json:"humidityMean"`
	HumidityDelta float64 `json:"humidityDelta"`

	OverallLevel domain.AnomalyLevel `json:"overallLevel"`
	DaysUsed     int                 `json:"similarDaysFound"`
	Confidence   int                 `json:"confidence"`
	DataSource   string              `json:"dataSource"`
	Fallback     bool                `json:"fallback"`
}

// Compute builds the baseline for the current reading from the historical
// series. An empty series triggers the climatological fallback: fixed regional
// constants, overall level normal, confidence pinned low. The pipeline never
// blocks on missing history.
func Compute(days []domain.HistoricalDay, current domain.WeatherReading, dataSource string) Baseline {
	if len(days) == 0 {
		return fallback(current)
	}

	temps := make([]float64, len(days))
	precips := make([]float64, len(days))
	winds := make([]float64, len(days))
	pressures := make([]float64, len(days))
	humidities := make([]float64, len(days))
	for i, d := range days {
		temps[i] = d.TempC
		precips[i] = d.PrecipMM
		winds[i] = d.WindSpeedMS
		pressures[i] = d.PressureHPa
		humidities[i] = d.HumidityPct
	}

	b := Baseline{
		Temperature:   statsFor(temps, current.TemperatureC),
		Precipitation: statsFor(precips, current.PrecipitationMMH),
		WindSpeed:     statsFor(winds, current.WindSpeedMS),
		Pressure:      statsFor(pressures, current.PressureHPa),
		HumidityMean:  mean(humidities),
		DaysUsed:      len(days),
		DataSource:    dataSource,
	}
	b.HumidityDelta = current.HumidityPct - b.HumidityMean
	b.OverallLevel = domain.MaxAnomalyLevel(
		b.Temperature.Level,
		b.Precipitation.Level,
		b.WindSpeed.Level,
		b.Pressure.Level,
	)
	b.Confidence = confidence(len(days), b)
	return b
}

// statsFor computes mean, population standard deviation and the anomaly
// bucket for one parameter.
func statsFor(values []float64, current float64) ParameterStats {
	m := mean(values)
	sd := popStdDev(values, m)
	anomaly := current - m

	normalized := 0.0
	if sd > 0 {
		normalized = math.Abs(anomaly) / sd
	}

	return ParameterStats{
		Mean:       m,
		StdDev:     sd,
		Anomaly:    anomaly,
		Normalized: normalized,
		Level:      domain.LevelForNormalizedAnomaly(normalized),
	}
}

// confidence rewards both data sufficiency and conditions consistency:
// min(95, 50 + 10×days + 5×parameters at normal).
func confidence(days int, b Baseline) int {
	normalCount := 0
	for _, level := range []domain.AnomalyLevel{
		b.Temperature.Level, b.Precipitation.Level, b.WindSpeed.Level, b.Pressure.Level,
	} {
		if level == domain.AnomalyNormal {
			normalCount++
		}
	}

	c := 50 + 10*days + 5*normalCount
	if c > maxConfidence {
		return maxConfidence
	}
	return c
}

func fallback(current domain.WeatherReading) Baseline {
	b := Baseline{
		Temperature:   ParameterStats{Mean: FallbackTempC, Anomaly: current.TemperatureC - FallbackTempC},
		Precipitation: ParameterStats{Mean: FallbackPrecipMM, Anomaly: current.PrecipitationMMH - FallbackPrecipMM},
		WindSpeed:     ParameterStats{Mean: FallbackWindMS, Anomaly: current.WindSpeedMS - FallbackWindMS},
		Pressure:      ParameterStats{Mean: FallbackPressureHPa, Anomaly: current.PressureHPa - FallbackPressureHPa},
		HumidityMean:  FallbackHumidityPct,
		HumidityDelta: current.HumidityPct - FallbackHumidityPct,
		OverallLevel:  domain.AnomalyNormal,
		DaysUsed:      0,
		Confidence:    FallbackConfidence,
		DataSource:    "climatology-fallback",
		Fallback:      true,
	}
	return b
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func popStdDev(values []float64, m float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

package domain

import (
	"fmt"
	"math"
	"time"
)

// WeatherReading is an immutable snapshot of conditions at one point in time.
// All fields are finite; readings with NaN or sentinel values never leave the
// adapter boundary.
type WeatherReading struct {
	Timestamp        time.Time `json:"timestamp"`
	TemperatureC     float64   `json:"temperature"`
	HumidityPct      float64   `json:"humidity"`
	PrecipitationMMH float64   `json:"precipitation"`
	WindSpeedMS      float64   `json:"windSpeed"`
	WindDirectionDeg float64   `json:"windDirection"`
	PressureHPa      float64   `json:"pressure"`
}

// Physical plausibility bounds for injected readings. Values outside these
// ranges are rejected before they can reach the scoring engine.
const (
	MinTemperatureC     = -40.0
	MaxTemperatureC     = 55.0
	MinHumidityPct      = 0.0
	MaxHumidityPct      = 100.0
	MinPrecipitationMMH = 0.0
	MaxPrecipitationMMH = 200.0
	MinWindSpeedMS      = 0.0
	MaxWindSpeedMS      = 80.0
	MinPressureHPa      = 870.0
	MaxPressureHPa      = 1085.0
)

// Validate checks a reading against physical plausibility bounds. It returns
// one error per offending field so callers can report them all at once.
func (r WeatherReading) Validate() []error {
	var errs []error

	check := func(name string, v, lo, hi float64) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Errorf("%s: value must be finite", name))
			return
		}
		if v < lo || v > hi {
			errs = append(errs, fmt.Errorf("%s: %.2f outside [%.1f, %.1f]", name, v, lo, hi))
		}
	}

	check("temperature", r.TemperatureC, MinTemperatureC, MaxTemperatureC)
	check("humidity", r.HumidityPct, MinHumidityPct, MaxHumidityPct)
	check("precipitation", r.PrecipitationMMH, MinPrecipitationMMH, MaxPrecipitationMMH)
	check("windSpeed", r.WindSpeedMS, MinWindSpeedMS, MaxWindSpeedMS)
	check("pressure", r.PressureHPa, MinPressureHPa, MaxPressureHPa)

	if math.IsNaN(r.WindDirectionDeg) || r.WindDirectionDeg < 0 || r.WindDirectionDeg >= 360 {
		errs = append(errs, fmt.Errorf("windDirection: %.2f outside [0, 360)", r.WindDirectionDeg))
	}

	return errs
}

// Sample is one optional measurement. Adapters translate upstream sentinel
// markers (-999, -9999) into Valid=false so fusion never branches on magic
// numbers.
type Sample struct {
	Value float64
	Valid bool
}

// Some wraps a present measurement.
func Some(v float64) Sample { return Sample{Value: v, Valid: true} }

// SourceStatus is the outcome of one adapter fetch.
type SourceStatus int

const (
	StatusSuccess SourceStatus = iota
	StatusError
)

func (s SourceStatus) String() string {
	if s == StatusSuccess {
		return "success"
	}
	return "error"
}

// MarshalJSON renders the status as its lowercase name for API consumers.
func (s SourceStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// SourceResult is the per-fetch report of a single adapter. It is produced
// fresh each cycle, never mutated after creation, and discarded after fusion
// (save for the copy carried on FusedWeather for observability).
type SourceResult struct {
	SourceName   string       `json:"name"`
	Status       SourceStatus `json:"status"`
	ErrorMessage string       `json:"error,omitempty"`
	FetchedAt    time.Time    `json:"fetchedAt"`
	Elapsed      time.Duration `json:"-"`

	Temperature   Sample `json:"-"`
	Humidity      Sample `json:"-"`
	Precipitation Sample `json:"-"`
	WindSpeed     Sample `json:"-"`
	WindDirection Sample `json:"-"`
	Pressure      Sample `json:"-"`
}

// Failed builds an error-status result with a human-readable cause.
func Failed(source, cause string) SourceResult {
	return SourceResult{SourceName: source, Status: StatusError, ErrorMessage: cause}
}

// HistoricalDay is one day of retrospective data: averaged temperature,
// humidity, wind speed and pressure, summed precipitation.
type HistoricalDay struct {
	Date        time.Time `json:"date"`
	TempC       float64   `json:"temperature"`
	HumidityPct float64   `json:"humidity"`
	PrecipMM    float64   `json:"precipitation"`
	WindSpeedMS float64   `json:"windSpeed"`
	PressureHPa float64   `json:"pressure"`
}

// DataQuality labels how much a fused reading should be trusted.
type DataQuality string

const (
	QualityHigh      DataQuality = "high"
	QualityMedium    DataQuality = "medium"
	QualityLow       DataQuality = "low"
	QualityEmergency DataQuality = "emergency"
)

// QualityForConfidence maps a confidence value to its quality label.
func QualityForConfidence(confidence int) DataQuality {
	switch {
	case confidence >= 85:
		return QualityHigh
	case confidence >= 60:
		return QualityMedium
	case confidence >= 30:
		return QualityLow
	default:
		return QualityEmergency
	}
}

// FusedWeather is the single reading produced by each fusion cycle.
// Confidence stays within [30, 95] on every normal path; the emergency
// fallback fixes it at 20.
type FusedWeather struct {
	WeatherReading

	Sources     []string       `json:"sourcesUsed"`
	Confidence  int            `json:"confidence"`
	DataQuality DataQuality    `json:"dataQuality"`
	Strategy    string         `json:"fusionStrategy"`
	CycleID     string         `json:"cycleId"`
	FusedAt     time.Time      `json:"fusedAt"`
	RawSources  []SourceResult `json:"rawSources"`
}

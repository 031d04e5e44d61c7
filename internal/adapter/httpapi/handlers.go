package httpapi

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/railmet/platform-risk-service/internal/domain"
	"github.com/railmet/platform-risk-service/internal/pipeline"
	"github.com/railmet/platform-risk-service/internal/recommend"
	"github.com/railmet/platform-risk-service/internal/risk"
)

type handler struct {
	pipeline Pipeline
	logger   *slog.Logger
}

// era5Validation is the nested baseline metadata block of the weather payload.
type era5Validation struct {
	AnomalyLevel     domain.AnomalyLevel `json:"anomalyLevel"`
	Confidence       int                 `json:"confidence"`
	SimilarDaysFound int                 `json:"similarDaysFound"`
	DataSource       string              `json:"dataSource"`
}

// historicalContext carries the baseline averages for display.
type historicalContext struct {
	TemperatureC  float64 `json:"temperature"`
	HumidityPct   float64 `json:"humidity"`
	PrecipMM      float64 `json:"precipitation"`
	WindSpeedMS   float64 `json:"windSpeed"`
	PressureHPa   float64 `json:"pressure"`
}

// rawSource is the per-source status echo for observability; values never
// alter the fused numeric output.
type rawSource struct {
	Name   string              `json:"name"`
	Status domain.SourceStatus `json:"status"`
	Error  string              `json:"error,omitempty"`
}

type weatherResponse struct {
	domain.FusedWeather

	Era5Validation    era5Validation    `json:"era5Validation"`
	HistoricalContext historicalContext `json:"historicalContext"`
	RawSourceStatus   []rawSource       `json:"rawSources"`
	ProcessingTimeMS  int64             `json:"processingTime"`
	Simulated         bool              `json:"simulated"`
}

func (h *handler) getWeather(c *fiber.Ctx) error {
	snap := h.pipeline.Snapshot()

	raws := make([]rawSource, len(snap.Fused.RawSources))
	for i, r := range snap.Fused.RawSources {
		raws[i] = rawSource{Name: r.SourceName, Status: r.Status, Error: r.ErrorMessage}
	}

	fused := snap.Fused
	fused.RawSources = nil // replaced by the trimmed echo below

	return c.JSON(weatherResponse{
		FusedWeather: fused,
		Era5Validation: era5Validation{
			AnomalyLevel:     snap.Baseline.OverallLevel,
			Confidence:       snap.Baseline.Confidence,
			SimilarDaysFound: snap.Baseline.DaysUsed,
			DataSource:       snap.Baseline.DataSource,
		},
		HistoricalContext: historicalContext{
			TemperatureC: snap.Baseline.Temperature.Mean,
			HumidityPct:  snap.Baseline.HumidityMean,
			PrecipMM:     snap.Baseline.Precipitation.Mean,
			WindSpeedMS:  snap.Baseline.WindSpeed.Mean,
			PressureHPa:  snap.Baseline.Pressure.Mean,
		},
		RawSourceStatus:  raws,
		ProcessingTimeMS: snap.ProcessingTime.Milliseconds(),
		Simulated:        snap.Simulated,
	})
}

type platformsResponse struct {
	Platforms    []domain.Platform   `json:"platforms"`
	WarningLevel domain.WarningLevel `json:"warningLevel"`
	MaxRiskScore int                 `json:"maxRiskScore"`
	Simulated    bool                `json:"simulated"`
}

func (h *handler) getPlatforms(c *fiber.Ctx) error {
	snap := h.pipeline.Snapshot()
	return c.JSON(platformsResponse{
		Platforms:    snap.Platforms,
		WarningLevel: snap.Assessment.Warning,
		MaxRiskScore: risk.MaxScore(snap.Platforms),
		Simulated:    snap.Simulated,
	})
}

func (h *handler) getRecommendations(c *fiber.Ctx) error {
	snap := h.pipeline.Snapshot()
	recs := recommend.For(snap.Fused.WeatherReading, snap.Platforms, snap.Assessment.Warning)
	return c.JSON(fiber.Map{
		"recommendations": recs,
		"warningLevel":    snap.Assessment.Warning,
		"match":           snap.Assessment.Match,
	})
}

func (h *handler) postRefresh(c *fiber.Ctx) error {
	err := h.pipeline.Refresh()
	switch {
	case errors.Is(err, pipeline.ErrCooldown):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, pipeline.ErrSimulationActive):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "refresh scheduled"})
}

// simulateRequest is the injected reading. Timestamp is optional; the engine
// stamps the current time when absent.
type simulateRequest struct {
	Timestamp        *time.Time `json:"timestamp"`
	TemperatureC     float64    `json:"temperature"`
	HumidityPct      float64    `json:"humidity"`
	PrecipitationMMH float64    `json:"precipitation"`
	WindSpeedMS      float64    `json:"windSpeed"`
	WindDirectionDeg float64    `json:"windDirection"`
	PressureHPa      float64    `json:"pressure"`
}

func (h *handler) postSimulate(c *fiber.Ctx) error {
	var req simulateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed reading: " + err.Error()})
	}

	reading := domain.WeatherReading{
		TemperatureC:     req.TemperatureC,
		HumidityPct:      req.HumidityPct,
		PrecipitationMMH: req.PrecipitationMMH,
		WindSpeedMS:      req.WindSpeedMS,
		WindDirectionDeg: req.WindDirectionDeg,
		PressureHPa:      req.PressureHPa,
	}
	if req.Timestamp != nil {
		reading.Timestamp = *req.Timestamp
	}

	if err := h.pipeline.Simulate(reading); err != nil {
		var invalid *pipeline.InvalidReadingError
		if errors.As(err, &invalid) {
			fields := make([]string, len(invalid.Fields))
			for i, fe := range invalid.Fields {
				fields[i] = fe.Error()
			}
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":  "reading failed validation",
				"fields": fields,
			})
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(fiber.Map{"status": "simulation active"})
}

func (h *handler) postReset(c *fiber.Ctx) error {
	if err := h.pipeline.Reset(); err != nil {
		if errors.Is(err, pipeline.ErrNotSimulating) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"status": "simulation cleared"})
}

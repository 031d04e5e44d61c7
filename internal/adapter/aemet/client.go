// Package aemet fetches current observations from the AEMET OpenData API.
// It is the primary fusion source.
package aemet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/railmet/platform-risk-service/internal/domain"
)

// SourceName identifies this adapter in fusion output and metrics.
const SourceName = "aemet"

// Upstream sentinel values marking a missing measurement. Rejected at this
// boundary so downstream code never sees them.
var sentinels = map[float64]bool{-999: true, -9999: true}

// Client calls the AEMET conventional-observation endpoint for one station.
type Client struct {
	apiKey     string
	stationID  string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an AEMET client. baseURL overrides the production
// endpoint, used by tests.
func NewClient(apiKey, stationID, baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://opendata.aemet.es/opendata/api"
	}
	return &Client{
		apiKey:     apiKey,
		stationID:  stationID,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Name implements the pipeline source adapter contract.
func (c *Client) Name() string { return SourceName }

// observation mirrors the fields of an AEMET conventional observation row we
// consume. AEMET field names are terse Spanish abbreviations.
type observation struct {
	Timestamp     string   `json:"fint"` // observation end time
	Temperature   *float64 `json:"ta"`   // °C
	Humidity      *float64 `json:"hr"`   // %
	Precipitation *float64 `json:"prec"` // mm in the last hour
	WindSpeed     *float64 `json:"vv"`   // m/s
	WindDirection *float64 `json:"dv"`   // degrees
	Pressure      *float64 `json:"pres"` // hPa
}

// Fetch retrieves the latest observation for the configured station. It never
// returns an error: every failure is folded into an error-status SourceResult
// so the fusion confidence degrades instead of the pipeline aborting.
func (c *Client) Fetch(ctx context.Context) domain.SourceResult {
	start := time.Now()
	result := c.fetch(ctx)
	result.FetchedAt = time.Now().UTC()
	result.Elapsed = time.Since(start)

	if result.Status == domain.StatusError {
		c.logger.Warn("aemet fetch failed", "station", c.stationID, "error", result.ErrorMessage)
	}
	return result
}

func (c *Client) fetch(ctx context.Context) domain.SourceResult {
	if c.apiKey == "" {
		return domain.Failed(SourceName, "api key not configured")
	}

	u := fmt.Sprintf("%s/observacion/convencional/datos/estacion/%s", c.baseURL, c.stationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.Failed(SourceName, fmt.Sprintf("create request: %v", err))
	}
	req.Header.Set("api_key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Failed(SourceName, fmt.Sprintf("http request: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Failed(SourceName, fmt.Sprintf("http status %d: %s", resp.StatusCode, body))
	}

	var rows []observation
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return domain.Failed(SourceName, fmt.Sprintf("decode response: %v", err))
	}
	if len(rows) == 0 {
		return domain.Failed(SourceName, "empty observation series")
	}

	// Rows arrive oldest first; the last one is the freshest observation.
	latest := rows[len(rows)-1]
	result := domain.SourceResult{
		SourceName:    SourceName,
		Status:        domain.StatusSuccess,
		Temperature:   sample(latest.Temperature),
		Humidity:      sample(latest.Humidity),
		Precipitation: sample(latest.Precipitation),
		WindSpeed:     sample(latest.WindSpeed),
		WindDirection: sample(latest.WindDirection),
		Pressure:      sample(latest.Pressure),
	}

	if !result.Temperature.Valid && !result.Precipitation.Valid && !result.WindSpeed.Valid {
		return domain.Failed(SourceName, "observation contains only sentinel/missing values")
	}
	return result
}

// sample translates an optional upstream value into a Sample, rejecting
// sentinel markers.
func sample(v *float64) domain.Sample {
	if v == nil || sentinels[*v] {
		return domain.Sample{}
	}
	return domain.Some(*v)
}

// Package era5 fetches a short retrospective daily series from the ERA5
// reanalysis archive (Open-Meteo archive endpoint) for baseline computation.
package era5

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/railmet/platform-risk-service/internal/domain"
)

// SourceName labels the climatology series in baseline metadata.
const SourceName = "era5"

// Client calls the archive daily endpoint for a fixed coordinate.
type Client struct {
	lat, lon   float64
	baseURL    string
	httpClient *http.Client
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewClient creates an ERA5 archive client. baseURL overrides the production
// endpoint, used by tests.
func NewClient(lat, lon float64, baseURL string, timeout time.Duration, clock clockwork.Clock, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://archive-api.open-meteo.com"
	}
	return &Client{
		lat:        lat,
		lon:        lon,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		clock:      clock,
		logger:     logger,
	}
}

// response mirrors the archive daily JSON. Per-day values can be null when
// reanalysis data has not landed yet, hence the pointer slices.
type response struct {
	Daily struct {
		Time          []string   `json:"time"`
		Temperature   []*float64 `json:"temperature_2m_mean"`
		Humidity      []*float64 `json:"relative_humidity_2m_mean"`
		Precipitation []*float64 `json:"precipitation_sum"`
		WindSpeed     []*float64 `json:"wind_speed_10m_mean"`
		Pressure      []*float64 `json:"surface_pressure_mean"`
	} `json:"daily"`
}

// RecentDaily returns up to `days` complete HistoricalDay records ending a few
// days back (the reanalysis lag). Days with any missing parameter are skipped
// rather than filled.
func (c *Client) RecentDaily(ctx context.Context, days int) ([]domain.HistoricalDay, error) {
	// ERA5 final data lags roughly five days behind real time.
	end := c.clock.Now().UTC().AddDate(0, 0, -5)
	start := end.AddDate(0, 0, -(days - 1))

	params := url.Values{
		"latitude":   {fmt.Sprintf("%.4f", c.lat)},
		"longitude":  {fmt.Sprintf("%.4f", c.lon)},
		"start_date": {start.Format("2006-01-02")},
		"end_date":   {end.Format("2006-01-02")},
		"daily":      {"temperature_2m_mean,relative_humidity_2m_mean,precipitation_sum,wind_speed_10m_mean,surface_pressure_mean"},
		"timezone":   {"UTC"},
	}
	u := c.baseURL + "/v1/archive?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("era5 archive request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("era5 archive status %d: %s", resp.StatusCode, body)
	}

	var ar response
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return nil, fmt.Errorf("decode era5 response: %w", err)
	}

	series := buildSeries(ar)
	if len(series) == 0 {
		return nil, fmt.Errorf("era5 archive returned no complete days in %s..%s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	c.logger.Debug("era5 series fetched", "days", len(series))
	return series, nil
}

func buildSeries(ar response) []domain.HistoricalDay {
	d := ar.Daily
	series := make([]domain.HistoricalDay, 0, len(d.Time))
	for i, ts := range d.Time {
		date, err := time.Parse("2006-01-02", ts)
		if err != nil {
			continue
		}
		temp, okT := at(d.Temperature, i)
		hum, okH := at(d.Humidity, i)
		precip, okP := at(d.Precipitation, i)
		wind, okW := at(d.WindSpeed, i)
		pres, okPr := at(d.Pressure, i)
		if !okT || !okH || !okP || !okW || !okPr {
			continue
		}
		series = append(series, domain.HistoricalDay{
			Date:        date,
			TempC:       temp,
			HumidityPct: hum,
			PrecipMM:    precip,
			WindSpeedMS: wind,
			PressureHPa: pres,
		})
	}
	return series
}

func at(values []*float64, i int) (float64, bool) {
	if i >= len(values) || values[i] == nil {
		return 0, false
	}
	return *values[i], true
}

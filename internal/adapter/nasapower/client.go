// Package nasapower fetches hourly point data from the NASA POWER API.
// It is the secondary fusion source.
//
// POWER publishes with a lag of several days, so there is no "current hour"
// endpoint to call. The client walks an ordered list of date windows, most
// recent first, and uses the first window whose freshest hour carries valid
// (non-sentinel) values for the required parameters.
package nasapower

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/railmet/platform-risk-service/internal/domain"
)

// SourceName identifies this adapter in fusion output and metrics.
const SourceName = "nasa-power"

// powerSentinel is the POWER fill value for missing data.
const powerSentinel = -999.0

// windowOffsetsDays are the lookback offsets tried in order. POWER data is
// usually complete two days back; the later offsets cover processing delays.
var windowOffsetsDays = []int{2, 4, 7}

// Client calls the POWER hourly point endpoint for a fixed coordinate.
type Client struct {
	lat, lon   float64
	baseURL    string
	httpClient *http.Client
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewClient creates a POWER client. baseURL overrides the production endpoint,
// used by tests.
func NewClient(lat, lon float64, baseURL string, timeout time.Duration, clock clockwork.Clock, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://power.larc.nasa.gov"
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

// Name implements the pipeline source adapter contract.
func (c *Client) Name() string { return SourceName }

// response mirrors the POWER hourly JSON: each parameter maps hour keys
// (YYYYMMDDHH) to values, with -999 as the fill value.
type response struct {
	Properties struct {
		Parameter map[string]map[string]float64 `json:"parameter"`
	} `json:"properties"`
}

// Fetch walks the date windows and returns the first valid reading. All
// windows failing yields a single error-status result naming the cause.
func (c *Client) Fetch(ctx context.Context) domain.SourceResult {
	start := time.Now()
	result := c.fetch(ctx)
	result.FetchedAt = time.Now().UTC()
	result.Elapsed = time.Since(start)

	if result.Status == domain.StatusError {
		c.logger.Warn("nasa power fetch failed", "error", result.ErrorMessage)
	}
	return result
}

func (c *Client) fetch(ctx context.Context) domain.SourceResult {
	var lastCause string
	for _, offset := range windowOffsetsDays {
		day := c.clock.Now().UTC().AddDate(0, 0, -offset)
		result, cause := c.fetchWindow(ctx, day)
		if cause == "" {
			return result
		}
		lastCause = fmt.Sprintf("window %s: %s", day.Format("2006-01-02"), cause)
		c.logger.Debug("nasa power window rejected", "window", day.Format("2006-01-02"), "cause", cause)
	}
	return domain.Failed(SourceName, "all date windows failed, last: "+lastCause)
}

// fetchWindow fetches one single-day window and validates it. The empty cause
// string signals success.
func (c *Client) fetchWindow(ctx context.Context, day time.Time) (domain.SourceResult, string) {
	params := url.Values{
		"parameters": {"T2M,RH2M,PRECTOTCORR,WS10M,WD10M,PS"},
		"community":  {"RE"},
		"latitude":   {fmt.Sprintf("%.4f", c.lat)},
		"longitude":  {fmt.Sprintf("%.4f", c.lon)},
		"start":      {day.Format("20060102")},
		"end":        {day.Format("20060102")},
		"format":     {"JSON"},
	}
	u := c.baseURL + "/api/temporal/hourly/point?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.SourceResult{}, fmt.Sprintf("create request: %v", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.SourceResult{}, fmt.Sprintf("http request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.SourceResult{}, fmt.Sprintf("http status %d: %s", resp.StatusCode, body)
	}

	var pr response
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return domain.SourceResult{}, fmt.Sprintf("decode response: %v", err)
	}

	return buildResult(pr)
}

// buildResult picks the freshest hour whose required parameters are all
// non-sentinel. Temperature, wind and precipitation are required; humidity,
// direction and pressure degrade to absent samples when missing.
func buildResult(pr response) (domain.SourceResult, string) {
	temps := pr.Properties.Parameter["T2M"]
	if len(temps) == 0 {
		return domain.SourceResult{}, "empty series"
	}

	hours := make([]string, 0, len(temps))
	for h := range temps {
		hours = append(hours, h)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(hours)))

	for _, hour := range hours {
		temp := valueAt(pr, "T2M", hour)
		wind := valueAt(pr, "WS10M", hour)
		precip := valueAt(pr, "PRECTOTCORR", hour)
		if !temp.Valid || !wind.Valid || !precip.Valid {
			continue
		}

		pressure := valueAt(pr, "PS", hour)
		if pressure.Valid {
			// POWER reports surface pressure in kPa.
			pressure = domain.Some(pressure.Value * 10)
		}

		return domain.SourceResult{
			SourceName:    SourceName,
			Status:        domain.StatusSuccess,
			Temperature:   temp,
			Humidity:      valueAt(pr, "RH2M", hour),
			Precipitation: precip,
			WindSpeed:     wind,
			WindDirection: valueAt(pr, "WD10M", hour),
			Pressure:      pressure,
		}, ""
	}

	return domain.SourceResult{}, "series contains only sentinel/missing values"
}

func valueAt(pr response, param, hour string) domain.Sample {
	values, ok := pr.Properties.Parameter[param]
	if !ok {
		return domain.Sample{}
	}
	v, ok := values[hour]
	if !ok || v == powerSentinel {
		return domain.Sample{}
	}
	return domain.Some(v)
}

package nasapower_test

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/railmet/platform-risk-service/internal/adapter/nasapower"
	"github.com/railmet/platform-risk-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The fake clock pins "today"; the client then walks the 2-, 4- and 7-day
// lookback windows: 20260824, 20260822, 20260819.
var testNow = time.Date(2026, time.August, 26, 12, 0, 0, 0, time.UTC)

func hourlyBody(day string, values map[string]map[string]float64) string {
	body := `{"properties":{"parameter":{`
	first := true
	for param, hours := range values {
		if !first {
			body += ","
		}
		first = false
		body += fmt.Sprintf("%q:{", param)
		h := true
		for hour, v := range hours {
			if !h {
				body += ","
			}
			h = false
			body += fmt.Sprintf("%q:%v", day+hour, v)
		}
		body += "}"
	}
	return body + `}}}`
}

func validDay(day string) string {
	return hourlyBody(day, map[string]map[string]float64{
		"T2M":         {"10": 25.0, "11": 26.5},
		"RH2M":        {"10": 60, "11": 58},
		"PRECTOTCORR": {"10": 0, "11": 0.2},
		"WS10M":       {"10": 3.9, "11": 4.2},
		"WD10M":       {"10": 80, "11": 95},
		"PS":          {"10": 101.2, "11": 101.3},
	})
}

func newTestClient(t *testing.T, handler http.Handler) *nasapower.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return nasapower.NewClient(39.4667, -0.3774, srv.URL, 2*time.Second,
		clockwork.NewFakeClockAt(testNow), slog.Default())
}

func TestFetch_FirstWindowValid(t *testing.T) {
	var requests atomic.Int64
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "20260824", r.URL.Query().Get("start"))
		assert.Equal(t, "20260824", r.URL.Query().Get("end"))
		w.Write([]byte(validDay("20260824")))
	}))

	result := client.Fetch(context.Background())

	require.Equal(t, domain.StatusSuccess, result.Status)
	assert.EqualValues(t, 1, requests.Load())

	// Hour 11 is the freshest complete hour.
	assert.Equal(t, domain.Some(26.5), result.Temperature)
	assert.Equal(t, domain.Some(58.0), result.Humidity)
	assert.Equal(t, domain.Some(0.2), result.Precipitation)
	assert.Equal(t, domain.Some(4.2), result.WindSpeed)
	assert.Equal(t, domain.Some(95.0), result.WindDirection)
	// Surface pressure arrives in kPa and is republished in hPa.
	assert.InDelta(t, 1013.0, result.Pressure.Value, 1e-9)
}

func TestFetch_SkipsSentinelHours(t *testing.T) {
	body := hourlyBody("20260824", map[string]map[string]float64{
		"T2M":         {"10": 25.0, "11": -999},
		"RH2M":        {"10": 60, "11": 58},
		"PRECTOTCORR": {"10": 0, "11": 0.2},
		"WS10M":       {"10": 3.9, "11": 4.2},
		"WD10M":       {"10": 80, "11": 95},
		"PS":          {"10": -999, "11": 101.3},
	})
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(body))
	}))

	result := client.Fetch(context.Background())

	require.Equal(t, domain.StatusSuccess, result.Status)
	// Hour 11 temperature is a sentinel, so hour 10 is used instead, where
	// the optional pressure happens to be a sentinel too.
	assert.Equal(t, domain.Some(25.0), result.Temperature)
	assert.False(t, result.Pressure.Valid)
}

func TestFetch_FallsBackToOlderWindow(t *testing.T) {
	var windows []string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		day := r.URL.Query().Get("start")
		windows = append(windows, day)
		if day == "20260824" {
			// All hours sentinel: the window must be rejected.
			w.Write([]byte(hourlyBody(day, map[string]map[string]float64{
				"T2M": {"10": -999}, "WS10M": {"10": -999}, "PRECTOTCORR": {"10": -999},
			})))
			return
		}
		w.Write([]byte(validDay(day)))
	}))

	result := client.Fetch(context.Background())

	require.Equal(t, domain.StatusSuccess, result.Status)
	assert.Equal(t, []string{"20260824", "20260822"}, windows)
}

func TestFetch_AllWindowsFail(t *testing.T) {
	var requests atomic.Int64
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		http.Error(w, "upstream maintenance", http.StatusBadGateway)
	}))

	result := client.Fetch(context.Background())

	assert.Equal(t, domain.StatusError, result.Status)
	assert.EqualValues(t, 3, requests.Load(), "every lookback window must be tried")
	assert.Contains(t, result.ErrorMessage, "all date windows failed")
	assert.Contains(t, result.ErrorMessage, "2026-08-19")
	assert.Contains(t, result.ErrorMessage, "http status 502")
}

func TestFetch_EmptySeries(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"properties":{"parameter":{}}}`))
	}))

	result := client.Fetch(context.Background())

	assert.Equal(t, domain.StatusError, result.Status)
	assert.Contains(t, result.ErrorMessage, "empty series")
}

func TestName(t *testing.T) {
	client := nasapower.NewClient(0, 0, "", time.Second, clockwork.NewFakeClockAt(testNow), slog.Default())
	assert.Equal(t, "nasa-power", client.Name())
}

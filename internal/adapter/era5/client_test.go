package era5_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/railmet/platform-risk-service/internal/adapter/era5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.August, 26, 12, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, handler http.HandlerFunc) *era5.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return era5.NewClient(39.4667, -0.3774, srv.URL, 2*time.Second,
		clockwork.NewFakeClockAt(testNow), slog.Default())
}

func TestRecentDaily_ParsesSeries(t *testing.T) {
	var query string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		assert.Equal(t, "/v1/archive", r.URL.Path)
		w.Write([]byte(`{"daily":{
			"time": ["2026-08-19", "2026-08-20", "2026-08-21"],
			"temperature_2m_mean": [24.1, 25.0, 26.2],
			"relative_humidity_2m_mean": [62, 58, 55],
			"precipitation_sum": [0.0, 1.4, 0.0],
			"wind_speed_10m_mean": [3.2, 4.8, 4.1],
			"surface_pressure_mean": [1013.1, 1012.4, 1014.0]
		}}`))
	})

	days, err := client.RecentDaily(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, days, 3)

	// The window ends five days back from "today" (the reanalysis lag).
	assert.Contains(t, query, "start_date=2026-08-19")
	assert.Contains(t, query, "end_date=2026-08-21")

	assert.Equal(t, time.Date(2026, time.August, 19, 0, 0, 0, 0, time.UTC), days[0].Date)
	assert.Equal(t, 24.1, days[0].TempC)
	assert.Equal(t, 1.4, days[1].PrecipMM)
	assert.Equal(t, 4.1, days[2].WindSpeedMS)
	assert.Equal(t, 1014.0, days[2].PressureHPa)
}

func TestRecentDaily_SkipsIncompleteDays(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"daily":{
			"time": ["2026-08-19", "2026-08-20", "2026-08-21"],
			"temperature_2m_mean": [24.1, null, 26.2],
			"relative_humidity_2m_mean": [62, 58, 55],
			"precipitation_sum": [0.0, 1.4, null],
			"wind_speed_10m_mean": [3.2, 4.8, 4.1],
			"surface_pressure_mean": [1013.1, 1012.4, 1014.0]
		}}`))
	})

	days, err := client.RecentDaily(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, days, 1, "days with any null parameter are dropped")
	assert.Equal(t, 24.1, days[0].TempC)
}

func TestRecentDaily_NoCompleteDays(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"daily":{
			"time": ["2026-08-21"],
			"temperature_2m_mean": [null],
			"relative_humidity_2m_mean": [55],
			"precipitation_sum": [0.0],
			"wind_speed_10m_mean": [4.1],
			"surface_pressure_mean": [1014.0]
		}}`))
	})

	_, err := client.RecentDaily(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no complete days")
}

func TestRecentDaily_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := client.RecentDaily(context.Background(), 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

package pattern_test

import (
	"testing"

	"github.com/railmet/platform-risk-service/internal/baseline"
	"github.com/railmet/platform-risk-service/internal/domain"
	"github.com/railmet/platform-risk-service/internal/pattern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reading(precip, wind, temp float64) domain.WeatherReading {
	return domain.WeatherReading{
		PrecipitationMMH: precip,
		WindSpeedMS:      wind,
		TemperatureC:     temp,
	}
}

func TestCatalog(t *testing.T) {
	events := pattern.Catalog()
	require.NotEmpty(t, events)

	for i := 1; i < len(events); i++ {
		assert.True(t, events[i].Date.After(events[i-1].Date),
			"catalog must be ordered oldest first: %s", events[i].Name)
	}
	for _, ev := range events {
		assert.NotEmpty(t, ev.Name)
		assert.NotEmpty(t, ev.Impact)
		assert.LessOrEqual(t, ev.TempMinC, ev.TempMaxC, ev.Name)
	}
}

func TestAssess_LatestMatchingEventWins(t *testing.T) {
	// These conditions sit within default tolerance of several autumn storm
	// events; the most recent one must be reported.
	a := pattern.Assess(reading(22.3, 24.7, 18.4), 72, domain.AnomalyHigh, nil)

	require.NotNil(t, a.Match)
	assert.Equal(t, "Borrasca Gloria", a.Match.Name)
	assert.Equal(t, 3, a.Conditions)
	assert.Equal(t, 87, a.EffectiveScore) // 72 + 10 anomaly + 5 match
	assert.Equal(t, domain.WarningAlert, a.Warning)
}

func TestAssess_NoMatch(t *testing.T) {
	// Nothing in the catalog resembles a 70 mm/h deluge with 60 m/s wind at
	// 50°C; at most one condition can be met per event.
	a := pattern.Assess(reading(70, 60, 50), 40, domain.AnomalyNormal, nil)

	assert.Nil(t, a.Match)
	assert.Zero(t, a.Conditions)
	assert.Equal(t, 40, a.EffectiveScore)
	assert.Equal(t, domain.WarningWatch, a.Warning)
}

func TestAssess_WarningBucketsDifferWithMatch(t *testing.T) {
	// An identical effective score of 35 is a watch when a historical event
	// matched, but only informational without one.
	matched := pattern.Assess(reading(25, 28, 10), 30, domain.AnomalyNormal, nil)
	require.NotNil(t, matched.Match)
	assert.Equal(t, 35, matched.EffectiveScore)
	assert.Equal(t, domain.WarningWatch, matched.Warning)

	unmatched := pattern.Assess(reading(70, 60, 50), 35, domain.AnomalyNormal, nil)
	require.Nil(t, unmatched.Match)
	assert.Equal(t, 35, unmatched.EffectiveScore)
	assert.Equal(t, domain.WarningWatch, unmatched.Warning)

	colder := pattern.Assess(reading(70, 60, 50), 30, domain.AnomalyNormal, nil)
	require.Nil(t, colder.Match)
	assert.Equal(t, domain.WarningInfo, colder.Warning)
}

func TestAssess_BonusLadder(t *testing.T) {
	tests := []struct {
		level domain.AnomalyLevel
		want  int
	}{
		{domain.AnomalyNormal, 45},   // 40 + 0 + 5
		{domain.AnomalyModerate, 50}, // 40 + 5 + 5
		{domain.AnomalyHigh, 55},
		{domain.AnomalyExtreme, 60},
	}
	for _, tt := range tests {
		a := pattern.Assess(reading(25, 28, 10), 40, tt.level, nil)
		require.NotNil(t, a.Match, "level %s", tt.level)
		assert.Equal(t, tt.want, a.EffectiveScore, "level %s", tt.level)
	}
}

func TestAssess_EffectiveScoreCapped(t *testing.T) {
	a := pattern.Assess(reading(25, 28, 10), 95, domain.AnomalyExtreme, nil)
	require.NotNil(t, a.Match)
	assert.Equal(t, 100, a.EffectiveScore)
}

func TestAssess_BaselineAnomaliesTightenTolerances(t *testing.T) {
	// At -20°C no catalog temperature range applies, so a match needs both the
	// precipitation and wind conditions. Within default tolerances this still
	// resembles the recent wind storms; with large baseline anomalies the
	// tolerances shrink and no event reaches two conditions.
	r := reading(31, 34, -20)

	loose := pattern.Assess(r, 50, domain.AnomalyNormal, nil)
	require.NotNil(t, loose.Match)
	assert.Equal(t, "Borrasca Gloria", loose.Match.Name)

	b := &baseline.Baseline{}
	b.Precipitation.Anomaly = 22
	b.WindSpeed.Anomaly = 26

	tight := pattern.Assess(r, 50, domain.AnomalyNormal, b)
	assert.Nil(t, tight.Match)
}

func TestAssess_ToleranceFloorsStillAllowExactMatch(t *testing.T) {
	// Even with absurd anomalies the tolerances bottom out at their floors,
	// so conditions identical to a catalog event keep matching.
	b := &baseline.Baseline{}
	b.Precipitation.Anomaly = 1000
	b.WindSpeed.Anomaly = 1000
	b.Temperature.Anomaly = 1000

	a := pattern.Assess(reading(25, 28, 10), 60, domain.AnomalyNormal, b)
	require.NotNil(t, a.Match)
	assert.Equal(t, "Borrasca Gloria", a.Match.Name)
}

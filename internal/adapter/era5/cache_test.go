package era5_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/railmet/platform-risk-service/internal/adapter/era5"
	"github.com/railmet/platform-risk-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	calls int
	err   error
}

func (p *countingProvider) RecentDaily(_ context.Context, days int) ([]domain.HistoricalDay, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	series := make([]domain.HistoricalDay, days)
	for i := range series {
		series[i] = domain.HistoricalDay{TempC: 20 + float64(i)}
	}
	return series, nil
}

func TestCachedProvider_ServesRepeatCallsFromCache(t *testing.T) {
	inner := &countingProvider{}
	clock := clockwork.NewFakeClockAt(testNow)
	cached := era5.NewCachedProvider(inner, 4, clock)

	ctx := context.Background()
	first, err := cached.RecentDaily(ctx, 5)
	require.NoError(t, err)

	second, err := cached.RecentDaily(ctx, 5)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls, "same window on the same day must hit the cache")
	assert.Equal(t, first, second)
}

func TestCachedProvider_WindowLengthIsPartOfTheKey(t *testing.T) {
	inner := &countingProvider{}
	cached := era5.NewCachedProvider(inner, 4, clockwork.NewFakeClockAt(testNow))

	ctx := context.Background()
	_, err := cached.RecentDaily(ctx, 5)
	require.NoError(t, err)
	_, err = cached.RecentDaily(ctx, 7)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedProvider_RefetchesNextDay(t *testing.T) {
	inner := &countingProvider{}
	clock := clockwork.NewFakeClockAt(testNow)
	cached := era5.NewCachedProvider(inner, 4, clock)

	ctx := context.Background()
	_, err := cached.RecentDaily(ctx, 5)
	require.NoError(t, err)

	clock.Advance(24 * time.Hour)
	_, err = cached.RecentDaily(ctx, 5)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls, "the window shifts with the calendar day")
}

func TestCachedProvider_ErrorsAreNotCached(t *testing.T) {
	inner := &countingProvider{err: errors.New("archive down")}
	cached := era5.NewCachedProvider(inner, 4, clockwork.NewFakeClockAt(testNow))

	ctx := context.Background()
	_, err := cached.RecentDaily(ctx, 5)
	require.Error(t, err)

	inner.err = nil
	series, err := cached.RecentDaily(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, series, 5)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedProvider_EvictsLeastRecentlyUsed(t *testing.T) {
	inner := &countingProvider{}
	cached := era5.NewCachedProvider(inner, 2, clockwork.NewFakeClockAt(testNow))

	ctx := context.Background()
	for _, days := range []int{1, 2, 3} {
		_, err := cached.RecentDaily(ctx, days)
		require.NoError(t, err)
	}
	require.Equal(t, 3, inner.calls)

	// days=1 was evicted when days=3 arrived; days=3 is still resident.
	_, err := cached.RecentDaily(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls)

	_, err = cached.RecentDaily(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, inner.calls)
}

package finance

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSource returns fixed data and counts calls.
type stubSource struct {
	name   string
	assets []AssetData
	err    error
	calls  int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(_ context.Context, symbols []string, _, _ time.Time, _ Interval) ([]AssetData, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return copyAssets(s.assets), nil
}

func TestCachedSource_MemoizesByKey(t *testing.T) {
	stub := &stubSource{name: "stub", assets: []AssetData{{Symbol: "SPY", Timestamps: []int64{1, 2}, Prices: []float64{10, 11}}}}
	cs := NewCachedSource(stub, time.Minute)
	ctx := context.Background()
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

	first, err := cs.Fetch(ctx, []string{"SPY"}, start, end, IntervalMonthly)
	require.NoError(t, err)
	first[0].Prices[0] = -1 // callers may scribble on their copy

	second, err := cs.Fetch(ctx, []string{"SPY"}, start, end, IntervalMonthly)
	require.NoError(t, err)
	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, 10.0, second[0].Prices[0])

	_, err = cs.Fetch(ctx, []string{"SPY"}, start, end, IntervalWeekly)
	require.NoError(t, err)
	assert.Equal(t, 2, stub.calls)
	assert.Equal(t, "stub", cs.Name())
}

func TestCachedSource_ErrorsAreNotCached(t *testing.T) {
	stub := &stubSource{name: "stub", err: errors.New("boom")}
	cs := NewCachedSource(stub, time.Minute)
	for i := 0; i < 2; i++ {
		_, err := cs.Fetch(context.Background(), []string{"X"}, time.Now(), time.Now(), IntervalMonthly)
		require.Error(t, err)
	}
	assert.Equal(t, 2, stub.calls)
}

func TestTTLCache_Expiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := newTTLCache[int](time.Minute)
	c.now = func() time.Time { return now }

	c.set("a", 1)
	v, ok := c.get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(time.Minute)
	_, ok = c.get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.len())
}

func TestTTLCache_Disabled(t *testing.T) {
	c := newTTLCache[string](0)
	c.set("a", "x")
	_, ok := c.get("a")
	assert.False(t, ok)
}

func TestChartCache_CopiesImages(t *testing.T) {
	cc := newChartCache(time.Minute)
	img := []byte{1, 2, 3}
	cc.set("k", img)
	img[0] = 9
	got, ok := cc.get("k")
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, got)
}

func TestFilterPositive(t *testing.T) {
	ts, cl := filterPositive([]int64{1, 2, 3, 4, 5, 6}, []float64{1, 0, -2, math.NaN(), math.Inf(1), 3})
	assert.Equal(t, []int64{1, 6}, ts)
	assert.Equal(t, []float64{1, 3}, cl)

	ts, cl = filterPositive([]int64{1, 2, 3}, []float64{5})
	assert.Equal(t, []int64{1}, ts)
	assert.Equal(t, []float64{5}, cl)
}

func TestAlignSeries_IntersectsDays(t *testing.T) {
	day := func(d int) int64 { return time.Date(2024, 1, d, 14, 30, 0, 0, time.UTC).Unix() }
	assets := []AssetData{
		{Symbol: "A", Timestamps: []int64{day(1), day(8), day(15), day(22)}, Prices: []float64{1, 2, 3, 4}},
		{Symbol: "B", Timestamps: []int64{day(22), day(8), day(1)}, Prices: []float64{40, 20, 0}},
	}
	grid, prices, err := alignSeries(assets)
	require.NoError(t, err)
	require.Len(t, grid, 2)
	assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), grid[0])
	assert.Equal(t, time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC), grid[1])
	assert.Equal(t, []float64{2, 4}, prices[0])
	assert.Equal(t, []float64{20, 40}, prices[1])
}

func TestAlignSeries_NoOverlap(t *testing.T) {
	_, _, err := alignSeries([]AssetData{
		{Symbol: "A", Timestamps: []int64{0}, Prices: []float64{1}},
		{Symbol: "B", Timestamps: []int64{86400 * 3}, Prices: []float64{1}},
	})
	require.Error(t, err)

	_, _, err = alignSeries([]AssetData{{Symbol: "A", Timestamps: []int64{0}, Prices: []float64{0}}})
	require.Error(t, err)
}

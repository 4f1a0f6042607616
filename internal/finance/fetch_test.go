package finance

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartBody = `{"chart":{"result":[{"meta":{"symbol":"%s","currency":"USD"},
"timestamp":[1704067200,1704672000,1705276800,1705881600],
"indicators":{"quote":[{"close":[10.0,null,11.5,12.0]}],
"adjclose":[{"adjclose":[9.5,null,11.0,-1]}]}}],"error":null}}`

func testYahoo(urls ...string) *YahooSource {
	y := NewYahooSource(http.DefaultClient)
	y.baseURLs = urls
	y.backoffs = []time.Duration{time.Millisecond}
	y.pause = 0
	return y
}

func TestYahooSource_Fetch(t *testing.T) {
	var gotPath, gotInterval string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotInterval = r.URL.Query().Get("interval")
		fmt.Fprintf(w, chartBody, "SPY")
	}))
	defer srv.Close()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	assets, err := testYahoo(srv.URL).Fetch(context.Background(), []string{"spy"}, start, end, IntervalWeekly)
	require.NoError(t, err)
	require.Len(t, assets, 1)

	assert.Equal(t, "/v8/finance/chart/SPY", gotPath)
	assert.Equal(t, "1wk", gotInterval)
	// adjusted closes win; null and negative points are dropped
	assert.Equal(t, []int64{1704067200, 1705276800}, assets[0].Timestamps)
	assert.Equal(t, []float64{9.5, 11.0}, assets[0].Prices)
}

func TestYahooSource_RotatesHostsOnFailure(t *testing.T) {
	var badHits atomic.Int32
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		badHits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, "Edge: Too Many Requests")
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, chartBody, "QQQ")
	}))
	defer good.Close()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	assets, err := testYahoo(bad.URL, good.URL).Fetch(context.Background(), []string{"QQQ"}, start, end, IntervalWeekly)
	require.NoError(t, err)
	assert.Len(t, assets[0].Prices, 2)
	assert.Equal(t, int32(1), badHits.Load())
}

func TestYahooSource_GivesUpAfterBackoffs(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, "<html>consent</html>")
	}))
	defer srv.Close()

	_, err := testYahoo(srv.URL).Fetch(context.Background(), []string{"SPY"}, time.Now().AddDate(-1, 0, 0), time.Now(), IntervalMonthly)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-json")
	assert.Equal(t, int32(2), hits.Load())
}

func TestYahooSource_ChartError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
	}))
	defer srv.Close()

	_, err := testYahoo(srv.URL).Fetch(context.Background(), []string{"NOPE"}, time.Now().AddDate(-1, 0, 0), time.Now(), IntervalMonthly)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delisted")
}

func TestYahooSource_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testYahoo(srv.URL).Fetch(ctx, []string{"SPY"}, time.Now().AddDate(-1, 0, 0), time.Now(), IntervalMonthly)
	require.ErrorIs(t, err, context.Canceled)
}

package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeboard/internal/market"
	"tradeboard/internal/series"
)

var _ market.Source = (*Client)(nil)

func newBackend(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, body string) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
	mux.HandleFunc("/api/agents", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		write(w, `[{"id":"a1","name":"Alpha","initial_capital":20000},{"id":"a2","name":"Beta"}]`)
	})
	mux.HandleFunc("/api/agents/a1/assets", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("start"))
		write(w, `[{"date":"2024-01-02","value":21000},{"date":"2024-01-01","value":20000}]`)
	})
	mux.HandleFunc("/api/agents/a2/assets", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		write(w, `[{"date":"2024-01-03","value":5}]`)
	})
	mux.HandleFunc("/api/agents/broken/assets", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/api/agents/a1/flows", func(w http.ResponseWriter, r *http.Request) {
		write(w, `[{"date":"2024-01-01","category":"stock","amount":-100}]`)
	})
	mux.HandleFunc("/api/stocks/600519/kline", func(w http.ResponseWriter, r *http.Request) {
		write(w, `[{"date":"2024-01-02","open":2,"close":3,"high":4,"low":1,"volume":10},
			{"date":"2024-01-01","open":1,"close":2,"high":3,"low":0.5,"volume":9}]`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestClientEndpoints(t *testing.T) {
	srv, _ := newBackend(t)
	c := New(Config{BaseURL: srv.URL + "/", Token: "secret"})
	ctx := context.Background()

	agents, err := c.ListAgents(ctx)
	require.NoError(t, err)
	require.Len(t, agents, 2)
	require.NotNil(t, agents[0].InitialCapital)
	assert.Equal(t, 20000.0, *agents[0].InitialCapital)
	assert.Nil(t, agents[1].InitialCapital)

	points, err := c.FetchAssets(ctx, "a1", "2024-01-01", "")
	require.NoError(t, err)
	assert.Equal(t, []series.DatedValue{{Date: "2024-01-01", Value: 20000}, {Date: "2024-01-02", Value: 21000}}, points)

	candles, err := c.FetchKLine(ctx, "600519")
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, "2024-01-01", candles[0].Date)

	daily, err := c.FetchDaily(ctx, "600519", 1)
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, 3.0, daily[0].Close)

	flows, err := c.FetchFlows(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, flows, 1)
	assert.Equal(t, -100.0, flows[0].Amount)
}

func TestClientErrors(t *testing.T) {
	srv, _ := newBackend(t)
	c := New(Config{BaseURL: srv.URL})
	_, err := c.FetchAssets(context.Background(), "broken", "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")

	_, err = New(Config{}).ListAgents(context.Background())
	assert.Error(t, err)
}

func TestFetchMany(t *testing.T) {
	srv, hits := newBackend(t)
	c := New(Config{BaseURL: srv.URL, Concurrency: 2})
	base := 20000.0
	agents := []Agent{{ID: "a1", Name: "Alpha", InitialCapital: &base}, {ID: "a2", Name: "Beta"}}

	got, err := c.FetchMany(context.Background(), agents, "2024-01-01", "")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Alpha", got[0].Label)
	assert.Equal(t, &base, got[0].Baseline)
	assert.Equal(t, "a2", got[1].ID)
	assert.Len(t, got[1].Points, 1)
	assert.EqualValues(t, 2, atomic.LoadInt32(hits))

	_, err = c.FetchMany(context.Background(), append(agents, Agent{ID: "broken"}), "2024-01-01", "")
	assert.Error(t, err)
}

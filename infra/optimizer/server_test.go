package optimizer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/berthplan/core/allocation"
	"github.com/kilianp07/berthplan/core/model"
	"github.com/kilianp07/berthplan/infra/logger"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(Config{}, logger.NopLogger{}, prometheus.NewRegistry())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func TestServer_RoundTrip(t *testing.T) {
	s, ts := newTestServer(t)
	c, err := NewClient(Config{URL: ts.URL}, nil, logger.NopLogger{})
	require.NoError(t, err)
	strategy := NewRemoteStrategy(c)

	require.NoError(t, strategy.Probe(context.Background()))
	res, err := strategy.Allocate(context.Background(), allocation.Request{
		Ships: []model.Ship{
			vessel("s1", 200, 1, base, 4*time.Hour),
			vessel("s2", 150, 2, base, 4*time.Hour),
		},
		Docks:   []model.Dock{berth("d1", 300)},
		Goal:    model.GoalBalanced,
		Weather: calm(),
	})
	require.NoError(t, err)
	assert.Equal(t, "remote", res.Strategy)
	require.Len(t, res.Allocations, 1)
	assert.Equal(t, "s1", res.Allocations[0].ShipID)
	require.Len(t, res.Unassigned, 1)
	assert.Equal(t, allocation.CodeNoSpace, res.Unassigned[0].Code)
	assert.Equal(t, allocation.ReasonNoSpace, res.Unassigned[0].Reason)
	assert.False(t, res.WeatherWarning)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.requests.WithLabelValues("probe")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.requests.WithLabelValues("ok")))
}

func TestServer_BadPayload(t *testing.T) {
	s, ts := newTestServer(t)
	resp, err := http.Post(ts.URL+DefaultPath, "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.requests.WithLabelValues("bad_request")))

	resp, err = http.Get(ts.URL + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_SolverFailureFallsBackToLocal(t *testing.T) {
	orig := lpSolve
	t.Cleanup(func() { lpSolve = orig })
	lpSolve = func([]pair, []model.Ship, []model.Dock) ([]float64, error) {
		return nil, errors.New("boom")
	}
	_, ts := newTestServer(t)
	c, err := NewClient(Config{URL: ts.URL}, nil, nil)
	require.NoError(t, err)

	req := allocation.Request{
		Ships:   []model.Ship{vessel("s1", 100, 1, base, time.Hour)},
		Docks:   []model.Dock{berth("d1", 300)},
		Goal:    model.GoalBalanced,
		Weather: calm(),
	}
	_, err = c.Run(context.Background(), req)
	require.ErrorIs(t, err, ErrBadResponse)

	chain, err := allocation.NewFallbackChain(logger.NopLogger{}, nil, NewRemoteStrategy(c), allocation.NewLocalStrategy())
	require.NoError(t, err)
	res, err := chain.Allocate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "local", res.Strategy)
	assert.Len(t, res.Allocations, 1)
}

func TestServer_StartAndShutdown(t *testing.T) {
	s := NewServer(Config{ListenAddr: "127.0.0.1:0"}, nil, prometheus.NewRegistry())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

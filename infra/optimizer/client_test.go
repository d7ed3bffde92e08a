package optimizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/berthplan/core/allocation"
	"github.com/kilianp07/berthplan/core/model"
	"github.com/kilianp07/berthplan/infra/logger"
)

func TestClient_RunDecodesAndNormalises(t *testing.T) {
	paris := time.FixedZone("CET", 3600)
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, paris)
	var got requestPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, map[string]any{
			"allocations": []map[string]any{{
				"id": "a1", "shipId": "s1", "dockId": "d1",
				"startTime": start, "endTime": start.Add(time.Hour), "created": start,
			}},
			"metrics":         map[string]any{"totalWaitingTime": 0, "dockUtilization": 0.4, "conflicts": 1},
			"unassignedShips": []map[string]any{{"ship": map[string]any{"id": "s2"}, "reason": "no room"}},
		})
	}))
	defer srv.Close()

	c, err := NewClient(Config{URL: srv.URL}, nil, logger.NopLogger{})
	require.NoError(t, err)
	req := allocation.Request{
		Ships: []model.Ship{{ID: "s1"}, {ID: "s2"}},
		Goal:  model.GoalDockUtilization,
	}
	res, err := c.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, model.GoalDockUtilization, got.OptimizationCriteria)
	assert.Len(t, got.Ships, 2)
	assert.NotNil(t, got.ExistingAllocations)

	require.Len(t, res.Allocations, 1)
	a := res.Allocations[0]
	assert.Equal(t, time.UTC, a.StartTime.Location())
	assert.True(t, a.StartTime.Equal(start))
	assert.Equal(t, model.StatusScheduled, a.Status)
	assert.InDelta(t, 0.4, res.Metrics.DockUtilization, 1e-9)
	assert.Equal(t, 1, res.Metrics.Conflicts)
	require.Len(t, res.Unassigned, 1)
	assert.Equal(t, allocation.CodeOptimizer, res.Unassigned[0].Code)
	assert.False(t, res.WeatherWarning)
}

func TestClient_RunErrors(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{"status", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}, ErrBadResponse},
		{"garbage", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}, ErrBadResponse},
		{"error field", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, responsePayload{Error: "solver exploded"})
		}, ErrBadResponse},
		{"missing dock", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, responsePayload{Allocations: []model.Allocation{{ID: "a", ShipID: "s"}}})
		}, ErrBadResponse},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			srv := httptest.NewServer(c.handler)
			defer srv.Close()
			cl, err := NewClient(Config{URL: srv.URL}, nil, nil)
			require.NoError(t, err)
			_, err = cl.Run(context.Background(), allocation.Request{})
			assert.ErrorIs(t, err, c.want)
		})
	}
}

func TestClient_ProbeAndTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// any response counts as available, even an error status
		w.WriteHeader(http.StatusInternalServerError)
	}))
	c, err := NewClient(Config{URL: srv.URL}, nil, nil)
	require.NoError(t, err)
	assert.NoError(t, c.Probe(context.Background()))
	srv.Close()
	assert.ErrorIs(t, c.Probe(context.Background()), ErrUnavailable)

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()
	c, err = NewClient(Config{URL: slow.URL, Timeout: 50 * time.Millisecond}, nil, nil)
	require.NoError(t, err)
	_, err = c.Run(context.Background(), allocation.Request{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_BearerToken(t *testing.T) {
	var hits atomic.Int32
	tokens := tokenServer(t, &hits)
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, responsePayload{})
	}))
	defer srv.Close()
	c, err := NewClient(Config{
		URL:  srv.URL,
		Auth: &AuthConfig{ClientID: "id", ClientSecret: "secret", TokenURL: tokens.URL},
	}, nil, nil)
	require.NoError(t, err)
	_, err = c.Run(context.Background(), allocation.Request{})
	require.NoError(t, err)
	assert.Equal(t, "Bearer token123", auth)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, Config{}.Validate())
	assert.Error(t, Config{Enabled: true}.Validate())
	assert.Error(t, Config{Enabled: true, URL: "localhost"}.Validate())
	assert.NoError(t, Config{Enabled: true, URL: "http://optimizer:5000"}.Validate())
	assert.Error(t, Config{Enabled: true, URL: "http://optimizer:5000", Auth: &AuthConfig{}}.Validate())

	var c Config
	c.SetDefaults()
	assert.Equal(t, DefaultTimeout, c.Timeout)
	assert.Equal(t, "http://x"+DefaultPath, Config{URL: "http://x"}.Endpoint())
}

package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/pipegrid/internal/config"
	"github.com/vk/pipegrid/internal/ctxlog"
	"github.com/vk/pipegrid/internal/engine"
	"github.com/vk/pipegrid/internal/matrix"
	"github.com/vk/pipegrid/internal/registry"
)

func TestStatusServer_Health(t *testing.T) {
	eng := engine.New(&config.Pipeline{Name: "p"}, registry.New(), engine.Options{})
	srv := newStatusServer(0, eng.Progress())

	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "OK")
}

func TestStatusServer_StatusSnapshot(t *testing.T) {
	reg := registry.New()
	reg.RegisterAction("noop", &registry.Action{
		Fn: func(context.Context, registry.ExecContext, any) error { return nil },
	})
	eng := engine.New(&config.Pipeline{
		Name:  "p",
		Axes:  []matrix.Axis{{Name: "os", Values: []string{"A", "B"}}},
		Steps: []*config.Step{{Name: "a", Action: "noop"}},
	}, reg, engine.Options{Workers: 2})
	srv := newStatusServer(0, eng.Progress())

	// Before the run starts the snapshot is empty.
	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var payload struct {
		Jobs []engine.JobProgress `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Empty(t, payload.Jobs)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := eng.Run(ctxlog.WithLogger(context.Background(), logger))
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Jobs, 2)
	assert.Equal(t, "os=A", payload.Jobs[0].Job)
	assert.Equal(t, engine.StateSucceeded, payload.Jobs[0].State)
}

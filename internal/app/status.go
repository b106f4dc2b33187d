package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vk/pipegrid/internal/ctxlog"
	"github.com/vk/pipegrid/internal/engine"
)

// statusServer serves the live run state over HTTP while jobs execute:
// /health for liveness probes and /status for the per-job progress snapshot.
type statusServer struct {
	server   *http.Server
	progress *engine.Progress
}

func newStatusServer(port int, progress *engine.Progress) *statusServer {
	s := &statusServer{progress: progress}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}
	return s
}

func (s *statusServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (s *statusServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	payload := struct {
		Jobs []engine.JobProgress `json:"jobs"`
	}{Jobs: s.progress.Snapshot()}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// start runs the server in a goroutine so it doesn't block the engine.
func (s *statusServer) start(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	go func() {
		logger.Info("🩺 Status server starting.", "address", fmt.Sprintf("http://localhost%s/status", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Status server failed unexpectedly.", "error", err)
		}
	}()
}

// shutdown stops the server gracefully once the run is over.
func (s *statusServer) shutdown(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Status server shutdown failed.", "error", err)
		return
	}
	logger.Debug("Status server shut down gracefully.")
}

// Package api serves the read-only alerts query surface.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/whalewatch/engine/internal/logger"
	"github.com/whalewatch/engine/internal/models"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// AlertStore lists previously stored alerts, newest trade first.
type AlertStore interface {
	ListAlerts(ctx context.Context, limit int) ([]models.Alert, error)
}

// Server is the read-only HTTP surface over stored alerts.
type Server struct {
	store      AlertStore
	httpServer *http.Server
}

// NewServer creates the server listening on addr.
func NewServer(store AlertStore, addr string) *Server {
	s := &Server{store: store}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/alerts", s.handleAlerts)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start serves requests until Shutdown. It blocks.
func (s *Server) Start() error {
	logger.Info("Alerts API listening on %s", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n > maxListLimit {
			n = maxListLimit
		}
		limit = n
	}

	alerts, err := s.store.ListAlerts(r.Context(), limit)
	if err != nil {
		logger.Error("Failed to list alerts: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list alerts")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

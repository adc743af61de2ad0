// internal/server/server.go

// Package server exposes the single-endpoint chat contract over HTTP, plus
// health and metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shop-assistant/internal/common/config"
	apperrors "shop-assistant/internal/common/errors"
	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/common/metrics"
	"shop-assistant/internal/common/observability"
	"shop-assistant/internal/models"
)

// turnHandler is the orchestrator slot.
type turnHandler interface {
	HandleTurn(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error)
}

type Server struct {
	httpServer *http.Server
	orch       turnHandler
	obs        *observability.Observability
	logger     logger.Logger
}

func New(cfg config.ServerConfig, orch turnHandler, obs *observability.Observability, log logger.Logger) *Server {
	s := &Server{
		orch:   orch,
		obs:    obs,
		logger: log.With(map[string]interface{}{"component": "server"}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Millisecond,
	}
	return s
}

func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", map[string]interface{}{
		"addr": s.httpServer.Addr,
	})
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperrors.NewInvalidRequestError(err.Error()), http.StatusBadRequest)
		return
	}

	start := time.Now()
	resp, err := s.orch.HandleTurn(r.Context(), &req)
	if err != nil {
		s.logTurnFailure(&req, err)
		metrics.TurnsFailed.WithLabelValues(string(apperrors.CodeOf(err))).Inc()
		s.writeError(w, err, http.StatusInternalServerError)
		return
	}

	metrics.TurnsTotal.WithLabelValues(resp.ResponseType).Inc()
	metrics.TurnDuration.WithLabelValues(resp.ResponseType).Observe(time.Since(start).Seconds())
	s.obs.RecordTurnProcessed(r.Context(), resp.ResponseType)
	s.obs.RecordTurnDuration(r.Context(), time.Since(start), resp.ResponseType)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("response encode failed", map[string]interface{}{
			"sessionId": resp.State.SessionID,
			"error":     err.Error(),
		})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// logTurnFailure records everything the generic 500 hides, including the raw
// classifier payload when the failure was a malformed response.
func (s *Server) logTurnFailure(req *models.ChatRequest, err error) {
	fields := map[string]interface{}{
		"sessionId": req.SessionID,
		"error":     err.Error(),
	}
	var se *apperrors.StandardError
	if errors.As(err, &se) {
		fields["code"] = string(se.Code)
		if raw, ok := se.Metadata["rawPayload"]; ok {
			fields["rawPayload"] = raw
		}
	}
	s.logger.Error("turn processing failed", fields)
}

// writeError always hides internals behind a generic message; the details
// live in the logs.
func (s *Server) writeError(w http.ResponseWriter, err error, status int) {
	message := "something went wrong processing your request"
	if status == http.StatusBadRequest {
		message = "invalid request payload"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": message,
		"code":  string(apperrors.CodeOf(err)),
	})
}

// Package server exposes the latest advisor snapshot over a read-only JSON
// API, plus liveness/readiness probes. Presentation stays out of process:
// any dashboard consumes these endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/selivandex/gold-advisor/internal/adapters/database"
	redisadapter "github.com/selivandex/gold-advisor/internal/adapters/redis"
	"github.com/selivandex/gold-advisor/internal/advisor"
	"github.com/selivandex/gold-advisor/pkg/logger"
	"github.com/selivandex/gold-advisor/pkg/models"
)

// Server serves the advisor API.
type Server struct {
	server    *http.Server
	engine    *advisor.Engine
	db        *database.DB
	cache     *redisadapter.Cache
	startTime time.Time
}

// NewServer creates new API server
func NewServer(port string, engine *advisor.Engine, db *database.DB, cache *redisadapter.Cache) *Server {
	s := &Server{
		engine:    engine,
		db:        db,
		cache:     cache,
		startTime: time.Now(),
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReadiness).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/recommendation", s.handleRecommendation).Methods(http.MethodGet)
	api.HandleFunc("/forecast", s.handleForecast).Methods(http.MethodGet)
	api.HandleFunc("/forecast/accuracy", s.handleForecastAccuracy).Methods(http.MethodGet)
	api.HandleFunc("/price/retail", s.handleRetailPrice).Methods(http.MethodGet)
	api.HandleFunc("/summary", s.handleSummary).Methods(http.MethodGet)

	s.server = &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("api server listening", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": time.Since(s.startTime).Round(time.Second).String(),
	})
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	ready := true

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			checks["database"] = "unreachable"
			ready = false
		} else {
			checks["database"] = "ok"
		}
	}
	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			checks["redis"] = "unreachable"
			ready = false
		} else {
			checks["redis"] = "ok"
		}
	}

	if s.engine.Latest() == nil {
		checks["advisor"] = "warming_up"
		ready = false
	} else {
		checks["advisor"] = "ok"
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]interface{}{
		"ready":  ready,
		"checks": checks,
	})
}

// handleRecommendation serves the full latest snapshot. 503 with a hint
// distinguishes "no data yet" from a hard failure.
func (s *Server) handleRecommendation(w http.ResponseWriter, r *http.Request) {
	snapshot := s.engine.Latest()
	if snapshot == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "no recommendation available yet, advisor is warming up",
		})
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	snapshot := s.engine.Latest()
	if snapshot == nil || snapshot.Forecast == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "no forecast available yet, advisor is warming up",
		})
		return
	}
	writeJSON(w, http.StatusOK, snapshot.Forecast)
}

func (s *Server) handleForecastAccuracy(w http.ResponseWriter, r *http.Request) {
	steps, err := s.engine.ForecastAccuracy(r.Context())
	if errors.Is(err, models.ErrNoData) {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "forecast analytics are not enabled",
		})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to query forecast accuracy",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"steps": steps,
	})
}

func (s *Server) handleRetailPrice(w http.ResponseWriter, r *http.Request) {
	snapshot := s.engine.Latest()
	if snapshot == nil || snapshot.RetailQuote == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "retail pricing is not enabled or not available",
		})
		return
	}
	writeJSON(w, http.StatusOK, snapshot.RetailQuote)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"summary": s.engine.Summary(),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

// Package api serves the computed leaderboards and record indexes as JSON.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/gltp-records/internal/catalog"
	"github.com/yourusername/gltp-records/internal/leaderboard"
	"github.com/yourusername/gltp-records/internal/metrics"
	"github.com/yourusername/gltp-records/internal/service"
)

// LeaderboardProvider is the read side of service.LeaderboardService
type LeaderboardProvider interface {
	Current() (*leaderboard.Result, error)
	Catalog() *catalog.Catalog
	Stats() service.RefreshStats
	RecentChanges() []leaderboard.WorldRecordChange
}

// Config holds the configuration for the API server
type Config struct {
	Address     string
	MetricsPath string // empty disables the metrics route
	Logger      *logrus.Logger
}

// Server serves the read-only API
type Server struct {
	provider    LeaderboardProvider
	address     string
	metricsPath string
	logger      *logrus.Entry
	server      *http.Server
}

// NewServer creates an API server over provider
func NewServer(provider LeaderboardProvider, cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	address := cfg.Address
	if address == "" {
		address = ":8080"
	}

	return &Server{
		provider:    provider,
		address:     address,
		metricsPath: cfg.MetricsPath,
		logger:      log.WithField("component", "api"),
	}
}

// Handler returns the API routes wrapped in request logging
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /leaderboards", s.handleLeaderboards)
	mux.HandleFunc("GET /maps", s.handleMaps)
	mux.HandleFunc("GET /maps/best", s.handleBest)
	mux.HandleFunc("GET /maps/records", s.handleRecords)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /status", s.handleStatus)
	if s.metricsPath != "" {
		mux.Handle("GET "+s.metricsPath, metrics.Handler())
	}
	return s.logRequests(mux)
}

// Start listens on the configured address and serves until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("api server listen on %s: %w", s.address, err)
	}

	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		s.logger.WithField("address", listener.Addr().String()).Info("API server starting")
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("API server error")
		}
	}()

	go func() {
		<-ctx.Done()
		_ = s.Shutdown()
	}()

	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info("API server shutting down")
	return s.server.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Debug("Request served")
	})
}

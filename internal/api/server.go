// Package api exposes the analytics views over HTTP.
//
// Every response uses the same envelope: {"success": true, "data": ...} on
// success and {"success": false, "message": ...} on failure.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"qa-analytics/internal/analytics"
	"qa-analytics/internal/records"
	"qa-analytics/internal/snapshot"
)

// Analyzer is the part of the engine the HTTP layer calls.
type Analyzer interface {
	GetDefectAnalytics(ctx context.Context, filter records.Filter) (*analytics.DefectAnalytics, error)
	GetWashRecipeDefectAnalytics(ctx context.Context, filter records.Filter) (*analytics.WashRecipeAnalytics, error)
	GetComparisonData(ctx context.Context, filter records.Filter) (*analytics.ComparisonData, error)
}

// Reloader refreshes the data behind the engine.
type Reloader interface {
	Reload(ctx context.Context) error
	Counts() snapshot.Counts
}

// Server wires the analytics views to a gin router.
type Server struct {
	engine Analyzer
	store  Reloader
	router *gin.Engine
}

// NewServer builds the router. store may be nil, in which case the reload
// endpoint reports that reloading is unavailable.
func NewServer(engine Analyzer, store Reloader) *Server {
	s := &Server{engine: engine, store: store}

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger())

	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	a := r.Group("/api/analytics")
	a.GET("/defects", s.handleDefects)
	a.GET("/wash-recipes", s.handleWashRecipes)
	a.GET("/comparison", s.handleComparison)

	r.POST("/api/snapshot/reload", s.handleReload)

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info().Msg("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	}
}

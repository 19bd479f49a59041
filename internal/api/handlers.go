package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"qa-analytics/internal/analytics"
	"qa-analytics/internal/records"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func (s *Server) handleDefects(c *gin.Context) {
	serveView(c, "defects", s.engine.GetDefectAnalytics)
}

func (s *Server) handleWashRecipes(c *gin.Context) {
	serveView(c, "wash-recipes", s.engine.GetWashRecipeDefectAnalytics)
}

func (s *Server) handleComparison(c *gin.Context) {
	serveView(c, "comparison", s.engine.GetComparisonData)
}

func (s *Server) handleReload(c *gin.Context) {
	started := time.Now()
	if s.store == nil {
		respondError(c, "reload", http.StatusServiceUnavailable, "snapshot reload is not available")
		return
	}
	if err := s.store.Reload(c.Request.Context()); err != nil {
		log.Error().Err(err).Msg("Snapshot reload failed")
		respondError(c, "reload", http.StatusInternalServerError, err.Error())
		return
	}
	requestLatency.WithLabelValues("reload").Observe(time.Since(started).Seconds())
	respond(c, "reload", s.store.Counts())
}

func (s *Server) handleHealth(c *gin.Context) {
	data := gin.H{"status": "ok"}
	if s.store != nil {
		data["snapshot"] = s.store.Counts()
	}
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// serveView binds the query string to a Filter, validates it and runs view.
func serveView[T any](c *gin.Context, view string, run func(context.Context, records.Filter) (T, error)) {
	started := time.Now()

	var filter records.Filter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondError(c, view, http.StatusBadRequest, fmt.Sprintf("%v: %v", records.ErrInvalidFilter, err))
		return
	}
	// The engine validates too; rejecting here keeps bad requests out of the
	// latency histogram.
	if err := filter.Validate(); err != nil {
		respondError(c, view, http.StatusBadRequest, err.Error())
		return
	}

	data, err := run(c.Request.Context(), filter)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).Str("view", view).Msg("Analytics view failed")
		}
		respondError(c, view, status, err.Error())
		return
	}

	requestLatency.WithLabelValues(view).Observe(time.Since(started).Seconds())
	respond(c, view, data)
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, records.ErrInvalidFilter), errors.Is(err, analytics.ErrUnknownComparison):
		return http.StatusBadRequest
	case errors.Is(err, analytics.ErrReferenceNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respond(c *gin.Context, view string, data any) {
	requestsTotal.WithLabelValues(view, strconv.Itoa(http.StatusOK)).Inc()
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

func respondError(c *gin.Context, view string, status int, message string) {
	requestsTotal.WithLabelValues(view, strconv.Itoa(status)).Inc()
	c.AbortWithStatusJSON(status, Envelope{Success: false, Message: message})
}

package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"covidvax/internal/charts"
	apierrors "covidvax/internal/errors"
	"covidvax/internal/middleware"
	"covidvax/internal/services"
	api "covidvax/pkg/contracts/api/v1"
)

// ChartHandler serves the chart page embedded by the dashboard
type ChartHandler struct {
	service      CaseServiceInterface
	renderer     *charts.Renderer
	validator    *middleware.ValidationMiddleware
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewChartHandler creates a chart handler
func NewChartHandler(service CaseServiceInterface, renderer *charts.Renderer, validator *middleware.ValidationMiddleware, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *ChartHandler {
	return &ChartHandler{
		service:      service,
		renderer:     renderer,
		validator:    validator,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("component", "chart_handler")),
	}
}

// Chart handles GET /chart
func (h *ChartHandler) Chart(w http.ResponseWriter, r *http.Request) {
	req := api.ViewRequestFromQuery(r.URL.Query())
	if !h.validator.ValidateQuery(w, r, &req) {
		return
	}

	c := req.Criteria()
	v, err := h.service.View(r.Context(), services.ViewQuery{Start: c.Start, End: c.End, State: c.State})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	err = h.renderer.Render(&buf, charts.ChartRequest{
		Records: v.Records,
		State:   v.Criteria.State,
		Kind:    req.Kind,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, fmt.Errorf("render chart: %w", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "chart write failed", slog.String("error", err.Error()))
	}
}

package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "covidvax/internal/errors"
	"covidvax/internal/exporter"
	"covidvax/internal/middleware"
	"covidvax/internal/services"
	api "covidvax/pkg/contracts/api/v1"
	"covidvax/pkg/contracts/domain"
)

// Export content types
const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// CasesHandler serves the JSON view of the dataset and its exports
type CasesHandler struct {
	service      CaseServiceInterface
	validator    *middleware.ValidationMiddleware
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewCasesHandler creates a cases handler
func NewCasesHandler(service CaseServiceInterface, validator *middleware.ValidationMiddleware, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *CasesHandler {
	return &CasesHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("component", "cases_handler")),
	}
}

// Routes returns the routes mounted under /api/cases
func (h *CasesHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/", h.GetView)
		r.Get("/states", h.GetStates)
		r.Get("/columns", h.GetColumns)
	})

	r.Get("/export.csv", h.ExportCSV)
	r.Get("/export.xlsx", h.ExportXLSX)

	return r
}

// view validates the query and builds the view. On failure the problem
// response has already been written and ok is false.
func (h *CasesHandler) view(w http.ResponseWriter, r *http.Request) (*services.View, api.ViewRequest, bool) {
	req := api.ViewRequestFromQuery(r.URL.Query())
	if !h.validator.ValidateQuery(w, r, &req) {
		return nil, req, false
	}

	c := req.Criteria()
	v, err := h.service.View(r.Context(), services.ViewQuery{Start: c.Start, End: c.End, State: c.State})
	if err != nil {
		h.logger.WarnContext(r.Context(), "view failed",
			slog.String("query", r.URL.RawQuery),
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, err)
		return nil, req, false
	}
	return v, req, true
}

// GetView handles GET /api/cases
func (h *CasesHandler) GetView(w http.ResponseWriter, r *http.Request) {
	v, _, ok := h.view(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, newViewResponse(v))
}

// GetStates handles GET /api/cases/states
func (h *CasesHandler) GetStates(w http.ResponseWriter, r *http.Request) {
	v, _, ok := h.view(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, api.StatesResponse{States: v.States})
}

// GetColumns handles GET /api/cases/columns. It needs no data.
func (h *CasesHandler) GetColumns(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, api.ColumnsResponse{Columns: domain.TableColumns()})
}

// ExportCSV handles GET /api/cases/export.csv
func (h *CasesHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	v, _, ok := h.view(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := exporter.WriteCases(&buf, v.Records); err != nil {
		h.errorHandler.HandleError(w, r, fmt.Errorf("csv export: %w", err))
		return
	}
	h.attach(w, ContentTypeCSV, exportName(v.Criteria, "csv"), buf.Bytes())
}

// ExportXLSX handles GET /api/cases/export.xlsx
func (h *CasesHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	v, _, ok := h.view(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := exporter.WriteCasesXLSX(&buf, v.Records, v.Totals); err != nil {
		h.errorHandler.HandleError(w, r, fmt.Errorf("xlsx export: %w", err))
		return
	}
	h.attach(w, ContentTypeXLSX, exportName(v.Criteria, "xlsx"), buf.Bytes())
}

func (h *CasesHandler) attach(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.Warn("export write failed", slog.String("file", filename), slog.String("error", err.Error()))
	}
}

// exportName builds covid_cases_<state>_<start>_<end>.<ext>
func exportName(c domain.FilterCriteria, ext string) string {
	state := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}
		return '_'
	}, c.State)
	if state == "" {
		state = "all"
	}
	return fmt.Sprintf("covid_cases_%s_%s_%s.%s",
		strings.ToLower(state),
		c.Start.Format(domain.DateLayout),
		c.End.Format(domain.DateLayout),
		ext)
}

func newViewResponse(v *services.View) api.ViewResponse {
	rows := make([]api.CaseRow, len(v.Records))
	for i, rec := range v.Records {
		rows[i] = api.NewCaseRow(rec)
	}

	resp := api.ViewResponse{
		Criteria: api.CriteriaResponse{
			Start: formatDay(v.Criteria.Start),
			End:   formatDay(v.Criteria.End),
			State: v.Criteria.State,
		},
		Records:     rows,
		Totals:      v.Totals,
		Columns:     v.Columns,
		States:      v.States,
		MinDate:     formatDay(v.Bounds.Start),
		MaxDate:     formatDay(v.Bounds.End),
		SkippedRows: v.SkippedRows,
		Source:      v.Source,
	}
	if resp.States == nil {
		resp.States = []string{}
	}
	return resp
}

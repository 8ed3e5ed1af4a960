package http

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"covidvax/internal/charts"
	apierrors "covidvax/internal/errors"
	"covidvax/internal/middleware"
	"covidvax/internal/services"
	api "covidvax/pkg/contracts/api/v1"
	"covidvax/pkg/contracts/domain"
)

// Intro is the paragraph shown under the dashboard title
const Intro = "This app scrapes data from MoH API and displays the number of new Covid cases in Malaysia."

//go:embed templates/*.html
var templateFS embed.FS

var dashboardTemplate = template.Must(template.ParseFS(templateFS, "templates/dashboard.html"))

// DashboardHandler renders the HTML dashboard
type DashboardHandler struct {
	service   CaseServiceInterface
	validator *middleware.ValidationMiddleware
	title     string
	logger    *slog.Logger
}

// NewDashboardHandler creates a dashboard handler
func NewDashboardHandler(service CaseServiceInterface, validator *middleware.ValidationMiddleware, title string, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service:   service,
		validator: validator,
		title:     title,
		logger:    logger.With(slog.String("component", "dashboard_handler")),
	}
}

type pageError struct {
	Status  int
	Title   string
	Detail  string
	Details []apierrors.ValidationError
}

type pageCell struct {
	Text    string
	Numeric bool
}

type dashboardPage struct {
	Title   string
	Intro   string
	Request api.ViewRequest
	Error   *pageError

	Kinds   []string
	Columns []domain.ColumnSpec
	Rows    [][]pageCell
	Totals  []pageCell
	States  []string
	Start   string
	End     string
	State   string
	MinDate string
	MaxDate string
	Skipped int
	Source  string

	ChartURL string
	CSVURL   string
	XLSXURL  string
}

// Dashboard handles GET /
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	req := api.ViewRequestFromQuery(r.URL.Query())
	page := &dashboardPage{
		Title:   h.title,
		Intro:   Intro,
		Request: req,
		Kinds:   charts.Kinds(),
		Columns: domain.TableColumns(),
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		page.Error = newPageError(err)
		h.render(w, r, page)
		return
	}

	c := req.Criteria()
	v, err := h.service.View(r.Context(), services.ViewQuery{Start: c.Start, End: c.End, State: c.State})
	if err != nil {
		h.logger.WarnContext(r.Context(), "dashboard view failed", slog.String("error", err.Error()))
		page.Error = newPageError(err)
		h.render(w, r, page)
		return
	}

	page.fill(v, req)
	h.render(w, r, page)
}

func (h *DashboardHandler) render(w http.ResponseWriter, r *http.Request, page *dashboardPage) {
	status := http.StatusOK
	if page.Error != nil {
		status = page.Error.Status
	}

	var buf bytes.Buffer
	if err := dashboardTemplate.Execute(&buf, page); err != nil {
		h.logger.ErrorContext(r.Context(), "dashboard template failed", slog.String("error", err.Error()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "dashboard write failed", slog.String("error", err.Error()))
	}
}

func (p *dashboardPage) fill(v *services.View, req api.ViewRequest) {
	p.Columns = v.Columns
	p.States = v.States
	p.Start = formatDay(v.Criteria.Start)
	p.End = formatDay(v.Criteria.End)
	p.State = v.Criteria.State
	p.MinDate = formatDay(v.Bounds.Start)
	p.MaxDate = formatDay(v.Bounds.End)
	p.Skipped = v.SkippedRows
	p.Source = v.Source

	p.Rows = make([][]pageCell, len(v.Records))
	for i, rec := range v.Records {
		row := make([]pageCell, len(p.Columns))
		for j, col := range p.Columns {
			row[j] = recordCell(rec, col)
		}
		p.Rows[i] = row
	}

	p.Totals = make([]pageCell, len(p.Columns))
	for j, col := range p.Columns {
		if n, ok := v.Totals.Value(col.Key); ok {
			p.Totals[j] = pageCell{Text: col.FormatValue(n), Numeric: true}
		}
	}
	if len(p.Totals) > 0 {
		p.Totals[0] = pageCell{Text: "Total"}
	}

	// Links carry the resolved selection so the chart and exports match the table
	resolved := api.ViewRequest{Start: p.Start, End: p.End, State: p.State, Kind: req.Kind}
	q := resolved.Query().Encode()
	p.ChartURL = "/chart?" + q
	resolved.Kind = ""
	q = resolved.Query().Encode()
	p.CSVURL = "/api/cases/export.csv?" + q
	p.XLSXURL = "/api/cases/export.xlsx?" + q
}

func recordCell(rec domain.CaseRecord, col domain.ColumnSpec) pageCell {
	switch col.Key {
	case domain.ColumnDate:
		return pageCell{Text: formatDay(rec.Date)}
	case domain.ColumnState:
		return pageCell{Text: rec.State}
	}
	n, _ := rec.Value(col.Key)
	return pageCell{Text: col.FormatValue(n), Numeric: true}
}

func newPageError(err error) *pageError {
	pe := &pageError{Status: apierrors.StatusFor(err)}

	switch pe.Status {
	case http.StatusServiceUnavailable:
		pe.Title = "Data unavailable"
		pe.Detail = "The case dataset could not be retrieved. Please try again later."
	case http.StatusBadGateway:
		pe.Title = "Data could not be read"
		pe.Detail = "The case dataset was retrieved but could not be decoded."
	case http.StatusBadRequest:
		pe.Title = "Invalid filter"
		pe.Detail = err.Error()
		var apiErr *apierrors.APIError
		if errors.As(err, &apiErr) {
			if ve, ok := apiErr.Details.(apierrors.ValidationErrors); ok {
				pe.Details = ve.Errors
			}
		}
	case http.StatusGatewayTimeout:
		pe.Title = "Request timed out"
		pe.Detail = "Loading the case dataset took too long."
	default:
		pe.Title = "Something went wrong"
		pe.Detail = "The dashboard could not be rendered."
	}
	return pe
}

// formatDay renders a calendar day, leaving the zero time empty
func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(domain.DateLayout)
}

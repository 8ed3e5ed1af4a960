package services

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"covidvax/internal/dataprocessing"
	apperrors "covidvax/internal/errors"
	"covidvax/internal/infrastructure"
	"covidvax/pkg/contracts/domain"
)

// Load results reported on dataset_loads_total
const (
	ResultSuccess     = "success"
	ResultUnavailable = "unavailable"
	ResultMalformed   = "malformed"
	ResultError       = "error"
)

// DatasetLoader loads the full case dataset from a location
type DatasetLoader interface {
	Load(ctx context.Context, location string) (*domain.Dataset, error)
}

// ViewQuery is a possibly partial selection. Zero dates and an empty state
// are filled from the loaded dataset.
type ViewQuery struct {
	Start time.Time
	End   time.Time
	State string
}

// View is one rendering pass worth of data
type View struct {
	Criteria    domain.FilterCriteria `json:"criteria"`
	Records     []domain.CaseRecord   `json:"records"`
	Columns     []domain.ColumnSpec   `json:"columns"`
	States      []string              `json:"states"`
	Bounds      domain.DateRange      `json:"bounds"`
	Totals      domain.Totals         `json:"totals"`
	SkippedRows int                   `json:"skipped_rows"`
	Source      string                `json:"source"`
}

// CaseService runs the load, resolve and filter pipeline. It keeps no
// dataset between calls.
type CaseService struct {
	loader   DatasetLoader
	location string
	tracer   trace.Tracer
	metrics  *infrastructure.BusinessMetrics
	logger   *slog.Logger
}

// CaseServiceOption configures a CaseService
type CaseServiceOption func(*CaseService)

// WithTracer sets the tracer used for cases.* spans
func WithTracer(t trace.Tracer) CaseServiceOption {
	return func(s *CaseService) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithMetrics sets the instruments dataset loads are recorded on
func WithMetrics(m *infrastructure.BusinessMetrics) CaseServiceOption {
	return func(s *CaseService) { s.metrics = m }
}

// NewCaseService creates a case service reading from location
func NewCaseService(loader DatasetLoader, location string, logger *slog.Logger, opts ...CaseServiceOption) *CaseService {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	s := &CaseService{
		loader:   loader,
		location: location,
		tracer:   otel.Tracer(infrastructure.MeterName),
		logger:   infrastructure.WithComponent(logger, "case_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the configured dataset location
func (s *CaseService) Location() string {
	return s.location
}

// Load fetches and decodes the whole dataset
func (s *CaseService) Load(ctx context.Context) (*domain.Dataset, error) {
	ctx, span := s.tracer.Start(ctx, "cases.load",
		trace.WithAttributes(attribute.String("dataset.location", s.location)))
	defer span.End()

	return s.load(ctx, span)
}

func (s *CaseService) load(ctx context.Context, span trace.Span) (*domain.Dataset, error) {
	if s.location == "" {
		err := apperrors.NewDataUnavailableError("dataset location is not configured", ErrNoSource)
		s.fail(ctx, span, err, 0)
		return nil, err
	}

	start := time.Now()
	ds, err := s.loader.Load(ctx, s.location)
	if err != nil {
		s.fail(ctx, span, err, time.Since(start))
		return nil, err
	}

	infrastructure.RecordDatasetLoad(ctx, s.metrics, ResultSuccess, time.Since(start), ds.SkippedRows)
	span.SetAttributes(
		attribute.Int("dataset.rows", ds.Len()),
		attribute.Int("dataset.skipped_rows", ds.SkippedRows),
	)
	return ds, nil
}

func (s *CaseService) fail(ctx context.Context, span trace.Span, err error, elapsed time.Duration) {
	result := loadResult(err)
	infrastructure.RecordDatasetLoad(ctx, s.metrics, result, elapsed, 0)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.logger.WarnContext(ctx, "dataset load failed",
		slog.String("location", s.location),
		slog.String("result", result),
		slog.String("error", err.Error()))
}

// View loads the dataset, fills q's unset fields from it and filters
func (s *CaseService) View(ctx context.Context, q ViewQuery) (*View, error) {
	ctx, span := s.tracer.Start(ctx, "cases.view",
		trace.WithAttributes(attribute.String("dataset.location", s.location)))
	defer span.End()

	ds, err := s.load(ctx, span)
	if err != nil {
		return nil, err
	}

	criteria := dataprocessing.ResolveCriteria(ds, domain.FilterCriteria{
		Start: q.Start,
		End:   q.End,
		State: q.State,
	})
	filtered := dataprocessing.Filter(ds, criteria)
	bounds, _ := dataprocessing.DateBounds(ds)

	view := &View{
		Criteria:    criteria,
		Records:     filtered.Records,
		Columns:     domain.TableColumns(),
		States:      dataprocessing.States(ds),
		Bounds:      bounds,
		Totals:      dataprocessing.Summarize(filtered),
		SkippedRows: ds.SkippedRows,
		Source:      ds.Source,
	}

	infrastructure.RecordViewRows(ctx, s.metrics, stateLabel(criteria.State, view.States), len(view.Records))
	span.SetAttributes(
		attribute.String("view.state", criteria.State),
		attribute.String("view.start", criteria.Start.Format(domain.DateLayout)),
		attribute.String("view.end", criteria.End.Format(domain.DateLayout)),
		attribute.Int("view.rows", len(view.Records)),
	)

	s.logger.DebugContext(ctx, "view built",
		slog.String("state", criteria.State),
		slog.String("start", criteria.Start.Format(domain.DateLayout)),
		slog.String("end", criteria.End.Format(domain.DateLayout)),
		slog.Int("rows", len(view.Records)))
	return view, nil
}

// unknownStateLabel replaces any requested state the dataset does not hold,
// keeping the metric's label set bounded by the dataset.
const unknownStateLabel = "unknown"

func stateLabel(state string, known []string) string {
	if slices.Contains(known, state) {
		return state
	}
	return unknownStateLabel
}

func loadResult(err error) string {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrTypeDataUnavailable, apperrors.ErrTypeNetwork:
		return ResultUnavailable
	case apperrors.ErrTypeMalformedData, apperrors.ErrTypeParsing:
		return ResultMalformed
	}
	return ResultError
}

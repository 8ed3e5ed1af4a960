package dataprocessing

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"covidvax/internal/config"
	apperrors "covidvax/internal/errors"
	"covidvax/internal/infrastructure"
	"covidvax/internal/source"
	"covidvax/pkg/contracts/domain"
)

// Fetcher retrieves raw dataset payloads
type Fetcher interface {
	Fetch(ctx context.Context, location string) (*source.Payload, error)
}

// Loader fetches and decodes the case dataset
type Loader struct {
	fetcher Fetcher
	format  string
	logger  *slog.Logger
	now     func() time.Time
}

// NewLoader creates a loader. format is one of config.FormatAuto,
// config.FormatParquet or config.FormatCSV.
func NewLoader(fetcher Fetcher, format string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if format == "" {
		format = config.FormatAuto
	}
	return &Loader{
		fetcher: fetcher,
		format:  strings.ToLower(format),
		logger:  logger.With(slog.String("component", "loader")),
		now:     time.Now,
	}
}

// Load retrieves location and decodes it into a fully derived Dataset.
//
// Fetch failures are DATA_UNAVAILABLE; a payload missing a required column or
// carrying a non-numeric, null or negative count is MALFORMED_DATA. Rows
// whose date cannot be normalized are dropped and counted in SkippedRows.
func (l *Loader) Load(ctx context.Context, location string) (*domain.Dataset, error) {
	start := l.now()

	payload, err := l.fetcher.Fetch(ctx, location)
	if err != nil {
		if apperrors.TypeOf(err) == "" {
			err = apperrors.NewDataUnavailableError("failed to fetch dataset", err).
				WithContext("location", location)
		}
		return nil, err
	}
	if payload.Location == "" {
		payload.Location = location
	}

	ds, err := l.Parse(ctx, payload)
	if err != nil {
		return nil, err
	}
	ds.Duration = l.now().Sub(start)
	return ds, nil
}

// Parse decodes an already fetched payload
func (l *Loader) Parse(ctx context.Context, payload *source.Payload) (*domain.Dataset, error) {
	format := DetectFormat(l.format, payload.Name, payload.ContentType, payload.Data)

	var b recordBuilder
	var err error
	switch format {
	case config.FormatParquet:
		err = decodeParquet(payload.Data, &b)
	default:
		err = decodeCSV(payload.Data, &b)
	}
	if err != nil {
		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			appErr = apperrors.NewMalformedDataError("failed to decode dataset", err)
		}
		appErr.WithContext("location", payload.Location).WithContext("format", format)
		l.logger.ErrorContext(ctx, "dataset rejected",
			slog.String("location", payload.Location),
			slog.String("format", format),
			slog.String("error", appErr.Error()))
		return nil, appErr
	}

	if b.skipped > 0 {
		l.logger.WarnContext(ctx, "rows with unparseable dates skipped",
			slog.String("location", payload.Location),
			slog.Int("skipped_rows", b.skipped),
			slog.Int("rows_read", b.read),
			slog.String("first_value", b.firstBad),
			slog.String("first_error", b.firstErr.Error()))
	}

	ds := &domain.Dataset{
		Source:      payload.Location,
		Records:     b.records,
		RowsRead:    b.read,
		SkippedRows: b.skipped,
		LoadedAt:    l.now().UTC(),
	}
	if ds.Records == nil {
		ds.Records = []domain.CaseRecord{}
	}

	l.logger.InfoContext(ctx, "dataset loaded",
		slog.String("location", payload.Location),
		slog.String("format", format),
		slog.Int("rows", len(ds.Records)),
		slog.Int("skipped_rows", ds.SkippedRows))
	return ds, nil
}

// DetectFormat resolves the payload format. A forced format wins; otherwise
// the parquet magic, a parquet content type or a .parquet name selects
// parquet and anything else is read as CSV.
func DetectFormat(configured, name, contentType string, data []byte) string {
	switch strings.ToLower(configured) {
	case config.FormatParquet:
		return config.FormatParquet
	case config.FormatCSV:
		return config.FormatCSV
	}

	lower := strings.ToLower(name)
	switch {
	case isParquet(data):
		return config.FormatParquet
	case strings.Contains(strings.ToLower(contentType), "parquet"):
		return config.FormatParquet
	case strings.HasSuffix(lower, ".parquet"):
		return config.FormatParquet
	default:
		return config.FormatCSV
	}
}

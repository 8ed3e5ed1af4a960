package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	apperrors "covidvax/internal/errors"
	"covidvax/internal/infrastructure"
	"covidvax/internal/shared/testutil"
	"covidvax/pkg/contracts/domain"
)

// MockDatasetLoader implements DatasetLoader
type MockDatasetLoader struct {
	mock.Mock
}

func (m *MockDatasetLoader) Load(ctx context.Context, location string) (*domain.Dataset, error) {
	args := m.Called(ctx, location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dataset), args.Error(1)
}

func selangorDataset() *domain.Dataset {
	recs := []domain.CaseRecord{
		{Date: testutil.Date(2022, 1, 1), State: "Selangor", CasesUnvax: 10, CasesPvax: 5, CasesFvax: 3, CasesBoost: 2},
		{Date: testutil.Date(2022, 1, 2), State: "Selangor", CasesUnvax: 1, CasesPvax: 1, CasesFvax: 1, CasesBoost: 1},
		{Date: testutil.Date(2022, 1, 1), State: "Johor", CasesUnvax: 7, CasesPvax: 0, CasesFvax: 0, CasesBoost: 0},
	}
	for i := range recs {
		recs[i].Derive()
	}
	return &domain.Dataset{Source: "mem://cases", Records: recs, RowsRead: 4, SkippedRows: 1}
}

type telemetry struct {
	reader  *sdkmetric.ManualReader
	spans   *tracetest.SpanRecorder
	metrics *infrastructure.BusinessMetrics
	tracer  *sdktrace.TracerProvider
}

func newTelemetry(t *testing.T) *telemetry {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := infrastructure.CreateBusinessMetrics(mp.Meter("test"))
	require.NoError(t, err)

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	return &telemetry{reader: reader, spans: spans, metrics: m, tracer: tp}
}

func (tm *telemetry) loads(t *testing.T, result string) int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, tm.reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if md.Name != "dataset_loads_total" {
				continue
			}
			sum, ok := md.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				if v, ok := dp.Attributes.Value("result"); ok && v.AsString() == result {
					return dp.Value
				}
			}
		}
	}
	return 0
}

// viewRowStates returns the state label of every dataset_view_rows series
func (tm *telemetry) viewRowStates(t *testing.T) []string {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, tm.reader.Collect(context.Background(), &rm))
	var states []string
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if md.Name != "dataset_view_rows" {
				continue
			}
			hist, ok := md.Data.(metricdata.Histogram[int64])
			require.True(t, ok)
			for _, dp := range hist.DataPoints {
				v, _ := dp.Attributes.Value("state")
				states = append(states, v.AsString())
			}
		}
	}
	return states
}

func newTestCaseService(t *testing.T, loader DatasetLoader, location string, tm *telemetry) *CaseService {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return NewCaseService(loader, location, logger,
		WithTracer(tm.tracer.Tracer("test")),
		WithMetrics(tm.metrics))
}

func TestCaseService_View(t *testing.T) {
	tests := []struct {
		name      string
		query     ViewQuery
		wantState string
		wantRows  int
		wantTotal int64
	}{
		{
			name:      "defaults pick first state and full range",
			query:     ViewQuery{},
			wantState: "Selangor",
			wantRows:  2,
			wantTotal: 24,
		},
		{
			name:      "single day",
			query:     ViewQuery{Start: testutil.Date(2022, 1, 1), End: testutil.Date(2022, 1, 1), State: "Selangor"},
			wantState: "Selangor",
			wantRows:  1,
			wantTotal: 20,
		},
		{
			name:      "other state",
			query:     ViewQuery{State: "Johor"},
			wantState: "Johor",
			wantRows:  1,
			wantTotal: 7,
		},
		{
			name:      "unknown state is empty not an error",
			query:     ViewQuery{State: "Atlantis"},
			wantState: "Atlantis",
			wantRows:  0,
		},
		{
			name:      "inverted range is empty",
			query:     ViewQuery{Start: testutil.Date(2022, 1, 2), End: testutil.Date(2022, 1, 1)},
			wantState: "Selangor",
			wantRows:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := new(MockDatasetLoader)
			loader.On("Load", mock.Anything, "mem://cases").Return(selangorDataset(), nil).Once()
			tm := newTelemetry(t)

			view, err := newTestCaseService(t, loader, "mem://cases", tm).View(context.Background(), tt.query)
			require.NoError(t, err)
			loader.AssertExpectations(t)

			assert.Equal(t, tt.wantState, view.Criteria.State)
			assert.Len(t, view.Records, tt.wantRows)
			assert.NotNil(t, view.Records)
			assert.Equal(t, tt.wantTotal, view.Totals.TotalCases)
			assert.Equal(t, []string{"Selangor", "Johor"}, view.States)
			assert.Equal(t, testutil.Date(2022, 1, 1), view.Bounds.Start)
			assert.Equal(t, testutil.Date(2022, 1, 2), view.Bounds.End)
			assert.Equal(t, 1, view.SkippedRows)
			assert.Len(t, view.Columns, 7)
			assert.Equal(t, int64(1), tm.loads(t, ResultSuccess))
		})
	}
}

func TestCaseService_ViewRowsStateLabelIsBounded(t *testing.T) {
	loader := new(MockDatasetLoader)
	loader.On("Load", mock.Anything, "mem://cases").Return(selangorDataset(), nil)
	tm := newTelemetry(t)
	svc := newTestCaseService(t, loader, "mem://cases", tm)

	for i := 0; i < 200; i++ {
		_, err := svc.View(context.Background(), ViewQuery{State: fmt.Sprintf("Nowhere %d", i)})
		require.NoError(t, err)
	}
	_, err := svc.View(context.Background(), ViewQuery{State: "Johor"})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"unknown", "Johor"}, tm.viewRowStates(t))
}

func TestCaseService_ViewLoadsEveryCall(t *testing.T) {
	loader := new(MockDatasetLoader)
	loader.On("Load", mock.Anything, "mem://cases").Return(selangorDataset(), nil).Twice()
	tm := newTelemetry(t)
	svc := newTestCaseService(t, loader, "mem://cases", tm)

	_, err := svc.View(context.Background(), ViewQuery{})
	require.NoError(t, err)
	_, err = svc.View(context.Background(), ViewQuery{})
	require.NoError(t, err)

	loader.AssertNumberOfCalls(t, "Load", 2)
	assert.Equal(t, int64(2), tm.loads(t, ResultSuccess))
}

func TestCaseService_LoadErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantType   apperrors.ErrorType
		wantResult string
	}{
		{
			name:       "unavailable",
			err:        apperrors.NewDataUnavailableError("failed to fetch dataset", errors.New("dial tcp: refused")),
			wantType:   apperrors.ErrTypeDataUnavailable,
			wantResult: ResultUnavailable,
		},
		{
			name:       "malformed",
			err:        apperrors.NewMalformedDataError("required column cases_boost is missing", nil),
			wantType:   apperrors.ErrTypeMalformedData,
			wantResult: ResultMalformed,
		},
		{
			name:       "untyped",
			err:        errors.New("boom"),
			wantResult: ResultError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := new(MockDatasetLoader)
			loader.On("Load", mock.Anything, "mem://cases").Return(nil, tt.err)
			tm := newTelemetry(t)

			view, err := newTestCaseService(t, loader, "mem://cases", tm).View(context.Background(), ViewQuery{})
			require.Error(t, err)
			assert.Nil(t, view)
			assert.Equal(t, tt.wantType, apperrors.TypeOf(err))
			assert.Equal(t, int64(1), tm.loads(t, tt.wantResult))

			spans := tm.spans.Ended()
			require.Len(t, spans, 1)
			assert.Equal(t, "cases.view", spans[0].Name())
			assert.NotEmpty(t, spans[0].Events())
		})
	}
}

func TestCaseService_NoLocation(t *testing.T) {
	loader := new(MockDatasetLoader)
	tm := newTelemetry(t)

	_, err := newTestCaseService(t, loader, "", tm).Load(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeDataUnavailable))
	assert.ErrorIs(t, err, ErrNoSource)
	loader.AssertNotCalled(t, "Load", mock.Anything, mock.Anything)
}

func TestCaseService_LoadSpan(t *testing.T) {
	loader := new(MockDatasetLoader)
	loader.On("Load", mock.Anything, "mem://cases").Return(selangorDataset(), nil)
	tm := newTelemetry(t)

	ds, err := newTestCaseService(t, loader, "mem://cases", tm).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Len())

	spans := tm.spans.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "cases.load", spans[0].Name())
}

package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"covidvax/internal/charts"
	"covidvax/internal/config"
	apierrors "covidvax/internal/errors"
	"covidvax/internal/middleware"
	"covidvax/internal/services"
	"covidvax/internal/shared/testutil"
	"covidvax/pkg/contracts/domain"
)

// MockCaseService is a mock implementation of CaseServiceInterface
type MockCaseService struct {
	mock.Mock
}

func (m *MockCaseService) View(ctx context.Context, q services.ViewQuery) (*services.View, error) {
	args := m.Called(ctx, q)
	if v := args.Get(0); v != nil {
		return v.(*services.View), args.Error(1)
	}
	return nil, args.Error(1)
}

func sampleView() *services.View {
	records := []domain.CaseRecord{
		{Date: testutil.Date(2021, 9, 1), State: "Johor", CasesUnvax: 1, CasesPvax: 2, CasesFvax: 3, CasesBoost: 4, TotalCases: 10},
		{Date: testutil.Date(2021, 9, 2), State: "Johor", CasesUnvax: 5, CasesPvax: 0, CasesFvax: 0, CasesBoost: 0, TotalCases: 5},
	}
	return &services.View{
		Criteria: domain.FilterCriteria{
			Start: testutil.Date(2021, 9, 1),
			End:   testutil.Date(2021, 9, 2),
			State: "Johor",
		},
		Records: records,
		Columns: domain.TableColumns(),
		States:  []string{"Johor", "Selangor"},
		Bounds: domain.DateRange{
			Start: testutil.Date(2021, 9, 1),
			End:   testutil.Date(2021, 9, 3),
		},
		Totals: domain.Totals{
			Rows: 2, CasesUnvax: 6, CasesPvax: 2, CasesFvax: 3, CasesBoost: 4, TotalCases: 15,
		},
		SkippedRows: 1,
		Source:      "https://example.test/cases.parquet",
	}
}

type fixture struct {
	service *MockCaseService
	router  chi.Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	errorHandler := apierrors.NewErrorHandler(logger, false)
	validator := middleware.NewValidationMiddleware(logger, errorHandler)
	svc := new(MockCaseService)

	r := chi.NewRouter()
	r.Get("/", NewDashboardHandler(svc, validator, config.AppTitle, logger).Dashboard)
	r.Get("/chart", NewChartHandler(svc, charts.NewRenderer(config.ChartBar, config.AppTitle), validator, errorHandler, logger).Chart)
	r.Mount("/api/cases", NewCasesHandler(svc, validator, errorHandler, logger).Routes())
	return &fixture{service: svc, router: r}
}

func (f *fixture) get(target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestCasesHandler_GetView(t *testing.T) {
	f := newFixture(t)
	f.service.On("View", mock.Anything, services.ViewQuery{
		Start: testutil.Date(2021, 9, 1),
		End:   testutil.Date(2021, 9, 2),
		State: "Johor",
	}).Return(sampleView(), nil)

	w := f.get("/api/cases?start=2021-09-01&end=2021-09-02&state=Johor")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, map[string]interface{}{"start": "2021-09-01", "end": "2021-09-02", "state": "Johor"}, body["criteria"])
	assert.Equal(t, "2021-09-01", body["min_date"])
	assert.Equal(t, "2021-09-03", body["max_date"])
	assert.EqualValues(t, 1, body["skipped_rows"])

	records := body["records"].([]interface{})
	require.Len(t, records, 2)
	first := records[0].(map[string]interface{})
	assert.Equal(t, "2021-09-01", first["date"])
	assert.EqualValues(t, 10, first["total_cases"])

	totals := body["totals"].(map[string]interface{})
	assert.EqualValues(t, 15, totals["total_cases"])
	f.service.AssertExpectations(t)
}

func TestCasesHandler_EmptyQueryLeavesCriteriaUnset(t *testing.T) {
	f := newFixture(t)
	f.service.On("View", mock.Anything, services.ViewQuery{}).Return(sampleView(), nil)

	w := f.get("/api/cases")
	assert.Equal(t, http.StatusOK, w.Code)
	f.service.AssertExpectations(t)
}

func TestCasesHandler_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		query string
		field string
	}{
		{name: "bad start", query: "start=2021-13-01", field: "start"},
		{name: "bad end", query: "end=yesterday", field: "end"},
		{name: "bad state", query: "state=%3Cscript%3E", field: "state"},
		{name: "bad kind", query: "kind=pie", field: "kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			w := f.get("/api/cases?" + tt.query)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var problem map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
			assert.EqualValues(t, http.StatusBadRequest, problem["status"])
			assert.Contains(t, w.Body.String(), `"field":"`+tt.field+`"`)
			f.service.AssertNotCalled(t, "View", mock.Anything, mock.Anything)
		})
	}
}

func TestCasesHandler_ServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "unavailable", err: apierrors.NewDataUnavailableError("fetch failed", nil), status: http.StatusServiceUnavailable},
		{name: "malformed", err: apierrors.NewMalformedDataError("missing column", nil), status: http.StatusBadGateway},
		{name: "timeout", err: context.DeadlineExceeded, status: http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.service.On("View", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := f.get("/api/cases")
			assert.Equal(t, tt.status, w.Code)

			var problem map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
			assert.EqualValues(t, tt.status, problem["status"])
		})
	}
}

func TestCasesHandler_StatesAndColumns(t *testing.T) {
	f := newFixture(t)
	f.service.On("View", mock.Anything, mock.Anything).Return(sampleView(), nil)

	w := f.get("/api/cases/states")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"states":["Johor","Selangor"]}`, w.Body.String())

	w = f.get("/api/cases/columns")
	require.Equal(t, http.StatusOK, w.Code)
	var cols struct {
		Columns []domain.ColumnSpec `json:"columns"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cols))
	assert.Equal(t, domain.TableColumns(), cols.Columns)
}

func TestCasesHandler_ExportCSV(t *testing.T) {
	f := newFixture(t)
	f.service.On("View", mock.Anything, mock.Anything).Return(sampleView(), nil)

	w := f.get("/api/cases/export.csv?state=Johor")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ContentTypeCSV, w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="covid_cases_johor_2021-09-01_2021-09-02.csv"`, w.Header().Get("Content-Disposition"))

	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "\ufeffdate,state,cases_unvax"))
	assert.Contains(t, body, "2021-09-01,Johor,1,2,3,4,10")
	assert.Contains(t, body, "2021-09-02,Johor,5,0,0,0,5")
}

func TestCasesHandler_ExportXLSX(t *testing.T) {
	f := newFixture(t)
	f.service.On("View", mock.Anything, mock.Anything).Return(sampleView(), nil)

	w := f.get("/api/cases/export.xlsx")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ContentTypeXLSX, w.Header().Get("Content-Type"))

	book, err := excelize.OpenReader(w.Body)
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows("cases")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Date", rows[0][0])
	assert.Equal(t, "Total", rows[3][0])
	assert.Equal(t, "15", rows[3][len(rows[3])-1])
}

func TestCasesHandler_ExportError(t *testing.T) {
	f := newFixture(t)
	f.service.On("View", mock.Anything, mock.Anything).Return(nil, apierrors.NewDataUnavailableError("fetch failed", nil))

	w := f.get("/api/cases/export.csv")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Empty(t, w.Header().Get("Content-Disposition"))
}

func TestExportName(t *testing.T) {
	c := domain.FilterCriteria{
		Start: testutil.Date(2021, 9, 1),
		End:   testutil.Date(2021, 9, 30),
		State: "W.P. Kuala Lumpur",
	}
	assert.Equal(t, "covid_cases_w_p__kuala_lumpur_2021-09-01_2021-09-30.csv", exportName(c, "csv"))

	c.State = ""
	assert.Equal(t, "covid_cases_all_2021-09-01_2021-09-30.xlsx", exportName(c, "xlsx"))
}

func TestChartHandler(t *testing.T) {
	f := newFixture(t)
	f.service.On("View", mock.Anything, mock.Anything).Return(sampleView(), nil)

	w := f.get("/chart?kind=line")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Regexp(t, `type[^a-z]+line`, w.Body.String())

	w = f.get("/chart")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Regexp(t, `type[^a-z]+bar`, w.Body.String())
}

func TestChartHandler_Errors(t *testing.T) {
	f := newFixture(t)
	f.service.On("View", mock.Anything, mock.Anything).Return(nil, apierrors.NewMalformedDataError("bad", nil))

	assert.Equal(t, http.StatusBadRequest, f.get("/chart?kind=pie").Code)
	assert.Equal(t, http.StatusBadGateway, f.get("/chart").Code)
}

func TestDashboardHandler(t *testing.T) {
	f := newFixture(t)
	f.service.On("View", mock.Anything, mock.Anything).Return(sampleView(), nil)

	w := f.get("/?state=Johor")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	body := w.Body.String()
	assert.Contains(t, body, "<h1>"+config.AppTitle+"</h1>")
	assert.Contains(t, body, Intro)
	assert.Contains(t, body, `<option value="Johor" selected>Johor</option>`)
	assert.Contains(t, body, `<option value="Selangor">Selangor</option>`)
	assert.Contains(t, body, "Unvaccinated cases")
	assert.Contains(t, body, `title="Number of new cases for which no vaccination record is found"`)
	assert.Contains(t, body, "10 cases")
	assert.Contains(t, body, "15 cases")
	assert.Contains(t, body, `value="2021-09-01"`)
	assert.Contains(t, body, `min="2021-09-01"`)
	assert.Contains(t, body, `max="2021-09-03"`)
	assert.Contains(t, body, "1 source rows were skipped")
	assert.Contains(t, body, `src="/chart?end=2021-09-02&amp;start=2021-09-01&amp;state=Johor"`)
	assert.Contains(t, body, `href="/api/cases/export.csv?end=2021-09-02&amp;start=2021-09-01&amp;state=Johor"`)
	assert.NotContains(t, body, `role="alert"`)
	assert.Contains(t, body, `<option value="bar">bar</option>`)
	assert.Contains(t, body, `<option value="line">line</option>`)
}

func TestDashboardHandler_ChartKind(t *testing.T) {
	f := newFixture(t)
	f.service.On("View", mock.Anything, mock.Anything).Return(sampleView(), nil)

	w := f.get("/?state=Johor&kind=line")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `<option value="line" selected>line</option>`)
	assert.Contains(t, body, `src="/chart?end=2021-09-02&amp;kind=line&amp;start=2021-09-01&amp;state=Johor"`)
	assert.Contains(t, body, `href="/api/cases/export.csv?end=2021-09-02&amp;start=2021-09-01&amp;state=Johor"`)
}

func TestDashboardHandler_ErrorBanners(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		err    error
		status int
		text   string
	}{
		{name: "unavailable", err: apierrors.NewDataUnavailableError("fetch failed", nil), status: http.StatusServiceUnavailable, text: "Data unavailable"},
		{name: "malformed", err: apierrors.NewMalformedDataError("missing column", nil), status: http.StatusBadGateway, text: "Data could not be read"},
		{name: "invalid query", query: "?start=not-a-date", status: http.StatusBadRequest, text: "start must be a valid date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.err != nil {
				f.service.On("View", mock.Anything, mock.Anything).Return(nil, tt.err)
			}

			w := f.get("/" + tt.query)
			assert.Equal(t, tt.status, w.Code)
			body := w.Body.String()
			assert.Contains(t, body, `role="alert"`)
			assert.Contains(t, body, tt.text)
			assert.Contains(t, body, config.AppTitle)
			assert.NotContains(t, body, "<table>")
		})
	}
}

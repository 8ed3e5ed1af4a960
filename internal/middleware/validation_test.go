package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "covidvax/internal/errors"
	"covidvax/internal/shared/testutil"
	api "covidvax/pkg/contracts/api/v1"
)

func newTestValidator(t *testing.T) *ValidationMiddleware {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return NewValidationMiddleware(logger, apperrors.NewErrorHandler(logger, false))
}

func TestValidateStruct_ViewRequest(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		name      string
		req       api.ViewRequest
		wantField string
	}{
		{name: "empty is fine", req: api.ViewRequest{}},
		{name: "full request", req: api.ViewRequest{Start: "2022-01-01", End: "2022-01-31", State: "Selangor", Kind: "line"}},
		{name: "start after end is allowed", req: api.ViewRequest{Start: "2022-02-01", End: "2022-01-01"}},
		{name: "bad start", req: api.ViewRequest{Start: "01/02/2022"}, wantField: "start"},
		{name: "impossible day", req: api.ViewRequest{End: "2022-02-30"}, wantField: "end"},
		{name: "bad kind", req: api.ViewRequest{Kind: "pie"}, wantField: "kind"},
		{name: "markup in state", req: api.ViewRequest{State: "<script>"}, wantField: "state"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateStruct(tt.req)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			var apiErr *apperrors.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

			details, ok := apiErr.Details.(apperrors.ValidationErrors)
			require.True(t, ok)
			require.NotEmpty(t, details.Errors)
			assert.Equal(t, tt.wantField, details.Errors[0].Field)
		})
	}
}

func TestValidateQuery_WritesProblem(t *testing.T) {
	v := newTestValidator(t)

	req := httptest.NewRequest(http.MethodGet, "/api/cases?start=yesterday", nil)
	rec := httptest.NewRecorder()

	ok := v.ValidateQuery(rec, req, api.ViewRequestFromQuery(req.URL.Query()))
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "start")
}

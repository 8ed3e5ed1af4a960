package middleware

import (
	"net/http"

	"github.com/go-chi/render"

	apperrors "covidvax/internal/errors"
	"covidvax/internal/infrastructure"
)

// ProblemFromStatus creates problem details for a status the middleware
// answers on its own, before any handler runs.
func ProblemFromStatus(status int, detail, instance string) *apperrors.ProblemDetails {
	var problemType string

	switch status {
	case http.StatusBadRequest:
		problemType = apperrors.TypeValidation
	case http.StatusNotFound:
		problemType = apperrors.TypeNotFound
	case http.StatusTooManyRequests:
		problemType = apperrors.TypeRateLimit
	case http.StatusServiceUnavailable:
		problemType = apperrors.TypeServiceDown
	case http.StatusGatewayTimeout:
		problemType = apperrors.TypeTimeout
	default:
		problemType = apperrors.TypeInternal
	}

	return apperrors.NewProblemDetails(status, problemType, http.StatusText(status), detail, instance)
}

// writeProblem renders a problem response carrying the request's trace id
func writeProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	problem := ProblemFromStatus(status, detail, r.URL.Path)
	if traceID := GetRequestID(r.Context()); traceID != "" {
		problem.WithExtension("trace_id", traceID)
	}
	render.Render(w, r, problem)
}

// traceIDOf prefers the active trace id and falls back to the request id
func traceIDOf(r *http.Request) string {
	if id := infrastructure.GetTraceID(r.Context()); id != "" {
		return id
	}
	return GetReqID(r.Context())
}

package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	apierrors "covidvax/internal/errors"
	"covidvax/pkg/contracts/domain"
)

// ValidationMiddleware validates query structs using their tags
type ValidationMiddleware struct {
	validator    *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewValidationMiddleware creates a new validation middleware
func NewValidationMiddleware(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ValidationMiddleware {
	v := validator.New()

	v.RegisterValidation("calendarday", isCalendarDay)
	v.RegisterValidation("statename", isStateName)

	// Report fields by their query names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"query", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	return &ValidationMiddleware{
		validator:    v,
		logger:       logger.With(slog.String("component", "validation_middleware")),
		errorHandler: errorHandler,
	}
}

// ValidateStruct validates v and returns a 400 APIError listing every
// failed field.
func (m *ValidationMiddleware) ValidateStruct(v interface{}) error {
	err := m.validator.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierrors.NewValidationError(err.Error())
	}

	validationErrors := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		validationErrors = append(validationErrors, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: m.formatValidationError(fe),
		})
	}
	return apierrors.NewValidationErrors(validationErrors)
}

// ValidateQuery validates v and writes the problem response on failure.
// It reports whether the request may proceed.
func (m *ValidationMiddleware) ValidateQuery(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := m.ValidateStruct(v); err != nil {
		m.logger.DebugContext(r.Context(), "query rejected",
			slog.String("path", r.URL.Path),
			slog.String("query", r.URL.RawQuery),
			slog.String("error", err.Error()))
		m.errorHandler.HandleError(w, r, err)
		return false
	}
	return true
}

// formatValidationError formats validation error messages
func (m *ValidationMiddleware) formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "datetime":
		return fmt.Sprintf("%s must be a date in %s format", field, param)
	case "calendarday":
		return fmt.Sprintf("%s must be a valid date (YYYY-MM-DD)", field)
	case "statename":
		return fmt.Sprintf("%s contains characters not allowed in a state name", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// isCalendarDay accepts YYYY-MM-DD strings naming a real day
func isCalendarDay(fl validator.FieldLevel) bool {
	_, err := time.Parse(domain.DateLayout, fl.Field().String())
	return err == nil
}

// isStateName rejects control characters and markup
func isStateName(fl validator.FieldLevel) bool {
	for _, ch := range fl.Field().String() {
		if ch < 0x20 || ch == 0x7f || strings.ContainsRune("<>\"`", ch) {
			return false
		}
	}
	return true
}

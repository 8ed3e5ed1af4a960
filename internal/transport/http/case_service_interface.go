package http

import (
	"context"

	"covidvax/internal/services"
)

// CaseServiceInterface is what the handlers need from the case service
type CaseServiceInterface interface {
	View(ctx context.Context, q services.ViewQuery) (*services.View, error)
}

// Ensure the concrete service satisfies the interface
var _ CaseServiceInterface = (*services.CaseService)(nil)

// Package services holds the business logic between the transport layer and
// the data loader.
//
// CaseService runs one rendering pass per call: it loads the dataset, fills
// unset filter fields from it, filters and summarizes. Nothing is cached
// between calls. Every pass is traced and counted on the dataset metrics.
//
//	svc := services.NewCaseService(loader, cfg.Source.URL, logger,
//	    services.WithTracer(providers.Tracer),
//	    services.WithMetrics(metrics))
//	view, err := svc.View(ctx, services.ViewQuery{State: "Selangor"})
//
// Load failures come back as *errors.AppError of type DATA_UNAVAILABLE or
// MALFORMED_DATA; handlers turn them into 503 and 502 responses.
//
// HealthService reports liveness, and readiness based on a live load of
// the dataset source.
package services

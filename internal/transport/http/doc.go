// Package http implements the HTTP handlers of the case dashboard. Handlers
// stay thin: they parse and validate query parameters, call the case
// service and hand the result to a presentation adapter.
//
// # Handlers
//
//	DashboardHandler  GET /                      HTML page with filter form, table and chart
//	ChartHandler      GET /chart                 go-echarts page embedded by the dashboard
//	CasesHandler      GET /api/cases             JSON view
//	                  GET /api/cases/states      states present in the dataset
//	                  GET /api/cases/columns     column labels, help and formats
//	                  GET /api/cases/export.csv  CSV download
//	                  GET /api/cases/export.xlsx Excel download
//	HealthHandler     GET /api/health, /api/health/ready, /api/health/live, /api/version
//
// # Query parameters
//
// Every data route accepts start and end (YYYY-MM-DD), state and, for the
// chart, kind (bar or line). All are optional; missing values are filled
// from the loaded dataset. Parameters are checked with the validation
// middleware before the service is called.
//
// # Errors
//
// JSON and export routes report failures as RFC 7807 problem details through
// the shared ErrorHandler: 400 for invalid parameters, 503 when the dataset
// cannot be fetched and 502 when it cannot be decoded. The dashboard renders
// the same statuses as an error banner on the page instead.
package http

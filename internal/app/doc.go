// Package app wires the case dashboard together and owns its lifecycle.
//
// # Initialization Flow
//
//  1. Load configuration (defaults, YAML file, environment)
//  2. Initialize logging and OpenTelemetry
//  3. Build the fetcher, loader and case service
//  4. Set up middleware, handlers and the HTTP server
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Run blocks until the context is cancelled or SIGINT/SIGTERM arrives and
// then shuts the server down within Server.ShutdownTimeout.
package app

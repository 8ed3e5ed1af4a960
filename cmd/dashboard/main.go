package main

import (
	"context"
	"log/slog"
	"os"

	"covidvax/internal/app"
	"covidvax/internal/infrastructure"
)

func main() {
	application, err := app.NewApplication()
	if err != nil {
		infrastructure.WithError(slog.Default(), err).Error("Failed to initialize application")
		os.Exit(1)
	}

	if err := application.Run(context.Background()); err != nil {
		infrastructure.WithError(application.Logger, err).Error("Application error")
		os.Exit(1)
	}
}

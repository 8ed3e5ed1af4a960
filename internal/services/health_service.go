package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"covidvax/internal/infrastructure"
	"covidvax/pkg/contracts"
	"covidvax/pkg/contracts/domain"
)

// SourceProber performs a full dataset load
type SourceProber interface {
	Load(ctx context.Context) (*domain.Dataset, error)
	Location() string
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	buildID   string
	source    SourceProber
	startTime time.Time
	now       func() time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
	Rows    int    `json:"rows,omitempty"`
}

// Ready reports whether the overall status is ready
func (s HealthStatus) Ready() bool {
	return s.Status == "ready"
}

// NewHealthService creates a health service. source may be nil, in which
// case readiness only reflects the process itself.
func NewHealthService(version, buildTime, buildID string, source SourceProber, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = infrastructure.WithComponent(logger, "health_service")

	logger.Info("health service initialized",
		slog.String("version", version),
		slog.String("build_time", buildTime),
		slog.String("build_id", buildID))

	return &HealthService{
		version:   version,
		buildTime: buildTime,
		buildID:   buildID,
		source:    source,
		startTime: time.Now(),
		now:       time.Now,
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: hs.now(),
		Version:   hs.version,
	}
	hs.logger.DebugContext(ctx, "health check completed", slog.String("status", status.Status))
	return status
}

// ReadinessCheck loads the dataset once and reports whether the source is
// reachable and decodable.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: hs.now(),
		Version:   hs.version,
		Services:  make(map[string]ServiceHealth),
	}

	status.Services["source"] = hs.checkSource(ctx)

	for _, svc := range status.Services {
		if svc.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}
	return status
}

func (hs *HealthService) checkSource(ctx context.Context) ServiceHealth {
	if hs.source == nil {
		return ServiceHealth{Status: "ready", Message: "no dataset source attached"}
	}

	start := hs.now()
	ds, err := hs.source.Load(ctx)
	latency := hs.now().Sub(start).Round(time.Millisecond).String()
	if err != nil {
		hs.logger.WarnContext(ctx, "readiness check failed",
			slog.String("location", hs.source.Location()),
			slog.String("error", err.Error()))
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("%v: %v", ErrNotReady, err),
			Latency: latency,
		}
	}

	return ServiceHealth{
		Status:  "ready",
		Message: "dataset source is reachable",
		Latency: latency,
		Rows:    ds.Len(),
	}
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: hs.now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     hs.now().Sub(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       hs.now().Sub(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": hs.now().Format(time.RFC3339),
		"git_commit":   contracts.GitCommit,
		"api_version":  contracts.APIVersion,
		"data_format":  contracts.DataFormatVersion,
	}
	if hs.source != nil {
		result["source"] = hs.source.Location()
	}
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	if hs.buildID != "" {
		result["build_id"] = hs.buildID
	}
	return result
}

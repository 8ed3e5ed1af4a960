package services

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "covidvax/internal/errors"
	"covidvax/internal/shared/testutil"
	"covidvax/pkg/contracts/domain"
)

// MockSourceProber implements SourceProber
type MockSourceProber struct {
	mock.Mock
}

func (m *MockSourceProber) Load(ctx context.Context) (*domain.Dataset, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dataset), args.Error(1)
}

func (m *MockSourceProber) Location() string {
	return m.Called().String(0)
}

func newTestHealthService(t *testing.T, source SourceProber) *HealthService {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return NewHealthService("1.2.3", "2024-01-01T00:00:00Z", "abc123", source, logger)
}

func TestHealthService_HealthCheck(t *testing.T) {
	status := newTestHealthService(t, nil).HealthCheck(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "1.2.3", status.Version)
	assert.False(t, status.Timestamp.IsZero())
}

func TestHealthService_ReadinessCheck(t *testing.T) {
	t.Run("source reachable", func(t *testing.T) {
		prober := new(MockSourceProber)
		prober.On("Load", mock.Anything).Return(selangorDataset(), nil)

		status := newTestHealthService(t, prober).ReadinessCheck(context.Background())
		assert.True(t, status.Ready())
		require.Contains(t, status.Services, "source")
		assert.Equal(t, 3, status.Services["source"].Rows)
	})

	t.Run("source down", func(t *testing.T) {
		prober := new(MockSourceProber)
		prober.On("Load", mock.Anything).Return(nil,
			apperrors.NewDataUnavailableError("failed to fetch dataset", errors.New("timeout")))
		prober.On("Location").Return("https://example.invalid/cases.parquet")

		status := newTestHealthService(t, prober).ReadinessCheck(context.Background())
		assert.False(t, status.Ready())
		assert.Equal(t, "not_ready", status.Services["source"].Status)
		assert.Contains(t, status.Services["source"].Message, ErrNotReady.Error())
	})

	t.Run("no source attached", func(t *testing.T) {
		status := newTestHealthService(t, nil).ReadinessCheck(context.Background())
		assert.True(t, status.Ready())
	})
}

func TestHealthService_LivenessCheck(t *testing.T) {
	status := newTestHealthService(t, nil).LivenessCheck(context.Background())
	assert.Equal(t, "alive", status.Status)
	assert.Equal(t, runtime.Version(), status.Runtime["go_version"])
	assert.Contains(t, status.Runtime, "uptime")
}

func TestHealthService_Version(t *testing.T) {
	prober := new(MockSourceProber)
	prober.On("Location").Return("https://example.invalid/cases.parquet")

	info := newTestHealthService(t, prober).Version()
	assert.Equal(t, "1.2.3", info["version"])
	assert.Equal(t, "abc123", info["build_id"])
	assert.Equal(t, "2024-01-01T00:00:00Z", info["build_time"])
	assert.Equal(t, "https://example.invalid/cases.parquet", info["source"])
}

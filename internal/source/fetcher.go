// Package source retrieves the raw bytes of the case dataset from an HTTP(S)
// URL, a file:// URL or a local path.
package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"covidvax/internal/config"
	apperrors "covidvax/internal/errors"
	"covidvax/internal/infrastructure"
)

// maxPayloadBytes bounds how much of a response body is read
const maxPayloadBytes = 512 << 20

// Payload is the raw content of one successful fetch
type Payload struct {
	Location    string
	Name        string
	ContentType string
	Data        []byte
	Attempts    int
}

// Fetcher reads dataset payloads with a per-attempt timeout and bounded
// exponential retry.
type Fetcher struct {
	client  *http.Client
	cfg     config.SourceConfig
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithMetrics records fetch attempts on m
func WithMetrics(m *infrastructure.BusinessMetrics) Option {
	return func(f *Fetcher) {
		f.metrics = m
	}
}

// NewFetcher creates a fetcher for the given source settings
func NewFetcher(cfg config.SourceConfig, logger *slog.Logger, opts ...Option) *Fetcher {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultSourceTimeout
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = config.DefaultInitialBackoff
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = cfg.InitialBackoff
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	f := &Fetcher{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		logger: logger.With(slog.String("component", "source_fetcher")),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves location. Every failure is reported as a DATA_UNAVAILABLE
// AppError wrapping the last cause.
func (f *Fetcher) Fetch(ctx context.Context, location string) (*Payload, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, apperrors.NewDataUnavailableError("no dataset location configured", nil)
	}

	scheme, target, err := resolve(location)
	if err != nil {
		return nil, apperrors.NewDataUnavailableError("invalid dataset location", err).
			WithContext("location", location)
	}

	attempts := 0
	var payload *Payload
	operation := func() error {
		attempts++
		infrastructure.RecordFetchAttempt(ctx, f.metrics, scheme)

		var err error
		if scheme == "file" {
			payload, err = f.readFile(target)
		} else {
			payload, err = f.get(ctx, target)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		f.logger.WarnContext(ctx, "dataset fetch failed, retrying",
			slog.String("location", location),
			slog.Int("attempt", attempts),
			slog.Duration("backoff", wait),
			slog.String("error", err.Error()))
	}

	if err := backoff.RetryNotify(operation, f.policy(ctx), notify); err != nil {
		f.logger.ErrorContext(ctx, "dataset fetch gave up",
			slog.String("location", location),
			slog.Int("attempts", attempts),
			slog.String("error", err.Error()))
		return nil, apperrors.NewDataUnavailableError("failed to fetch dataset", err).
			WithContext("location", location).
			WithContext("attempts", attempts)
	}

	payload.Location = location
	payload.Attempts = attempts
	f.logger.DebugContext(ctx, "dataset fetched",
		slog.String("location", location),
		slog.Int("bytes", len(payload.Data)),
		slog.Int("attempts", attempts))
	return payload, nil
}

func (f *Fetcher) policy(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = f.cfg.InitialBackoff
	exp.MaxInterval = f.cfg.MaxBackoff
	exp.MaxElapsedTime = 0
	exp.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(f.cfg.MaxAttempts-1)), ctx)
}

func (f *Fetcher) get(ctx context.Context, target string) (*Payload, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		statusErr := &StatusError{URL: target, StatusCode: resp.StatusCode}
		if !retryableStatus(resp.StatusCode) {
			return nil, backoff.Permanent(statusErr)
		}
		return nil, statusErr
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if len(data) > maxPayloadBytes {
		return nil, backoff.Permanent(fmt.Errorf("response body exceeds %d bytes", maxPayloadBytes))
	}

	u, _ := url.Parse(target)
	return &Payload{
		Name:        path.Base(u.Path),
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (f *Fetcher) readFile(name string) (*Payload, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		// Local IO failures do not heal by waiting
		return nil, backoff.Permanent(err)
	}
	return &Payload{
		Name: filepath.Base(name),
		Data: data,
	}, nil
}

// StatusError reports a non-2xx HTTP response
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// retryableStatus reports whether a response status may succeed on retry
func retryableStatus(code int) bool {
	return code == http.StatusRequestTimeout ||
		code == http.StatusTooManyRequests ||
		code >= 500
}

// resolve splits a location into a scheme ("http" or "file") and the target
// to hand to the HTTP client or the filesystem.
func resolve(location string) (string, string, error) {
	lower := strings.ToLower(location)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		u, err := url.Parse(location)
		if err != nil {
			return "", "", err
		}
		if u.Host == "" {
			return "", "", fmt.Errorf("missing host in %q", location)
		}
		return u.Scheme, location, nil
	case strings.HasPrefix(lower, "file://"):
		u, err := url.Parse(location)
		if err != nil {
			return "", "", err
		}
		p := u.Path
		if u.Host != "" && u.Host != "localhost" {
			p = "//" + u.Host + u.Path
		}
		if p == "" {
			return "", "", fmt.Errorf("empty path in %q", location)
		}
		return "file", filepath.FromSlash(p), nil
	default:
		return "file", location, nil
	}
}

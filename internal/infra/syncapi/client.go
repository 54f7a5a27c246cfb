// Package syncapi ships local state snapshots to a remote backup endpoint.
// The tracker is local-first: the SQLite database is the source of truth and
// the remote copy is purely a backup, so every call here is best-effort and
// guarded by retry plus a circuit breaker.
package syncapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/granadev/grana-go/internal/domain"
	"github.com/granadev/grana-go/internal/infra/resilience"
)

var tracer = otel.Tracer("syncapi")

// Client wraps HTTP calls to the sync backup API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	logger     *zap.Logger
}

// NewClient creates a sync API client.
func NewClient(httpClient *http.Client, baseURL, apiKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		cb:         cb,
		cfg:        cfg,
		logger:     logger,
	}
}

// doRequest executes an authenticated request against the sync API.
func (c *Client) doRequest(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	url := fmt.Sprintf("%s/api/v1/%s", c.baseURL, path)

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		c.logger.Error("syncapi: failed to create request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("syncapi: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("syncapi: failed to read response body",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("syncapi: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)),
		)
		return nil, fmt.Errorf("sync API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	c.logger.Debug("syncapi: request OK",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)

	return respBody, nil
}

// PushSnapshot uploads one user's full state with retry, circuit breaker,
// and tracing. Implements port.SnapshotPusher.
func (c *Client) PushSnapshot(ctx context.Context, userID string, snap *domain.Snapshot) error {
	ctx, span := tracer.Start(ctx, "SyncAPI.PushSnapshot")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.Int64("snapshot.version", snap.Version),
		attribute.Int("snapshot.transactions", len(snap.Transactions)),
	)

	payload, err := json.Marshal(snap)
	if err != nil {
		return &domain.ErrExternalService{Service: "syncapi", Err: err}
	}

	_, err = c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("users/%s/snapshot", userID)
			_, err := c.doRequest(ctx, http.MethodPut, path, payload)
			return err
		})
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return &domain.ErrCircuitOpen{Service: "syncapi"}
		}
		return &domain.ErrExternalService{Service: "syncapi", Err: err}
	}
	return nil
}

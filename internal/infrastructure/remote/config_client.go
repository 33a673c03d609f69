package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/DRSN-tech/miniapp-backend/internal/cfg"
	"github.com/DRSN-tech/miniapp-backend/internal/domain"
	"github.com/DRSN-tech/miniapp-backend/internal/repository/converter"
	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/DRSN-tech/miniapp-backend/pkg/jitter"
	"github.com/DRSN-tech/miniapp-backend/pkg/logger"
)

const maxBodySize = 8 << 20

// pushResponse — ответ точки сохранения на запись снимка.
type pushResponse struct {
	Success   bool   `json:"success"`
	Persisted *bool  `json:"persisted,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ConfigClient — HTTP-клиент удалённого источника истины конфигурации.
type ConfigClient struct {
	client *http.Client
	cfg    *cfg.RemoteCfg
	logger logger.Logger
}

func NewConfigClient(client *http.Client, cfg *cfg.RemoteCfg, logger logger.Logger) *ConfigClient {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &ConfigClient{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// Fetch читает и проверяет снимок.
func (c *ConfigClient) Fetch(ctx context.Context) (*domain.Snapshot, error) {
	const op = "ConfigClient.Fetch"

	var snapshot *domain.Snapshot
	err := c.withRetry(ctx, op, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
		if err != nil {
			return permanent(err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return err
		}

		if resp.StatusCode != http.StatusOK {
			return statusError(resp.StatusCode, body)
		}

		snapshot, err = converter.Unmarshal(body)
		if err != nil {
			return permanent(err)
		}

		return nil
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return snapshot, nil
}

// Push отправляет снимок целиком. Отказ хранилища в записи — e.ErrNotPersisted.
func (c *ConfigClient) Push(ctx context.Context, snapshot *domain.Snapshot) error {
	const op = "ConfigClient.Push"

	payload, err := converter.Marshal(snapshot)
	if err != nil {
		return e.Wrap(op, err)
	}

	err = c.withRetry(ctx, op, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(payload))
		if err != nil {
			return permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return err
		}

		var res pushResponse
		_ = json.Unmarshal(body, &res)

		// persisted=false без 503 не означает хранилище только на чтение
		if resp.StatusCode == http.StatusServiceUnavailable && res.Persisted != nil && !*res.Persisted {
			return permanent(fmt.Errorf("%w: %s", e.ErrNotPersisted, res.Error))
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return statusError(resp.StatusCode, body)
		}

		return nil
	})
	if err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

// withRetry повторяет fn с экспоненциальной задержкой, пока ошибка временная.
func (c *ConfigClient) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}

		if attempt == c.cfg.MaxRetries || ctx.Err() != nil {
			break
		}

		sleepTime := jitter.ExponentialBackoff(c.cfg.RetryBase, c.cfg.RetryMax, attempt, jitter.DefaultJitter)
		c.logger.Warnf("%s failed, retrying in %v (attempt %d): %v", op, sleepTime, attempt+1, err)
		if sleepErr := jitter.Sleep(ctx, sleepTime); sleepErr != nil {
			return sleepErr
		}
	}

	return err
}

// permanentError помечает ошибку, которую бессмысленно повторять.
type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }

func (p *permanentError) Unwrap() error { return p.err }

func permanent(err error) error {
	return &permanentError{err: err}
}

// statusError: 5xx повторяются, остальные коды считаются окончательными.
func statusError(code int, body []byte) error {
	var res pushResponse
	_ = json.Unmarshal(body, &res)

	err := fmt.Errorf("%w: status %d", e.ErrRemoteStatus, code)
	if res.Error != "" {
		err = fmt.Errorf("%w: status %d: %s", e.ErrRemoteStatus, code, res.Error)
	}

	if code >= http.StatusInternalServerError {
		return err
	}

	return permanent(err)
}

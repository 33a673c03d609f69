package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DRSN-tech/miniapp-backend/internal/cfg"
	"github.com/DRSN-tech/miniapp-backend/internal/repository/converter"
	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/DRSN-tech/miniapp-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJSON = `{
  "restaurant": {"name": "Chez Nous"},
  "categories": {"pizza": {"name": "Pizza", "emoji": "🍕", "description": ""}},
  "products": {
    "pizza": [
      {"id": 1, "name": "Margherita", "description": "", "price": 10, "emoji": "🍕", "image": "", "category": "pizza", "isNew": false, "isPromo": false}
    ]
  },
  "admin": {"telegram_username": "resto", "channel_link": "", "whitelist": []}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*ConfigClient, *int32) {
	t.Helper()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client := NewConfigClient(srv.Client(), &cfg.RemoteCfg{
		URL:        srv.URL + "/api/v1/config",
		Timeout:    time.Second,
		MaxRetries: 2,
		RetryBase:  time.Millisecond,
		RetryMax:   5 * time.Millisecond,
	}, logger.Nop{})

	return client, &calls
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestConfigClientFetch(t *testing.T) {
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			_, _ = io.WriteString(w, sampleJSON)
		})

		snap, err := client.Fetch(ctx)
		require.NoError(t, err)
		assert.Len(t, snap.AllProducts(), 1)
		assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	})

	t.Run("retries server errors", func(t *testing.T) {
		var n int32
		client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&n, 1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = io.WriteString(w, sampleJSON)
		})

		_, err := client.Fetch(ctx)
		require.NoError(t, err)
		assert.Equal(t, int32(2), atomic.LoadInt32(calls))
	})

	t.Run("client errors are final", func(t *testing.T) {
		client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "not found"})
		})

		_, err := client.Fetch(ctx)
		assert.ErrorIs(t, err, e.ErrRemoteStatus)
		assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	})

	t.Run("invalid body is not retried", func(t *testing.T) {
		client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"restaurant": {}}`)
		})

		_, err := client.Fetch(ctx)
		assert.ErrorIs(t, err, e.ErrValidation)
		assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	})
}

func TestConfigClientPush(t *testing.T) {
	ctx := context.Background()
	snap, err := converter.Unmarshal([]byte(sampleJSON))
	require.NoError(t, err)

	t.Run("ok", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			_, err = converter.Unmarshal(body)
			assert.NoError(t, err)

			writeJSON(w, http.StatusOK, map[string]any{"success": true, "persisted": true})
		})

		assert.NoError(t, client.Push(ctx, snap))
	})

	t.Run("read-only endpoint", func(t *testing.T) {
		client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"success": false, "persisted": false, "error": "read-only"})
		})

		err := client.Push(ctx, snap)
		assert.ErrorIs(t, err, e.ErrNotPersisted)
		assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	})

	t.Run("gives up after retries", func(t *testing.T) {
		client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		err := client.Push(ctx, snap)
		assert.ErrorIs(t, err, e.ErrRemoteStatus)
		assert.NotErrorIs(t, err, e.ErrNotPersisted)
		assert.Equal(t, int32(3), atomic.LoadInt32(calls))
	})

	t.Run("cancelled context stops retries", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.Error(t, client.Push(cctx, snap))
	})
}

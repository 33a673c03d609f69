package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/miniapp-backend/internal/cfg"
	v1Http "github.com/DRSN-tech/miniapp-backend/internal/delivery/v1/http"
	"github.com/DRSN-tech/miniapp-backend/internal/domain"
	"github.com/DRSN-tech/miniapp-backend/internal/repository/converter"
	"github.com/DRSN-tech/miniapp-backend/internal/usecase"
	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/DRSN-tech/miniapp-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingRepo — хранилище точки сохранения, отказывающее в записи.
type failingRepo struct {
	mu       sync.Mutex
	storeErr error
	stores   int
}

func (f *failingRepo) Load(context.Context) (*domain.Snapshot, error) {
	return nil, e.ErrSnapshotNotFound
}

func (f *failingRepo) Store(context.Context, *domain.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stores++
	return f.storeErr
}

func (f *failingRepo) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stores
}

func newEndpointClient(t *testing.T, repo usecase.SnapshotRepository) *ConfigClient {
	t.Helper()

	mux := chi.NewRouter()
	v1Http.NewRouter(mux, logger.Nop{}).InitEndpoint(usecase.NewConfigEndpointUC(repo, logger.Nop{}))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return NewConfigClient(srv.Client(), &cfg.RemoteCfg{
		URL:        srv.URL + "/api/v1/config",
		Timeout:    time.Second,
		MaxRetries: 2,
		RetryBase:  time.Millisecond,
		RetryMax:   5 * time.Millisecond,
	}, logger.Nop{})
}

func TestConfigClientPushToEndpoint(t *testing.T) {
	ctx := context.Background()
	snap, err := converter.Unmarshal([]byte(sampleJSON))
	require.NoError(t, err)

	t.Run("write failure is retried", func(t *testing.T) {
		repo := &failingRepo{storeErr: errors.New("disk I/O error")}
		client := newEndpointClient(t, repo)

		err := client.Push(ctx, snap)
		assert.ErrorIs(t, err, e.ErrRemoteStatus)
		assert.NotErrorIs(t, err, e.ErrNotPersisted)
		assert.Equal(t, 3, repo.calls())
	})

	t.Run("read-only storage", func(t *testing.T) {
		repo := &failingRepo{storeErr: fmt.Errorf("rename config.json: %w", e.ErrNotPersisted)}
		client := newEndpointClient(t, repo)

		err := client.Push(ctx, snap)
		assert.ErrorIs(t, err, e.ErrNotPersisted)
		assert.Equal(t, 1, repo.calls())
	})

	t.Run("saved", func(t *testing.T) {
		repo := &failingRepo{}
		client := newEndpointClient(t, repo)

		assert.NoError(t, client.Push(ctx, snap))
		assert.Equal(t, 1, repo.calls())
	})
}

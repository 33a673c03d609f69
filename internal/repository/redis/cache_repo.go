package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/DRSN-tech/miniapp-backend/internal/cfg"
	"github.com/DRSN-tech/miniapp-backend/internal/domain"
	"github.com/DRSN-tech/miniapp-backend/internal/repository/converter"
	"github.com/DRSN-tech/miniapp-backend/pkg/clients"
	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/DRSN-tech/miniapp-backend/pkg/logger"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

// SnapshotCacheRepo хранит локальную копию снимка конфигурации в Redis.
// Ключ не имеет TTL: копия нужна именно тогда, когда удалённый источник недоступен.
type SnapshotCacheRepo struct {
	client *clients.RedisClient
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewSnapshotCacheRepo(client *clients.RedisClient, cfg *cfg.RedisCfg, logger logger.Logger) *SnapshotCacheRepo {
	return &SnapshotCacheRepo{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// Get возвращает закэшированный снимок. Пустой кэш — e.ErrCacheMiss.
func (c *SnapshotCacheRepo) Get(ctx context.Context) (*domain.Snapshot, error) {
	val, err := c.client.Client.Get(ctx, c.cfg.SnapshotKey).Result()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return nil, e.ErrCacheMiss
		}
		c.logger.Warnf("Redis GET failed: %v", e.Wrap(whereami.WhereAmI(), err))
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	data, err := redisValueToBytes(val, c.cfg.SnapshotKey)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if len(data) == 0 {
		return nil, e.ErrCacheMiss
	}

	snapshot, err := converter.Unmarshal(data)
	if err != nil {
		c.logger.Warnf("Redis snapshot is corrupted: %v", e.Wrap(whereami.WhereAmI(), err))
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return snapshot, nil
}

// Set перезаписывает локальную копию снимка целиком.
func (c *SnapshotCacheRepo) Set(ctx context.Context, snapshot *domain.Snapshot) error {
	data, err := converter.Marshal(snapshot)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := c.client.Client.Set(ctx, c.cfg.SnapshotKey, data, 0).Err(); err != nil {
		c.logger.Warnf("Redis SET failed: %v", e.Wrap(whereami.WhereAmI(), err))
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// redisValueToBytes конвертирует значение из Redis в []byte.
// Поддерживает string и []byte, возвращает ошибку для неизвестных типов.
func redisValueToBytes(val interface{}, key string) ([]byte, error) {
	switch v := val.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case nil:
		return nil, nil // cache miss
	default:
		return nil, fmt.Errorf("unexpected Redis value type for key %s: %T", key, val)
	}
}

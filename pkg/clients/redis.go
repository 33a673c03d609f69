package clients

import (
	"context"
	"time"

	"github.com/DRSN-tech/miniapp-backend/internal/cfg"
	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

const redisPingTimeout = 5 * time.Second

type RedisClient struct {
	Client *r.Client
}

func NewRedisClient(cfg *cfg.RedisCfg) *RedisClient {
	client := r.NewClient(&r.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	return &RedisClient{
		Client: client,
	}
}

// Ping проверяет соединение; без дедлайна в ctx ограничивается redisPingTimeout.
func (rc *RedisClient) Ping(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
	}

	if err := rc.Client.Ping(ctx).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Close закрывает пул соединений. Сигнатура подходит для closer.Add.
func (rc *RedisClient) Close(_ context.Context) error {
	if err := rc.Client.Close(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

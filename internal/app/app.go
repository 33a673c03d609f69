package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/miniapp-backend/internal/cfg"
	v1Grpc "github.com/DRSN-tech/miniapp-backend/internal/delivery/v1/grpc"
	v1Http "github.com/DRSN-tech/miniapp-backend/internal/delivery/v1/http"
	"github.com/DRSN-tech/miniapp-backend/internal/infrastructure/kafka"
	"github.com/DRSN-tech/miniapp-backend/internal/infrastructure/remote"
	"github.com/DRSN-tech/miniapp-backend/internal/repository/redis"
	"github.com/DRSN-tech/miniapp-backend/internal/usecase"
	"github.com/DRSN-tech/miniapp-backend/pkg/clients"
	"github.com/DRSN-tech/miniapp-backend/pkg/closer"
	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/DRSN-tech/miniapp-backend/pkg/jitter"
	"github.com/DRSN-tech/miniapp-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

const (
	shutdownTimeout  = 10 * time.Second
	topicTimeout     = 10 * time.Second
	healthInterval   = 10 * time.Second
	loadRetryBase    = time.Second
	loadRetryMax     = time.Minute
	minPruneInterval = time.Minute
)

// App — сервис мини-приложения: каталог, корзины, оформление заказа и правки оператора.
type App struct {
	cfg    *config.Config
	logger logger.Logger
	closer *closer.Closer

	store   *usecase.ConfigStore
	cartUC  *usecase.CartUseCase
	health  *v1Grpc.HealthService
	grpcSrv *v1Grpc.GRPCServer
	httpSrv *v1Http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	a := &App{
		cfg:    cfg,
		logger: log,
		closer: closer.NewCloser(0),
	}

	redisClient := clients.NewRedisClient(cfg.Redis)
	if err := redisClient.Ping(context.Background()); err != nil {
		// без кэша сервис работает, но сохранения будут отклоняться
		log.Warnf("redis is unavailable, local snapshot copy disabled until it recovers: %v", err)
	}
	a.closer.Add("redis", redisClient.Close)

	cacheRepo := redis.NewSnapshotCacheRepo(redisClient, cfg.Redis, log)
	remoteClient := remote.NewConfigClient(nil, cfg.Remote, log)
	a.store = usecase.NewConfigStore(remoteClient, cacheRepo, cfg.Remote.Timeout, log)

	publisher, err := a.initPublisher()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	editor := usecase.NewCatalogEditorUC(a.store, log)
	adminUC := usecase.NewAdminUC(a.store, cfg.Admin.Bootstrap, log)
	a.cartUC = usecase.NewCartUC(a.store, a.store, publisher, usecase.CartLimits{
		MaxLines:        cfg.Cart.MaxLines,
		MaxTotal:        cfg.Cart.MaxTotal,
		MaxItemQuantity: cfg.Cart.MaxItemQuantity,
	}, log)

	a.health = v1Grpc.NewHealthService(a.store, healthInterval, log)
	a.grpcSrv = v1Grpc.NewGRPCServer(cfg.Grpc, log)
	a.grpcSrv.RegisterServices(a.health)

	r := chi.NewRouter()
	v1Http.NewRouter(r, log).Init(v1Http.AppDeps{
		Store:          a.store,
		Editor:         editor,
		Admin:          adminUC,
		Cart:           a.cartUC,
		IdentityHeader: cfg.Admin.IdentityHeader,
	})
	a.httpSrv = v1Http.NewServer(r, cfg.Http)

	return a, nil
}

// initPublisher подключает Kafka, если брокеры заданы. Без неё заказ уходит только ссылкой на чат.
func (a *App) initPublisher() (usecase.OrderPublisher, error) {
	if a.cfg.Kafka == nil {
		a.logger.Warnf("KAFKA_BROKERS is not set, orders are delivered through the chat link only")
		return nil, nil
	}

	producer, err := kafka.NewProducer(a.logger, a.cfg.Kafka)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := producer.EnsureTopic(topicTimeout); err != nil {
		a.logger.Warnf("failed to ensure kafka topic %s: %v", a.cfg.Kafka.Topic, err)
	}
	a.closer.Add("kafka producer", producer.Close)

	return producer, nil
}

// Run запускает серверы и блокируется до сигнала остановки или фатальной ошибки.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.loadSnapshot(ctx)
	go a.health.Run(ctx)
	go a.pruneSessions(ctx)

	errCh := make(chan error, 2)
	go func() {
		a.logger.Infof("gRPC server starting on %s:%s", a.cfg.Grpc.NetworkMode, a.cfg.Grpc.Port)
		if err := a.grpcSrv.Start(); err != nil {
			errCh <- e.Wrap("gRPC server", err)
		}
	}()
	a.closer.Add("grpc server", a.grpcSrv.Stop)
	a.closer.Add("health", a.health.Shutdown)

	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil {
			errCh <- e.Wrap("HTTP server", err)
		}
	}()
	a.closer.Add("http server", a.httpSrv.Stop)

	appErr := waitForShutdown(a.logger, errCh)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Errorf(err, "shutdown finished with errors")
	}

	a.logger.Infof("Application shutdown complete")
	return appErr
}

// loadSnapshot загружает снимок, повторяя попытки, пока ни один источник не доступен.
func (a *App) loadSnapshot(ctx context.Context) {
	for attempt := 0; ; attempt++ {
		res, err := a.store.Load(ctx)
		if err == nil {
			a.logger.Infof("Configuration loaded from %s, products: %d", res.Source, res.Products)
			return
		}

		if !errors.Is(err, e.ErrUnavailable) {
			a.logger.Errorf(err, "configuration load failed")
		}

		sleepTime := jitter.ExponentialBackoff(loadRetryBase, loadRetryMax, attempt, jitter.DefaultJitter)
		a.logger.Warnf("configuration unavailable, retrying in %v (attempt %d)", sleepTime, attempt+1)
		if err := jitter.Sleep(ctx, sleepTime); err != nil {
			return
		}
	}
}

// pruneSessions удаляет корзины, не менявшиеся дольше CART_SESSION_TTL.
func (a *App) pruneSessions(ctx context.Context) {
	interval := a.cfg.Cart.SessionTTL / 4
	if interval < minPruneInterval {
		interval = minPruneInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.cartUC.PruneIdle(a.cfg.Cart.SessionTTL); n > 0 {
				a.logger.Debugf("pruned %d idle cart sessions", n)
			}
		}
	}
}

// waitForShutdown ждёт сигнал SIGINT/SIGTERM или первую фатальную ошибку сервера.
func waitForShutdown(log logger.Logger, errCh <-chan error) error {
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-errCh:
		log.Errorf(err, "server fatal error")
		return err
	case <-shutdown:
		log.Infof("Received shutdown signal, stopping gracefully...")
		return nil
	}
}

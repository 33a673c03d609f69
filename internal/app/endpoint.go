package app

import (
	"context"
	"time"

	config "github.com/DRSN-tech/miniapp-backend/internal/cfg"
	v1Http "github.com/DRSN-tech/miniapp-backend/internal/delivery/v1/http"
	fileRepo "github.com/DRSN-tech/miniapp-backend/internal/repository/file"
	s3Repo "github.com/DRSN-tech/miniapp-backend/internal/repository/minio"
	"github.com/DRSN-tech/miniapp-backend/internal/repository/pgdb"
	"github.com/DRSN-tech/miniapp-backend/internal/usecase"
	"github.com/DRSN-tech/miniapp-backend/pkg/clients"
	"github.com/DRSN-tech/miniapp-backend/pkg/closer"
	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/DRSN-tech/miniapp-backend/pkg/logger"
	"github.com/DRSN-tech/miniapp-backend/pkg/postgres"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

const bucketTimeout = 10 * time.Second

// Endpoint — точка сохранения конфигурации: один снимок на чтение и запись.
type Endpoint struct {
	cfg     *config.EndpointConfig
	logger  logger.Logger
	closer  *closer.Closer
	httpSrv *v1Http.Server
}

func NewEndpoint(cfg *config.EndpointConfig, log logger.Logger) (*Endpoint, error) {
	ep := &Endpoint{
		cfg:    cfg,
		logger: log,
		closer: closer.NewCloser(0),
	}

	repo, err := ep.initRepository()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	r := chi.NewRouter()
	v1Http.NewRouter(r, log).InitEndpoint(usecase.NewConfigEndpointUC(repo, log))
	ep.httpSrv = v1Http.NewServer(r, cfg.Http)

	return ep, nil
}

func (ep *Endpoint) initRepository() (usecase.SnapshotRepository, error) {
	switch ep.cfg.Store.Backend {
	case config.BackendMinio:
		mc, err := clients.NewMinIOClient(ep.cfg.Minio)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), bucketTimeout)
		defer cancel()
		if err := clients.EnsureBucket(ctx, mc, ep.cfg.Minio.BucketName); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		ep.logger.Infof("config backend: minio %s/%s", ep.cfg.Minio.BucketName, ep.cfg.Minio.ObjectKey)
		return s3Repo.NewSnapshotRepo(mc, ep.cfg.Minio), nil

	case config.BackendPostgres:
		db, err := initPGDB(ep.logger, ep.cfg.Db)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		ep.closer.Add("postgres", db.Close)

		ep.logger.Infof("config backend: postgres %s:%s/%s", ep.cfg.Db.Host, ep.cfg.Db.Port, ep.cfg.Db.DBName)
		return pgdb.NewSnapshotRepo(db.Pool), nil

	default:
		ep.logger.Infof("config backend: file %s", ep.cfg.Store.FilePath)
		return fileRepo.NewSnapshotRepo(ep.cfg.Store.FilePath, ep.logger), nil
	}
}

func (ep *Endpoint) Run() error {
	errCh := make(chan error, 1)
	go func() {
		ep.logger.Infof("config endpoint started on port %s", ep.cfg.Http.Port)
		if err := ep.httpSrv.Run(); err != nil {
			errCh <- e.Wrap("HTTP server", err)
		}
	}()
	ep.closer.Add("http server", ep.httpSrv.Stop)

	appErr := waitForShutdown(ep.logger, errCh)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := ep.closer.Close(shutdownCtx); err != nil {
		ep.logger.Errorf(err, "shutdown finished with errors")
	}

	ep.logger.Infof("Config endpoint shutdown complete")
	return appErr
}

func initPGDB(logger logger.Logger, cfg *config.PGDBCfg) (*postgres.PgDatabase, error) {
	ctx, cancel := context.WithTimeout(context.Background(), bucketTimeout)
	defer cancel()

	db, err := postgres.Connect(ctx, cfg)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(logger); err != nil {
		logger.Errorf(err, "failed to run migrations")
		db.Pool.Close()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}

package grpc

import (
	"context"
	"time"

	"github.com/DRSN-tech/miniapp-backend/pkg/logger"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ConfigService — имя сервиса в health-протоколе, отражающее доступность источника истины.
const ConfigService = "miniapp.config"

const defaultHealthInterval = 10 * time.Second

// ReachabilityProbe сообщает, отвечал ли удалённый источник при последнем обращении.
type ReachabilityProbe interface {
	RemoteReachable() bool
}

// HealthService публикует состояние сервиса через grpc.health.v1.
// Недоступный источник не останавливает сервис: каталог обслуживается из кэша.
type HealthService struct {
	server   *health.Server
	probe    ReachabilityProbe
	interval time.Duration
	logger   logger.Logger
	last     healthpb.HealthCheckResponse_ServingStatus
}

func NewHealthService(probe ReachabilityProbe, interval time.Duration, logger logger.Logger) *HealthService {
	h := &HealthService{
		server:   health.NewServer(),
		probe:    probe,
		interval: interval,
		logger:   logger,
		last:     healthpb.HealthCheckResponse_UNKNOWN,
	}
	h.server.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	h.update()

	return h
}

// Run обновляет статус с заданным интервалом до отмены ctx.
func (h *HealthService) Run(ctx context.Context) {
	interval := h.interval
	if interval <= 0 {
		interval = defaultHealthInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.update()
		}
	}
}

// Shutdown переводит все сервисы в NOT_SERVING перед остановкой.
func (h *HealthService) Shutdown(_ context.Context) error {
	h.server.Shutdown()
	return nil
}

func (h *HealthService) update() {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if h.probe.RemoteReachable() {
		status = healthpb.HealthCheckResponse_SERVING
	}

	if status != h.last {
		h.logger.Infof("config source health: %s", status)
		h.last = status
	}
	h.server.SetServingStatus(ConfigService, status)
}

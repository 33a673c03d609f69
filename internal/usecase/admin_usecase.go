package usecase

import (
	"context"
	"strings"

	"github.com/DRSN-tech/miniapp-backend/internal/domain"
	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/DRSN-tech/miniapp-backend/pkg/logger"
)

// AdminUseCase управляет списком операторов и настройками канала.
// bootstrap — статический список из окружения, действующий даже при пустом списке в снимке.
type AdminUseCase struct {
	store     *ConfigStore
	bootstrap domain.AdminConfig
	logger    logger.Logger
}

func NewAdminUC(store *ConfigStore, bootstrap []string, logger logger.Logger) *AdminUseCase {
	uc := &AdminUseCase{
		store:  store,
		logger: logger,
	}

	for _, identity := range bootstrap {
		if err := uc.bootstrap.AddIdentity(identity); err != nil {
			logger.Warnf("Skipping bootstrap admin %q: %v", identity, err)
		}
	}

	return uc
}

// IsAdmin проверяет идентичность без учёта регистра и ведущего '@'.
func (a *AdminUseCase) IsAdmin(identity string) bool {
	if a.bootstrap.IsWhitelisted(identity) {
		return true
	}

	settings, err := a.store.Admin()
	if err != nil {
		return false
	}

	return settings.IsWhitelisted(identity)
}

func (a *AdminUseCase) Settings() (domain.AdminConfig, error) {
	return a.store.Admin()
}

func (a *AdminUseCase) AddAdmin(ctx context.Context, identity string) (*SaveResult, error) {
	const op = "AdminUseCase.AddAdmin"

	res, err := a.store.Update(ctx, func(s *domain.Snapshot) error {
		return s.Admin.AddIdentity(identity)
	})
	if err != nil {
		return res, e.Wrap(op, err)
	}

	a.logger.Infof("Admin added: %s", domain.NormalizeIdentity(identity))
	return res, nil
}

func (a *AdminUseCase) RemoveAdmin(ctx context.Context, identity string) (*SaveResult, error) {
	const op = "AdminUseCase.RemoveAdmin"

	res, err := a.store.Update(ctx, func(s *domain.Snapshot) error {
		return s.Admin.RemoveIdentity(identity)
	})
	if err != nil {
		return res, e.Wrap(op, err)
	}

	a.logger.Infof("Admin removed: %s", domain.NormalizeIdentity(identity))
	return res, nil
}

// UpdateSettings задаёт ник оператора для приёма заказов и ссылку на канал.
func (a *AdminUseCase) UpdateSettings(ctx context.Context, handle, channelLink string) (*SaveResult, error) {
	const op = "AdminUseCase.UpdateSettings"

	handle = domain.NormalizeIdentity(handle)
	if handle == "" {
		return nil, e.Wrap(op, e.ErrHandleRequired)
	}

	res, err := a.store.Update(ctx, func(s *domain.Snapshot) error {
		s.Admin.TelegramHandle = handle
		s.Admin.ChannelLink = strings.TrimSpace(channelLink)
		return nil
	})
	if err != nil {
		return res, e.Wrap(op, err)
	}

	return res, nil
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DRSN-tech/miniapp-backend/internal/domain"
	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/DRSN-tech/miniapp-backend/pkg/logger"
)

// ConfigStore владеет снимком каталога. Загрузка: сначала удалённый источник, затем кэш.
// Сохранение: сначала кэш (обязательно), затем удалённый источник (по возможности).
//
// Снимок в памяти никогда не меняется на месте: правка применяется к копии и подменяет его целиком.
// Сохранения и правки выполняются строго по очереди.
type ConfigStore struct {
	remote  SnapshotRemote
	cache   SnapshotCache
	timeout time.Duration
	logger  logger.Logger

	mu       sync.RWMutex
	snapshot *domain.Snapshot

	saveMu    sync.Mutex
	reachable atomic.Bool
}

const defaultRemoteTimeout = 5 * time.Second

func NewConfigStore(remote SnapshotRemote, cache SnapshotCache, timeout time.Duration, logger logger.Logger) *ConfigStore {
	if timeout <= 0 {
		timeout = defaultRemoteTimeout
	}

	return &ConfigStore{
		remote:  remote,
		cache:   cache,
		timeout: timeout,
		logger:  logger,
	}
}

// Load заменяет снимок в памяти снимком из удалённого источника, а при любой его ошибке — из кэша.
// Источники не смешиваются. Если ни один не дал корректного снимка, возвращается e.ErrUnavailable.
func (s *ConfigStore) Load(ctx context.Context) (*LoadResult, error) {
	const op = "ConfigStore.Load"

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	snapshot, remoteErr := s.fetchRemote(ctx)
	if remoteErr == nil {
		s.reachable.Store(true)
		s.setSnapshot(snapshot)
		s.logger.Infof("Configuration loaded from remote, products: %d", len(snapshot.AllProducts()))
		return NewLoadResult(SourceRemote, len(snapshot.AllProducts())), nil
	}

	s.reachable.Store(false)
	s.logger.Warnf("Remote configuration unavailable, falling back to cache: %v", e.Wrap(op, remoteErr))

	snapshot, cacheErr := s.fetchCache(ctx)
	if cacheErr == nil {
		s.setSnapshot(snapshot)
		s.logger.Infof("Configuration loaded from cache, products: %d", len(snapshot.AllProducts()))
		return NewLoadResult(SourceCache, len(snapshot.AllProducts())), nil
	}

	return nil, e.Wrap(op, fmt.Errorf("%w: remote: %v; cache: %v", e.ErrUnavailable, remoteErr, cacheErr))
}

// Save записывает текущий снимок. Ошибка возвращается только если не удалась запись в кэш;
// сбой удалённой записи отражается в SaveResult.
func (s *ConfigStore) Save(ctx context.Context) (*SaveResult, error) {
	const op = "ConfigStore.Save"

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	snapshot, err := s.current()
	if err != nil {
		return &SaveResult{}, e.Wrap(op, err)
	}

	res, err := s.persist(ctx, snapshot)
	if err != nil {
		return res, e.Wrap(op, err)
	}

	return res, nil
}

// Update применяет fn к копии снимка, проверяет её и подменяет снимок, затем сохраняет.
// Ошибка fn или проверки ничего не меняет. Ошибка сохранения после подмены возвращается
// как *PersistError: правка остаётся в памяти.
func (s *ConfigStore) Update(ctx context.Context, fn func(snapshot *domain.Snapshot) error) (*SaveResult, error) {
	const op = "ConfigStore.Update"

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	current, err := s.current()
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	draft := current.Clone()
	if err := fn(draft); err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := draft.Validate(); err != nil {
		return nil, e.Wrap(op, err)
	}

	s.setSnapshot(draft)

	res, err := s.persist(ctx, draft)
	if err != nil {
		return res, &PersistError{Result: res, Err: e.Wrap(op, err)}
	}

	return res, nil
}

// Replace подменяет снимок целиком (импорт) с той же семантикой, что и Update.
func (s *ConfigStore) Replace(ctx context.Context, snapshot *domain.Snapshot) (*SaveResult, error) {
	if snapshot == nil {
		return nil, e.ErrInvalidSnapshot
	}

	return s.Update(ctx, func(draft *domain.Snapshot) error {
		*draft = *snapshot.Clone()
		return nil
	})
}

// Snapshot возвращает копию снимка из памяти.
func (s *ConfigStore) Snapshot() (*domain.Snapshot, error) {
	snapshot, err := s.current()
	if err != nil {
		return nil, err
	}

	return snapshot.Clone(), nil
}

func (s *ConfigStore) Product(id int64) (*domain.Product, error) {
	snapshot, err := s.current()
	if err != nil {
		return nil, err
	}

	p, ok := snapshot.FindProduct(id)
	if !ok {
		return nil, e.Wrap(fmt.Sprintf("product %d", id), e.ErrProductNotFound)
	}

	return p.Clone(), nil
}

// Categories возвращает категории, отсортированные по ID.
func (s *ConfigStore) Categories() ([]*domain.Category, error) {
	snapshot, err := s.current()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(snapshot.Categories))
	for id := range snapshot.Categories {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	categories := make([]*domain.Category, 0, len(ids))
	for _, id := range ids {
		categories = append(categories, snapshot.Categories[id].Clone())
	}

	return categories, nil
}

func (s *ConfigStore) Admin() (domain.AdminConfig, error) {
	snapshot, err := s.current()
	if err != nil {
		return domain.AdminConfig{}, err
	}

	return snapshot.Admin.Clone(), nil
}

// RemoteReachable — ответил ли удалённый источник при последнем обращении.
func (s *ConfigStore) RemoteReachable() bool {
	return s.reachable.Load()
}

// persist пишет снимок в кэш, затем в удалённый источник. Вызывается под saveMu.
func (s *ConfigStore) persist(ctx context.Context, snapshot *domain.Snapshot) (*SaveResult, error) {
	res := &SaveResult{}

	if err := s.cache.Set(ctx, snapshot); err != nil {
		s.logger.Errorf(err, "Cache write failed, nothing saved")
		return res, fmt.Errorf("%w: cache write: %w", e.ErrPersistence, err)
	}
	res.CacheOK = true

	pushCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.remote.Push(pushCtx, snapshot); err != nil {
		res.RemoteErr = err
		res.RemoteNotPersisted = errors.Is(err, e.ErrNotPersisted)
		s.reachable.Store(res.RemoteNotPersisted)
		s.logger.Warnf("Remote write failed, saved locally only: %v", err)
		return res, nil
	}

	res.RemoteOK = true
	s.reachable.Store(true)
	return res, nil
}

func (s *ConfigStore) fetchRemote(ctx context.Context) (*domain.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	snapshot, err := s.remote.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	if err := snapshot.Validate(); err != nil {
		return nil, err
	}

	return snapshot, nil
}

func (s *ConfigStore) fetchCache(ctx context.Context) (*domain.Snapshot, error) {
	snapshot, err := s.cache.Get(ctx)
	if err != nil {
		return nil, err
	}

	if err := snapshot.Validate(); err != nil {
		return nil, err
	}

	return snapshot, nil
}

func (s *ConfigStore) current() (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snapshot == nil {
		return nil, e.ErrSnapshotNotLoaded
	}

	return s.snapshot, nil
}

func (s *ConfigStore) setSnapshot(snapshot *domain.Snapshot) {
	s.mu.Lock()
	s.snapshot = snapshot
	s.mu.Unlock()
}

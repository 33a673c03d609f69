package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/DRSN-tech/miniapp-backend/internal/domain"
	"github.com/DRSN-tech/miniapp-backend/internal/repository/converter"
	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/DRSN-tech/miniapp-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/jimlawless/whereami"
)

const filePerm = 0o644

// SnapshotRepo хранит снимок конфигурации в JSON-файле.
// Запись атомарна: временный файл в том же каталоге, затем rename.
type SnapshotRepo struct {
	mu     sync.Mutex
	path   string
	logger logger.Logger
}

func NewSnapshotRepo(path string, logger logger.Logger) *SnapshotRepo {
	return &SnapshotRepo{
		path:   path,
		logger: logger,
	}
}

// Load читает файл снимка. Отсутствующий файл — e.ErrSnapshotNotFound.
func (s *SnapshotRepo) Load(_ context.Context) (*domain.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: %w", e.ErrSnapshotNotFound, err))
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	snapshot, err := converter.Unmarshal(data)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return snapshot, nil
}

// Store перезаписывает файл снимка. Файловая система только на чтение — e.ErrNotPersisted.
func (s *SnapshotRepo) Store(ctx context.Context, snapshot *domain.Snapshot) error {
	data, err := converter.MarshalIndent(snapshot)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := ctx.Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeAtomic(data); err != nil {
		err = classify(err)
		if errors.Is(err, e.ErrNotPersisted) {
			s.logger.Warnf("config file %s is read-only: %v", s.path, err)
		}
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (s *SnapshotRepo) writeAtomic(data []byte) error {
	tmp := filepath.Join(filepath.Dir(s.path), "."+filepath.Base(s.path)+"."+uuid.NewString()+".tmp")

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return err
	}

	return nil
}

// classify помечает отказ файловой системы в записи как e.ErrNotPersisted.
func classify(err error) error {
	if errors.Is(err, syscall.EROFS) || errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %w", e.ErrNotPersisted, err)
	}

	return err
}

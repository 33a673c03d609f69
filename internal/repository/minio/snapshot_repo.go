package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/DRSN-tech/miniapp-backend/internal/cfg"
	"github.com/DRSN-tech/miniapp-backend/internal/domain"
	"github.com/DRSN-tech/miniapp-backend/internal/repository/converter"
	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
)

const snapshotContentType = "application/json"

// SnapshotRepo хранит снимок конфигурации одним объектом в MinIO.
type SnapshotRepo struct {
	mc  *minio.Client
	cfg *cfg.MinIOCfg
}

func NewSnapshotRepo(mc *minio.Client, cfg *cfg.MinIOCfg) *SnapshotRepo {
	return &SnapshotRepo{
		mc:  mc,
		cfg: cfg,
	}
}

// Load читает и проверяет снимок. Отсутствующий объект — e.ErrSnapshotNotFound.
func (s *SnapshotRepo) Load(ctx context.Context) (*domain.Snapshot, error) {
	obj, err := s.mc.GetObject(ctx, s.cfg.BucketName, s.cfg.ObjectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), classify(err))
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), classify(err))
	}

	snapshot, err := converter.Unmarshal(data)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return snapshot, nil
}

// Store перезаписывает объект снимка целиком.
func (s *SnapshotRepo) Store(ctx context.Context, snapshot *domain.Snapshot) error {
	data, err := converter.MarshalIndent(snapshot)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	_, err = s.mc.PutObject(ctx, s.cfg.BucketName, s.cfg.ObjectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: snapshotContentType,
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), classify(err))
	}

	return nil
}

// classify сводит коды ответа S3 к ошибкам приложения.
func classify(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%w: %w", e.ErrSnapshotNotFound, err)
	case "AccessDenied":
		return fmt.Errorf("%w: %w", e.ErrNotPersisted, err)
	default:
		return err
	}
}

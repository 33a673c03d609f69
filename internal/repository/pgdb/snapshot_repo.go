package pgdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/DRSN-tech/miniapp-backend/internal/domain"
	"github.com/DRSN-tech/miniapp-backend/internal/repository/converter"
	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

const (
	pgReadOnlyTransaction   = "25006"
	pgInsufficientPrivilege = "42501"
)

// SnapshotRepo хранит текущий снимок конфигурации одной строкой JSONB
// и дописывает каждую сохранённую версию в историю.
type SnapshotRepo struct {
	pool *pgxpool.Pool
}

func NewSnapshotRepo(pool *pgxpool.Pool) *SnapshotRepo {
	return &SnapshotRepo{
		pool: pool,
	}
}

// Load читает текущий снимок. Пустая таблица — e.ErrSnapshotNotFound.
func (s *SnapshotRepo) Load(ctx context.Context) (*domain.Snapshot, error) {
	query := `
		SELECT body
		FROM config_snapshot
		WHERE id = 1;
	`

	var body []byte
	if err := s.pool.QueryRow(ctx, query).Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrSnapshotNotFound)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	snapshot, err := converter.Unmarshal(body)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return snapshot, nil
}

// Store заменяет текущий снимок и пишет его в историю в одной транзакции.
func (s *SnapshotRepo) Store(ctx context.Context, snapshot *domain.Snapshot) error {
	body, err := converter.Marshal(snapshot)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	// $1 body
	upsert := `
		INSERT INTO config_snapshot (id, body)
		VALUES (1, $1)
		ON CONFLICT (id)
		DO UPDATE SET
			body = EXCLUDED.body,
			updated_at = NOW();
	`
	history := `
		INSERT INTO config_snapshot_history (body)
		VALUES ($1);
	`

	err = pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, upsert, body); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, history, body)
		return err
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), classify(err))
	}

	return nil
}

// classify помечает отказ в записи как e.ErrNotPersisted.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgReadOnlyTransaction, pgInsufficientPrivilege:
			return fmt.Errorf("%w: %w", e.ErrNotPersisted, err)
		}
	}

	return err
}

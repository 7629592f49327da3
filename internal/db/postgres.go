package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"studiosim/internal/game"
	"studiosim/internal/sim"
)

const pgSchema = `
CREATE SCHEMA IF NOT EXISTS studio;

CREATE TABLE IF NOT EXISTS studio.companies (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	key_hash    TEXT NOT NULL,
	snapshot    JSONB NOT NULL,
	delegating  BOOLEAN NOT NULL DEFAULT FALSE,
	game_over   BOOLEAN NOT NULL DEFAULT FALSE,
	version     BIGINT NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

ALTER TABLE studio.companies ADD COLUMN IF NOT EXISTS version BIGINT NOT NULL DEFAULT 0;

CREATE INDEX IF NOT EXISTS companies_delegating_idx
	ON studio.companies (id) WHERE delegating AND NOT game_over;

CREATE TABLE IF NOT EXISTS studio.funds_history (
	id          BIGSERIAL PRIMARY KEY,
	company_id  TEXT NOT NULL REFERENCES studio.companies(id) ON DELETE CASCADE,
	year        INTEGER NOT NULL,
	month       INTEGER NOT NULL,
	funds       BIGINT NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS funds_history_company_idx
	ON studio.funds_history (company_id, id);

CREATE TABLE IF NOT EXISTS studio.idempotency_keys (
	company_id  TEXT NOT NULL REFERENCES studio.companies(id) ON DELETE CASCADE,
	key         TEXT NOT NULL,
	action      TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (company_id, key)
);
`

// PGStore keeps companies in Postgres. Snapshots are JSONB; every write runs
// in a serializable transaction and is retried on serialization failures.
type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{db: pool}
}

// OpenPostgres connects, pings and migrates.
func OpenPostgres(ctx context.Context, databaseURL string) (*PGStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 20
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 10 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	s := NewPGStore(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PGStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, pgSchema); err != nil {
		return fmt.Errorf("migrate postgres: %w", err)
	}
	return nil
}

func (s *PGStore) Close() error {
	s.db.Close()
	return nil
}

func (s *PGStore) InsertCompany(ctx context.Context, rec game.CompanyRecord, first sim.FundsPoint) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO studio.companies (id, name, key_hash, snapshot, delegating, game_over, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, rec.ID, rec.Name, rec.KeyHash, rec.Snapshot, rec.Delegating, rec.GameOver, rec.UpdatedAt); err != nil {
			return err
		}
		return insertPoint(ctx, tx, rec.ID, first)
	})
}

func (s *PGStore) Company(ctx context.Context, id string) (game.CompanyRecord, error) {
	var rec game.CompanyRecord
	err := s.db.QueryRow(ctx, `
		SELECT id, name, key_hash, snapshot, delegating, game_over, version, updated_at
		FROM studio.companies
		WHERE id = $1
	`, id).Scan(&rec.ID, &rec.Name, &rec.KeyHash, &rec.Snapshot, &rec.Delegating, &rec.GameOver, &rec.Version, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return game.CompanyRecord{}, game.ErrCompanyNotFound
	}
	if err != nil {
		return game.CompanyRecord{}, err
	}
	return rec, nil
}

func (s *PGStore) Commit(ctx context.Context, m game.Mutation) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE studio.companies
			SET snapshot = $2, delegating = $3, game_over = $4, updated_at = $5, version = version + 1
			WHERE id = $1 AND version = $6
		`, m.Record.ID, m.Record.Snapshot, m.Record.Delegating, m.Record.GameOver, m.Record.UpdatedAt, m.Record.Version)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return missedUpdate(ctx, tx, m)
		}
		// A replayed key rolls the update above back with the rest of the tx.
		if err := claimIdempotency(ctx, tx, m.Record.ID, m.IdempotencyKey, m.Action); err != nil {
			return err
		}
		if m.ResetHistory {
			if _, err := tx.Exec(ctx, `DELETE FROM studio.funds_history WHERE company_id = $1`, m.Record.ID); err != nil {
				return err
			}
		}
		if m.Point != nil {
			return insertPoint(ctx, tx, m.Record.ID, *m.Point)
		}
		return nil
	})
}

func (s *PGStore) FundsHistory(ctx context.Context, id string, limit int) ([]sim.FundsPoint, error) {
	rows, err := s.db.Query(ctx, `
		SELECT year, month, funds FROM (
			SELECT id, year, month, funds
			FROM studio.funds_history
			WHERE company_id = $1
			ORDER BY id DESC
			LIMIT $2
		) h
		ORDER BY id ASC
	`, id, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]sim.FundsPoint, 0, limit)
	for rows.Next() {
		var p sim.FundsPoint
		if err := rows.Scan(&p.Year, &p.Month, &p.Funds); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PGStore) DelegatingCompanies(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id FROM studio.companies
		WHERE delegating AND NOT game_over
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PGStore) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	const maxAttempts = 8
	retryDelay := 75 * time.Millisecond
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := s.runTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !isSerializationError(err) {
			return err
		}
		if attempt == maxAttempts-1 {
			return game.ErrTxConflict
		}
		if err := sleepWithContext(ctx, retryDelay); err != nil {
			return err
		}
		if retryDelay < 1200*time.Millisecond {
			retryDelay *= 2
		}
	}
	return game.ErrTxConflict
}

func (s *PGStore) runTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func claimIdempotency(ctx context.Context, tx pgx.Tx, companyID, key, action string) error {
	if key == "" {
		return errors.New("idempotency key is required")
	}
	tag, err := tx.Exec(ctx, `
		INSERT INTO studio.idempotency_keys (company_id, key, action)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`, companyID, key, action)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return game.ErrDuplicateIdempotency
	}
	return nil
}

// missedUpdate tells a deleted company from a spent key or a newer version.
func missedUpdate(ctx context.Context, tx pgx.Tx, m game.Mutation) error {
	var exists, spent bool
	err := tx.QueryRow(ctx, `
		SELECT
			EXISTS (SELECT 1 FROM studio.companies WHERE id = $1),
			EXISTS (SELECT 1 FROM studio.idempotency_keys WHERE company_id = $1 AND key = $2)
	`, m.Record.ID, m.IdempotencyKey).Scan(&exists, &spent)
	switch {
	case err != nil:
		return err
	case !exists:
		return game.ErrCompanyNotFound
	case spent:
		return game.ErrDuplicateIdempotency
	}
	return game.ErrStaleSnapshot
}

func insertPoint(ctx context.Context, tx pgx.Tx, companyID string, p sim.FundsPoint) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO studio.funds_history (company_id, year, month, funds)
		VALUES ($1, $2, $3, $4)
	`, companyID, p.Year, p.Month, p.Funds)
	return err
}

func isSerializationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"studiosim/internal/game"
	"studiosim/internal/sim"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS companies (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	key_hash    TEXT NOT NULL,
	snapshot    TEXT NOT NULL,
	delegating  INTEGER NOT NULL DEFAULT 0,
	game_over   INTEGER NOT NULL DEFAULT 0,
	version     INTEGER NOT NULL DEFAULT 0,
	updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS funds_history (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	company_id  TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
	year        INTEGER NOT NULL,
	month       INTEGER NOT NULL,
	funds       INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_funds_history_company ON funds_history(company_id, id);

CREATE TABLE IF NOT EXISTS idempotency_keys (
	company_id  TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
	key         TEXT NOT NULL,
	action      TEXT NOT NULL,
	PRIMARY KEY (company_id, key)
);
`

// SQLiteStore is the single-file store used when no Postgres URL is set.
type SQLiteStore struct {
	conn *sqlx.DB
}

type companyRow struct {
	ID         string `db:"id"`
	Name       string `db:"name"`
	KeyHash    string `db:"key_hash"`
	Snapshot   string `db:"snapshot"`
	Delegating bool   `db:"delegating"`
	GameOver   bool   `db:"game_over"`
	Version    int64  `db:"version"`
	UpdatedAt  string `db:"updated_at"`
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	conn, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer; the pragmas below are per connection.
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	for _, p := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite %s: %w", strings.TrimSuffix(p, ";"), err)
		}
	}
	if _, err := conn.Exec(sqliteSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	if err := sqliteAddVersion(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &SQLiteStore{conn: conn}, nil
}

// Files written before companies carried a version get the column added.
func sqliteAddVersion(conn *sqlx.DB) error {
	var n int
	if err := conn.Get(&n, `SELECT COUNT(1) FROM pragma_table_info('companies') WHERE name = 'version'`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err := conn.Exec(`ALTER TABLE companies ADD COLUMN version INTEGER NOT NULL DEFAULT 0`)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) InsertCompany(ctx context.Context, rec game.CompanyRecord, first sim.FundsPoint) error {
	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO companies (id, name, key_hash, snapshot, delegating, game_over, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.KeyHash, string(rec.Snapshot), rec.Delegating, rec.GameOver, formatTime(rec.UpdatedAt),
	); err != nil {
		return err
	}
	if err := sqliteInsertPoint(ctx, tx, rec.ID, first); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) Company(ctx context.Context, id string) (game.CompanyRecord, error) {
	var row companyRow
	err := s.conn.GetContext(ctx, &row, `
		SELECT id, name, key_hash, snapshot, delegating, game_over, version, updated_at
		FROM companies WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return game.CompanyRecord{}, game.ErrCompanyNotFound
	}
	if err != nil {
		return game.CompanyRecord{}, err
	}
	updated, err := time.Parse(time.RFC3339Nano, row.UpdatedAt)
	if err != nil {
		return game.CompanyRecord{}, fmt.Errorf("company %s updated_at: %w", id, err)
	}
	return game.CompanyRecord{
		ID:         row.ID,
		Name:       row.Name,
		KeyHash:    row.KeyHash,
		Snapshot:   []byte(row.Snapshot),
		Delegating: row.Delegating,
		GameOver:   row.GameOver,
		Version:    row.Version,
		UpdatedAt:  updated,
	}, nil
}

// Commit opens with the versioned update so the transaction holds the write
// lock from its first statement. A deferred transaction that reads first
// cannot upgrade once another handle on the file has committed.
func (s *SQLiteStore) Commit(ctx context.Context, m game.Mutation) error {
	if m.IdempotencyKey == "" {
		return errors.New("idempotency key is required")
	}
	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE companies
		SET snapshot = ?, delegating = ?, game_over = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		string(m.Record.Snapshot), m.Record.Delegating, m.Record.GameOver, formatTime(m.Record.UpdatedAt),
		m.Record.ID, m.Record.Version,
	)
	if err != nil {
		return err
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if updated == 0 {
		return sqliteMissedUpdate(ctx, tx, m)
	}

	res, err = tx.ExecContext(ctx, `
		INSERT INTO idempotency_keys (company_id, key, action) VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING`,
		m.Record.ID, m.IdempotencyKey, m.Action)
	if err != nil {
		return err
	}
	claimed, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if claimed == 0 {
		return game.ErrDuplicateIdempotency
	}

	if m.ResetHistory {
		if _, err := tx.ExecContext(ctx, `DELETE FROM funds_history WHERE company_id = ?`, m.Record.ID); err != nil {
			return err
		}
	}
	if m.Point != nil {
		if err := sqliteInsertPoint(ctx, tx, m.Record.ID, *m.Point); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) FundsHistory(ctx context.Context, id string, limit int) ([]sim.FundsPoint, error) {
	out := []sim.FundsPoint{}
	err := s.conn.SelectContext(ctx, &out, `
		SELECT year, month, funds FROM (
			SELECT id, year, month, funds FROM funds_history
			WHERE company_id = ?
			ORDER BY id DESC
			LIMIT ?
		) ORDER BY id ASC`, id, limit)
	return out, err
}

func (s *SQLiteStore) DelegatingCompanies(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.conn.SelectContext(ctx, &ids, `
		SELECT id FROM companies
		WHERE delegating = 1 AND game_over = 0
		ORDER BY id`)
	return ids, err
}

// sqliteMissedUpdate explains an update that matched no row: the company is
// gone, the key was already spent, or someone else wrote first.
func sqliteMissedUpdate(ctx context.Context, tx *sqlx.Tx, m game.Mutation) error {
	var exists int
	if err := tx.GetContext(ctx, &exists, `SELECT COUNT(1) FROM companies WHERE id = ?`, m.Record.ID); err != nil {
		return err
	}
	if exists == 0 {
		return game.ErrCompanyNotFound
	}
	var spent int
	if err := tx.GetContext(ctx, &spent, `
		SELECT COUNT(1) FROM idempotency_keys WHERE company_id = ? AND key = ?`,
		m.Record.ID, m.IdempotencyKey); err != nil {
		return err
	}
	if spent > 0 {
		return game.ErrDuplicateIdempotency
	}
	return game.ErrStaleSnapshot
}

func sqliteInsertPoint(ctx context.Context, tx *sqlx.Tx, companyID string, p sim.FundsPoint) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO funds_history (company_id, year, month, funds) VALUES (?, ?, ?, ?)`,
		companyID, p.Year, p.Month, p.Funds)
	return err
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "modernc.org/sqlite"
)

const payloadTable = "sheet_payloads"

// SQLite implements Store on a SQLite table. Queries are built with ent's
// SQL builder and run through its driver.
type SQLite struct {
	drv *entsql.Driver
	ttl time.Duration
	now func() time.Time
}

// OpenSQLite opens dsn with the pure-Go sqlite driver and creates the
// payload table if needed.
func OpenSQLite(ctx context.Context, dsn string, ttl time.Duration) (*SQLite, error) {
	if dsn == "" {
		dsn = "file:sheets.db"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := NewSQLite(db, ttl)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLite wraps an open database. Call Migrate before use.
func NewSQLite(db *sql.DB, ttl time.Duration) *SQLite {
	return &SQLite{
		drv: entsql.OpenDB(dialect.SQLite, db),
		ttl: ttl,
		now: time.Now,
	}
}

// Migrate creates the payload table.
func (s *SQLite) Migrate(ctx context.Context) error {
	err := s.drv.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sheet_payloads (
			sheet_id   TEXT NOT NULL,
			kind       TEXT NOT NULL,
			payload    BLOB NOT NULL,
			stored_at  INTEGER NOT NULL,
			expires_at INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (sheet_id, kind)
		)`, []any{}, nil)
	if err != nil {
		return fmt.Errorf("creating %s: %w", payloadTable, err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select("payload", "expires_at").
		From(entsql.Table(payloadTable)).
		Where(entsql.And(
			entsql.EQ("sheet_id", key.ID),
			entsql.EQ("kind", string(key.Kind)),
		)).
		Query()

	var rows entsql.Rows
	if err := s.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, false, fmt.Errorf("querying cached payload %s: %w", key, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, false, rows.Err()
	}
	var (
		payload []byte
		expires int64
	)
	if err := rows.Scan(&payload, &expires); err != nil {
		return nil, false, fmt.Errorf("scanning cached payload %s: %w", key, err)
	}
	if expires > 0 && s.now().Unix() >= expires {
		return nil, false, nil
	}
	return payload, true, nil
}

func (s *SQLite) Put(ctx context.Context, key Key, payload []byte) error {
	now := s.now()
	var expires int64
	if s.ttl > 0 {
		expires = now.Add(s.ttl).Unix()
	}
	query, args := entsql.Dialect(dialect.SQLite).
		Insert(payloadTable).
		Columns("sheet_id", "kind", "payload", "stored_at", "expires_at").
		Values(key.ID, string(key.Kind), payload, now.Unix(), expires).
		OnConflict(
			entsql.ConflictColumns("sheet_id", "kind"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if err := s.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("storing payload %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, key Key) error {
	query, args := entsql.Dialect(dialect.SQLite).
		Delete(payloadTable).
		Where(entsql.And(
			entsql.EQ("sheet_id", key.ID),
			entsql.EQ("kind", string(key.Kind)),
		)).
		Query()
	if err := s.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("deleting payload %s: %w", key, err)
	}
	return nil
}

// Purge removes expired rows and returns how many were deleted.
func (s *SQLite) Purge(ctx context.Context) (int64, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Delete(payloadTable).
		Where(entsql.And(
			entsql.GT("expires_at", 0),
			entsql.LTE("expires_at", s.now().Unix()),
		)).
		Query()
	var res sql.Result
	if err := s.drv.Exec(ctx, query, args, &res); err != nil {
		return 0, fmt.Errorf("purging payloads: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLite) Close() error { return s.drv.Close() }

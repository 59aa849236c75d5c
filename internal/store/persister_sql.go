package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// DefaultDocumentName is the row the platform document is stored under.
const DefaultDocumentName = "platform"

type sqlDialect struct {
	schema string
	load   string
	save   string
}

var postgresDialect = sqlDialect{
	schema: `CREATE TABLE IF NOT EXISTS phishsim_snapshots (
		name TEXT PRIMARY KEY,
		document JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	load: `SELECT document FROM phishsim_snapshots WHERE name = $1`,
	save: `INSERT INTO phishsim_snapshots (name, document, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (name) DO UPDATE SET document = EXCLUDED.document, updated_at = now()`,
}

var sqliteDialect = sqlDialect{
	schema: `CREATE TABLE IF NOT EXISTS phishsim_snapshots (
		name TEXT PRIMARY KEY,
		document TEXT NOT NULL,
		updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	load: `SELECT document FROM phishsim_snapshots WHERE name = ?`,
	save: `INSERT INTO phishsim_snapshots (name, document, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (name) DO UPDATE SET document = excluded.document, updated_at = CURRENT_TIMESTAMP`,
}

// SQLPersister stores the document as one row in a relational database.
type SQLPersister struct {
	db      *sql.DB
	name    string
	dialect sqlDialect
}

// NewPostgresPersister expects a database/sql pool opened with lib/pq.
func NewPostgresPersister(db *sql.DB, name string) *SQLPersister {
	return &SQLPersister{db: db, name: name, dialect: postgresDialect}
}

// NewSQLitePersister expects a pool opened with the modernc "sqlite" driver.
func NewSQLitePersister(db *sql.DB, name string) *SQLPersister {
	return &SQLPersister{db: db, name: name, dialect: sqliteDialect}
}

// EnsureSchema creates the snapshot table when missing.
func (p *SQLPersister) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, p.dialect.schema); err != nil {
		return fmt.Errorf("create snapshot table: %w", err)
	}
	return nil
}

func (p *SQLPersister) Load(ctx context.Context) ([]byte, error) {
	var doc string
	err := p.db.QueryRowContext(ctx, p.dialect.load, p.name).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return []byte(doc), nil
}

func (p *SQLPersister) Save(ctx context.Context, doc []byte) error {
	if _, err := p.db.ExecContext(ctx, p.dialect.save, p.name, string(doc)); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Package sqlstore persists records as JSON documents in PostgreSQL (pgx) or
// SQLite (modernc.org/sqlite).
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/couchcryptid/argo-profile-etl/internal/domain"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect selects placeholder syntax and column types.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

func (d Dialect) driver() string {
	if d == SQLite {
		return "sqlite"
	}
	return "pgx"
}

func (d Dialect) docType() string {
	if d == SQLite {
		return "TEXT"
	}
	return "JSONB"
}

// rebind rewrites $n placeholders for drivers that expect '?'.
func (d Dialect) rebind(query string) string {
	if d != SQLite {
		return query
	}
	var b strings.Builder
	for i := 0; i < len(query); i++ {
		if query[i] == '$' && i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
			b.WriteByte('?')
			for i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
				i++
			}
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// Store implements pipeline.Sink on a SQL database.
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger

	schemaOnce sync.Once
	schemaErr  error
}

// Open connects to the database and creates the tables if needed. dsn is a
// PostgreSQL connection string or a SQLite file path.
func Open(ctx context.Context, dialect Dialect, dsn string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open(dialect.driver(), strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect.driver(), err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect.driver(), err)
	}
	if dialect == SQLite {
		// One writer at a time.
		db.SetMaxOpenConns(1)
	}
	s := &Store{db: db, dialect: dialect, logger: logger}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		for _, stmt := range []string{
			`CREATE TABLE IF NOT EXISTS argo_profiles (
  id TEXT PRIMARY KEY,
  source_file TEXT NOT NULL,
  metadata_id TEXT NOT NULL DEFAULT '',
  cycle_number INTEGER NOT NULL,
  longitude DOUBLE PRECISION NOT NULL,
  latitude DOUBLE PRECISION NOT NULL,
  doc ` + s.dialect.docType() + ` NOT NULL,
  processed_at TEXT NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS idx_argo_profiles_source_file ON argo_profiles (source_file)`,
			`CREATE TABLE IF NOT EXISTS argo_metadata (
  id TEXT PRIMARY KEY,
  platform_number TEXT NOT NULL,
  doc ` + s.dialect.docType() + ` NOT NULL
)`,
		} {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				s.schemaErr = fmt.Errorf("create schema: %w", err)
				return
			}
		}
	})
	return s.schemaErr
}

// Clear deletes every profile whose source_file equals source.
func (s *Store) Clear(ctx context.Context, source string) error {
	res, err := s.db.ExecContext(ctx, s.dialect.rebind(`DELETE FROM argo_profiles WHERE source_file = $1`), source)
	if err != nil {
		return fmt.Errorf("delete profiles of %s: %w", source, err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		s.logger.Debug("cleared stale profiles", "source_file", source, "deleted", n)
	}
	return nil
}

// UpsertProfile inserts rec or replaces the row with the same id.
func (s *Store) UpsertProfile(ctx context.Context, rec domain.ProfileRecord) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode profile %s: %w", rec.ID, err)
	}
	_, err = s.db.ExecContext(ctx, s.dialect.rebind(`
INSERT INTO argo_profiles (id, source_file, metadata_id, cycle_number, longitude, latitude, doc, processed_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id)
DO UPDATE SET source_file=EXCLUDED.source_file,
  metadata_id=EXCLUDED.metadata_id,
  cycle_number=EXCLUDED.cycle_number,
  longitude=EXCLUDED.longitude,
  latitude=EXCLUDED.latitude,
  doc=EXCLUDED.doc,
  processed_at=EXCLUDED.processed_at`),
		rec.ID, rec.SourceFile, rec.Metadata, rec.CycleNumber,
		rec.Geolocation.Lon(), rec.Geolocation.Lat(), string(doc),
		rec.ProcessedAt.UTC().Format("2006-01-02T15:04:05Z07:00"))
	if err != nil {
		return fmt.Errorf("upsert profile %s: %w", rec.ID, err)
	}
	return nil
}

// UpsertMetadata inserts rec or replaces the row with the same id.
func (s *Store) UpsertMetadata(ctx context.Context, rec domain.MetadataRecord) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode metadata %s: %w", rec.ID, err)
	}
	_, err = s.db.ExecContext(ctx, s.dialect.rebind(`
INSERT INTO argo_metadata (id, platform_number, doc)
VALUES ($1,$2,$3)
ON CONFLICT (id)
DO UPDATE SET platform_number=EXCLUDED.platform_number, doc=EXCLUDED.doc`),
		rec.ID, rec.PlatformNumber, string(doc))
	if err != nil {
		return fmt.Errorf("upsert metadata %s: %w", rec.ID, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// ParseDialect maps a backend name to its dialect.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return 0, fmt.Errorf("unknown sql dialect %s", strconv.Quote(name))
	}
}

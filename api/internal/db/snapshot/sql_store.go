package snapshot

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/reacthost/console/api/internal/core/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLStore keeps snapshots in a kv_snapshots table on Postgres (pgx) or SQLite.
type SQLStore struct {
	db *sqlx.DB
}

// OpenSQL connects using a postgres:// or sqlite3:// URL and runs migrations.
func OpenSQL(ctx context.Context, databaseURL string) (*SQLStore, error) {
	driver, dsn, dialect, err := parseDatabaseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if driver == "sqlite3" {
		// SQLite only supports one writer
		db.SetMaxOpenConns(1)
	}

	if err := migrate(db.DB, dialect); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func parseDatabaseURL(raw string) (driver, dsn, dialect string, err error) {
	switch {
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return "pgx", raw, "postgres", nil
	case strings.HasPrefix(raw, "sqlite3://"), strings.HasPrefix(raw, "sqlite://"):
		path := raw[strings.Index(raw, "://")+3:]
		if path == "" {
			return "", "", "", errors.New("sqlite database path is empty")
		}
		return "sqlite3", fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path), "sqlite3", nil
	default:
		return "", "", "", fmt.Errorf("unsupported database url scheme in %q", raw)
	}
}

func migrate(db *sql.DB, dialect string) error {
	goose.SetLogger(log.New(io.Discard, "", 0))
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	return goose.Up(db, "migrations")
}

func (s *SQLStore) Load(ctx context.Context, key string) ([]byte, error) {
	var payload string
	query := s.db.Rebind(`SELECT payload FROM kv_snapshots WHERE namespace = ?`)
	err := s.db.GetContext(ctx, &payload, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	return []byte(payload), nil
}

// Save upserts the whole snapshot in one statement.
func (s *SQLStore) Save(ctx context.Context, key string, data []byte) error {
	query := s.db.Rebind(`
		INSERT INTO kv_snapshots (namespace, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (namespace) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`)
	if _, err := s.db.ExecContext(ctx, query, key, string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// filepath: internal/repository/repository.go
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mediashelf/internal/config"
	"mediashelf/internal/logging"

	"github.com/Masterminds/squirrel"
	"github.com/patrickmn/go-cache"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	tagCacheTTL     = 5 * time.Minute
	tagCacheCleanup = 10 * time.Minute
)

// Repository is the SQLite backed store for items, tags and their links.
type Repository struct {
	DB      *sql.DB
	Builder squirrel.StatementBuilderType // SQL Query Builder
	Cache   *cache.Cache                  // tag lookups by name
}

// NewRepository opens the database configured in cfg.
// The schema is not touched; see EnsureSchemaBootstrapped and ValidateSchema.
func NewRepository(cfg *config.Config) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", cfg.Database.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer. One connection serializes writers in the
	// pool instead of failing them with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logging.Log.Debugf("Opened database at %s", cfg.Database.Path)

	return &Repository{
		DB:      db,
		Builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		Cache:   cache.New(tagCacheTTL, tagCacheCleanup),
	}, nil
}

// Close closes the underlying database handle.
func (s *Repository) Close() error {
	return s.DB.Close()
}

// BeginTx starts a transaction wrapped in Tx.
func (s *Repository) BeginTx(ctx context.Context) (*Tx, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{Tx: tx, store: store{q: tx, Builder: s.Builder}}, nil
}

// reader returns the read helpers bound to the connection pool.
func (s *Repository) reader() store {
	return store{q: s.DB, Builder: s.Builder}
}

// withTx runs fn inside a transaction and commits when fn succeeds.
func (s *Repository) withTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func nowUnix() int64 {
	return time.Now().Unix()
}

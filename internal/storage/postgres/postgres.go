// Package postgres provides a PostgreSQL-backed implementation of the storage.Store interface.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mmynk/settleup/internal/storage"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Store provides Postgres-backed persistence.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a new Store and runs migrations.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at BIGINT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS groups (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			currency TEXT NOT NULL,
			creator_id TEXT NOT NULL,
			created_at BIGINT NOT NULL,
			seq BIGSERIAL
		);`,
		`CREATE TABLE IF NOT EXISTS group_members (
			id TEXT PRIMARY KEY,
			group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			UNIQUE (group_id, position)
		);`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id TEXT PRIMARY KEY,
			group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			amount NUMERIC NOT NULL,
			settled BOOLEAN NOT NULL DEFAULT FALSE,
			created_at BIGINT NOT NULL,
			seq BIGSERIAL
		);`,
		`CREATE TABLE IF NOT EXISTS payments (
			expense_id TEXT NOT NULL REFERENCES expenses(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			member_id TEXT NOT NULL,
			amount NUMERIC NOT NULL,
			PRIMARY KEY (expense_id, position)
		);`,
		`CREATE INDEX IF NOT EXISTS groups_creator_id_idx ON groups (creator_id);`,
		`CREATE INDEX IF NOT EXISTS expenses_group_id_idx ON expenses (group_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

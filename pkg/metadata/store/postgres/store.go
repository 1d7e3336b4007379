// Package postgres implements metadata.Store directly on pgx.
//
// The schema is managed by golang-migrate with migrations embedded in the
// binary. Ancestor chains are resolved with a single recursive CTE.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marmos91/servr/internal/logger"
	"github.com/marmos91/servr/pkg/metadata"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const nodeColumns = `id, owner_id, parent_id, name, kind, file_type, extension, size, url, created_at, last_modified, shared_with`

const accountColumns = `id, email, password_hash, active, super_user, storage_used, storage_limit, created_at`

// Store implements metadata.Store on a pgx connection pool.
type Store struct {
	reader
	pool   *pgxpool.Pool
	config *Config
	logger *slog.Logger
}

// New connects to PostgreSQL and, when cfg.AutoMigrate is set, applies
// pending migrations.
func New(ctx context.Context, cfg *Config) (*Store, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log := logger.With("component", "postgres_node_store")

	pool, err := createConnectionPool(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := runMigrations(ctx, cfg.ConnectionString(), log); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	} else {
		log.Info("AutoMigrate is disabled, run 'servr migrate' to apply migrations")
	}

	return &Store{
		reader: reader{q: pool},
		pool:   pool,
		config: cfg,
		logger: log,
	}, nil
}

// ============================================================================
// Single-statement writes
// ============================================================================

// RenameNode implements metadata.Store.
func (s *Store) RenameNode(ctx context.Context, ownerID, id uuid.UUID, name string, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE nodes SET name = $1, last_modified = $2 WHERE id = $3 AND owner_id = $4`,
		name, at, id, ownerID)
	if err != nil {
		return mapPgError(err, "rename", nil)
	}
	if tag.RowsAffected() == 0 {
		return metadata.NewNodeNotFoundError(id)
	}
	return nil
}

// UpdateNodeURL implements metadata.Store.
func (s *Store) UpdateNodeURL(ctx context.Context, ownerID, id uuid.UUID, url string, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE nodes SET url = $1, last_modified = $2 WHERE id = $3 AND owner_id = $4`,
		url, at, id, ownerID)
	if err != nil {
		return mapPgError(err, "update_url", nil)
	}
	if tag.RowsAffected() == 0 {
		return metadata.NewNodeNotFoundError(id)
	}
	return nil
}

// CreateAccount implements metadata.Store.
func (s *Store) CreateAccount(ctx context.Context, a *metadata.Account) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.Email, a.PasswordHash, a.Active, a.SuperUser, a.StorageUsed, a.StorageLimit, a.CreatedAt)
	return mapPgError(err, "create_account", nil)
}

// GetAccountByEmail implements metadata.Store.
func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*metadata.Account, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	a, err := scanAccount(row)
	if err != nil {
		return nil, mapPgError(err, "get_account", metadata.NewAccountNotFoundError(email))
	}
	return a, nil
}

// Healthcheck implements metadata.Store.
func (s *Store) Healthcheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return metadata.NewNodeStoreError("healthcheck", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	s.logger.Info("PostgreSQL node store closed")
	return nil
}

// ============================================================================
// Row scanning
// ============================================================================

func scanNode(row pgx.Row) (*metadata.Node, error) {
	var (
		n        metadata.Node
		kind     string
		fileType string
	)
	err := row.Scan(&n.ID, &n.OwnerID, &n.ParentID, &n.Name, &kind, &fileType,
		&n.Extension, &n.Size, &n.URL, &n.CreatedAt, &n.LastModified, &n.SharedWith)
	if err != nil {
		return nil, err
	}
	n.Kind = metadata.Kind(kind)
	n.FileType = metadata.FileType(fileType)
	if n.SharedWith == nil {
		n.SharedWith = []uuid.UUID{}
	}
	return &n, nil
}

func scanAccount(row pgx.Row) (*metadata.Account, error) {
	var a metadata.Account
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Active, &a.SuperUser,
		&a.StorageUsed, &a.StorageLimit, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

var _ metadata.Store = (*Store)(nil)

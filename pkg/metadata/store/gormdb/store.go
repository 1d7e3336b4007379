// Package gormdb implements metadata.Store on GORM. The same code serves
// SQLite (embedded, single node) and PostgreSQL. The schema is created with
// AutoMigrate.
package gormdb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/marmos91/servr/internal/logger"
	"github.com/marmos91/servr/pkg/metadata"
)

// Store implements metadata.Store using GORM.
type Store struct {
	reader
	config *Config
}

// New opens the database described by config and migrates the schema.
func New(config *Config) (*Store, error) {
	if config == nil {
		config = &Config{}
	}
	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	var dialector gorm.Dialector
	switch config.Type {
	case DatabaseTypeSQLite:
		if err := os.MkdirAll(filepath.Dir(config.SQLite.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		// WAL for concurrent readers, busy_timeout to wait on the writer lock.
		// SQLite only enforces the parent foreign key when asked to.
		dsn := config.SQLite.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
		dialector = sqlite.Open(dsn)

	case DatabaseTypePostgres:
		dialector = postgres.Open(config.Postgres.DSN())

	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}

	logMode := gormlogger.Silent
	if config.Debug {
		logMode = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(logMode),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}
	switch config.Type {
	case DatabaseTypePostgres:
		sqlDB.SetMaxOpenConns(config.Postgres.MaxOpenConns)
		sqlDB.SetMaxIdleConns(config.Postgres.MaxIdleConns)
	case DatabaseTypeSQLite:
		// SQLite has a single writer. One connection serializes transactions
		// instead of failing them with SQLITE_BUSY on lock upgrade.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(allModels()...); err != nil {
		return nil, fmt.Errorf("failed to run database migration: %w", err)
	}

	logger.Debug("metadata store opened",
		logger.KeyStoreType, string(config.Type))

	return &Store{reader: reader{db: db}, config: config}, nil
}

// DB returns the underlying GORM connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// RenameNode implements metadata.Store.
func (s *Store) RenameNode(ctx context.Context, ownerID, id uuid.UUID, name string, at time.Time) error {
	return s.updateNode(ctx, "rename", ownerID, id, map[string]any{
		"name":          name,
		"last_modified": at,
	})
}

// UpdateNodeURL implements metadata.Store.
func (s *Store) UpdateNodeURL(ctx context.Context, ownerID, id uuid.UUID, url string, at time.Time) error {
	return s.updateNode(ctx, "update_url", ownerID, id, map[string]any{
		"url":           url,
		"last_modified": at,
	})
}

func (s *Store) updateNode(ctx context.Context, op string, ownerID, id uuid.UUID, columns map[string]any) error {
	result := s.db.WithContext(ctx).
		Model(&nodeModel{}).
		Where("id = ? AND owner_id = ?", id.String(), ownerID.String()).
		Updates(columns)
	if result.Error != nil {
		return convertError(op, result.Error, nil)
	}
	if result.RowsAffected == 0 {
		return metadata.NewNodeNotFoundError(id)
	}
	return nil
}

// CreateAccount implements metadata.Store.
func (s *Store) CreateAccount(ctx context.Context, account *metadata.Account) error {
	if err := s.db.WithContext(ctx).Create(fromAccount(account)).Error; err != nil {
		if isUniqueConstraintError(err) {
			return metadata.NewAlreadyExistsError("account")
		}
		return convertError("create_account", err, nil)
	}
	return nil
}

// GetAccountByEmail implements metadata.Store.
func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*metadata.Account, error) {
	var m accountModel
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&m).Error; err != nil {
		return nil, convertError("get_account", err, metadata.NewAccountNotFoundError(email))
	}
	return toAccount(&m)
}

// Healthcheck implements metadata.Store.
func (s *Store) Healthcheck(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return metadata.NewNodeStoreError("healthcheck", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return metadata.NewNodeStoreError("healthcheck", err)
	}
	return nil
}

// Close implements metadata.Store.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ metadata.Store = (*Store)(nil)

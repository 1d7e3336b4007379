// Package badger implements metadata.Store on BadgerDB, an embedded
// key-value store. Every operation runs inside a Badger transaction, so
// WithTransaction gets snapshot isolation. Writers are serialized by the
// store, so readers never block and writers never conflict.
package badger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/marmos91/servr/internal/logger"
	"github.com/marmos91/servr/pkg/metadata"
)

// Config holds BadgerDB options.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string `mapstructure:"path" yaml:"path"`

	// InMemory keeps everything in RAM. Used by tests.
	InMemory bool `mapstructure:"in_memory" yaml:"in_memory"`

	// SyncWrites fsyncs every commit.
	SyncWrites bool `mapstructure:"sync_writes" yaml:"sync_writes"`
}

// Store implements metadata.Store using BadgerDB.
type Store struct {
	db *badgerdb.DB

	// writeMu serializes read-write transactions. Every upload of an owner
	// rewrites the account key, so optimistic concurrency would fail
	// overlapping uploads at commit, after their blob was already written.
	writeMu sync.Mutex
}

// New opens (or creates) the database described by cfg.
func New(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, fmt.Errorf("badger path is required")
	}

	opts := badgerdb.DefaultOptions(cfg.Path).
		WithInMemory(cfg.InMemory).
		WithSyncWrites(cfg.SyncWrites).
		WithLogger(badgerLogger{})
	if cfg.InMemory {
		opts = opts.WithDir("").WithValueDir("")
	}

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return &Store{db: db}, nil
}

// view runs fn in a read-only transaction.
func (s *Store) view(ctx context.Context, op string, fn func(txn *badgerdb.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return convertError(op, s.db.View(fn))
}

// update runs fn in a read-write transaction and commits it.
func (s *Store) update(ctx context.Context, op string, fn func(txn *badgerdb.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return convertError(op, s.db.Update(fn))
}

// convertError passes domain errors through and wraps everything else,
// including badgerdb.ErrConflict, as a retryable node store failure.
func convertError(op string, err error) error {
	if err == nil {
		return nil
	}
	var me *metadata.Error
	if errors.As(err, &me) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return metadata.NewNodeStoreError(op, err)
}

// ============================================================================
// Reader
// ============================================================================

// GetNode implements metadata.Reader.
func (s *Store) GetNode(ctx context.Context, ownerID, id uuid.UUID) (*metadata.Node, error) {
	var n *metadata.Node
	err := s.view(ctx, "get_node", func(txn *badgerdb.Txn) error {
		var err error
		n, err = getNode(txn, ownerID, id)
		return err
	})
	return n, err
}

// ListNodes implements metadata.Reader.
func (s *Store) ListNodes(ctx context.Context, ownerID uuid.UUID) ([]*metadata.Node, error) {
	var nodes []*metadata.Node
	err := s.view(ctx, "list_nodes", func(txn *badgerdb.Txn) error {
		var err error
		nodes, err = listNodes(txn, ownerID)
		return err
	})
	return nodes, err
}

// GetAccount implements metadata.Reader.
func (s *Store) GetAccount(ctx context.Context, ownerID uuid.UUID) (*metadata.Account, error) {
	var a *metadata.Account
	err := s.view(ctx, "get_account", func(txn *badgerdb.Txn) error {
		var err error
		a, err = getAccount(txn, ownerID)
		return err
	})
	return a, err
}

// GetAccountByEmail implements metadata.Store.
func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*metadata.Account, error) {
	var a *metadata.Account
	err := s.view(ctx, "get_account", func(txn *badgerdb.Txn) error {
		item, err := txn.Get(keyEmail(email))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return metadata.NewAccountNotFoundError(email)
		}
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		id, err := uuid.FromBytes(raw)
		if err != nil {
			return err
		}
		a, err = getAccount(txn, id)
		return err
	})
	return a, err
}

func getNode(txn *badgerdb.Txn, ownerID, id uuid.UUID) (*metadata.Node, error) {
	item, err := txn.Get(keyNode(ownerID, id))
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, metadata.NewNodeNotFoundError(id)
	}
	if err != nil {
		return nil, err
	}

	var n *metadata.Node
	err = item.Value(func(val []byte) error {
		var decErr error
		n, decErr = decodeNode(val)
		return decErr
	})
	return n, err
}

func putNode(txn *badgerdb.Txn, n *metadata.Node) error {
	data, err := encodeNode(n)
	if err != nil {
		return err
	}
	return txn.Set(keyNode(n.OwnerID, n.ID), data)
}

func listNodes(txn *badgerdb.Txn, ownerID uuid.UUID) ([]*metadata.Node, error) {
	prefix := keyNodePrefix(ownerID)
	it := txn.NewIterator(badgerdb.IteratorOptions{Prefix: prefix, PrefetchValues: true, PrefetchSize: 100})
	defer it.Close()

	nodes := make([]*metadata.Node, 0)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		err := it.Item().Value(func(val []byte) error {
			n, err := decodeNode(val)
			if err != nil {
				return err
			}
			nodes = append(nodes, n)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(nodes, func(i, j int) bool {
		if !nodes[i].CreatedAt.Equal(nodes[j].CreatedAt) {
			return nodes[i].CreatedAt.Before(nodes[j].CreatedAt)
		}
		return nodes[i].ID.String() < nodes[j].ID.String()
	})
	return nodes, nil
}

func getAccount(txn *badgerdb.Txn, ownerID uuid.UUID) (*metadata.Account, error) {
	item, err := txn.Get(keyAccount(ownerID))
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, metadata.NewAccountNotFoundError(ownerID.String())
	}
	if err != nil {
		return nil, err
	}

	var a *metadata.Account
	err = item.Value(func(val []byte) error {
		var decErr error
		a, decErr = decodeAccount(val)
		return decErr
	})
	return a, err
}

func putAccount(txn *badgerdb.Txn, a *metadata.Account) error {
	data, err := encodeAccount(a)
	if err != nil {
		return err
	}
	return txn.Set(keyAccount(a.ID), data)
}

// ============================================================================
// Single-statement writes
// ============================================================================

// RenameNode implements metadata.Store.
func (s *Store) RenameNode(ctx context.Context, ownerID, id uuid.UUID, name string, at time.Time) error {
	return s.update(ctx, "rename", func(txn *badgerdb.Txn) error {
		n, err := getNode(txn, ownerID, id)
		if err != nil {
			return err
		}
		n.Name = name
		n.LastModified = at
		return putNode(txn, n)
	})
}

// UpdateNodeURL implements metadata.Store.
func (s *Store) UpdateNodeURL(ctx context.Context, ownerID, id uuid.UUID, url string, at time.Time) error {
	return s.update(ctx, "update_url", func(txn *badgerdb.Txn) error {
		n, err := getNode(txn, ownerID, id)
		if err != nil {
			return err
		}
		n.URL = url
		n.LastModified = at
		return putNode(txn, n)
	})
}

// CreateAccount implements metadata.Store.
func (s *Store) CreateAccount(ctx context.Context, account *metadata.Account) error {
	return s.update(ctx, "create_account", func(txn *badgerdb.Txn) error {
		if _, err := txn.Get(keyAccount(account.ID)); err == nil {
			return metadata.NewAlreadyExistsError("account")
		} else if !errors.Is(err, badgerdb.ErrKeyNotFound) {
			return err
		}
		if _, err := txn.Get(keyEmail(account.Email)); err == nil {
			return metadata.NewAlreadyExistsError("account email")
		} else if !errors.Is(err, badgerdb.ErrKeyNotFound) {
			return err
		}

		if err := putAccount(txn, account); err != nil {
			return err
		}
		return txn.Set(keyEmail(account.Email), account.ID[:])
	})
}

// Healthcheck implements metadata.Store.
func (s *Store) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return metadata.NewNodeStoreError("healthcheck", errors.New("database is closed"))
	}
	return nil
}

// Size returns the on-disk size of the LSM tree and of the value log.
func (s *Store) Size() (lsm, vlog int64) {
	return s.db.Size()
}

// Close implements metadata.Store.
func (s *Store) Close() error {
	return s.db.Close()
}

// badgerLogger routes Badger's internal logging through the application
// logger. Info and debug output is demoted to debug.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...any) {
	logger.Error(fmt.Sprintf(format, args...), logger.KeyStoreType, "badger")
}

func (badgerLogger) Warningf(format string, args ...any) {
	logger.Warn(fmt.Sprintf(format, args...), logger.KeyStoreType, "badger")
}

func (badgerLogger) Infof(format string, args ...any) {
	logger.Debug(fmt.Sprintf(format, args...), logger.KeyStoreType, "badger")
}

func (badgerLogger) Debugf(format string, args ...any) {
	logger.Debug(fmt.Sprintf(format, args...), logger.KeyStoreType, "badger")
}

var _ metadata.Store = (*Store)(nil)

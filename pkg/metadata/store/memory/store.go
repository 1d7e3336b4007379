// Package memory implements metadata.Store in process memory.
//
// Transactions run against a private copy of the state which replaces the
// live state on commit, so a failed transaction leaves nothing behind. All
// transactions are serialized by one lock. Intended for tests and
// single-process development setups.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/servr/pkg/metadata"
)

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("memory store is closed")

type state struct {
	nodes    map[uuid.UUID]*metadata.Node
	accounts map[uuid.UUID]*metadata.Account
	emails   map[string]uuid.UUID
}

func newState() *state {
	return &state{
		nodes:    make(map[uuid.UUID]*metadata.Node),
		accounts: make(map[uuid.UUID]*metadata.Account),
		emails:   make(map[string]uuid.UUID),
	}
}

func (s *state) clone() *state {
	c := &state{
		nodes:    make(map[uuid.UUID]*metadata.Node, len(s.nodes)),
		accounts: make(map[uuid.UUID]*metadata.Account, len(s.accounts)),
		emails:   make(map[string]uuid.UUID, len(s.emails)),
	}
	for id, n := range s.nodes {
		c.nodes[id] = n.Clone()
	}
	for id, a := range s.accounts {
		cp := *a
		c.accounts[id] = &cp
	}
	for e, id := range s.emails {
		c.emails[e] = id
	}
	return c
}

// Store is an in-memory metadata.Store.
type Store struct {
	mu         sync.RWMutex
	st         *state
	closed     bool
	commitHook func() error
}

// New creates an empty Store.
func New() *Store {
	return &Store{st: newState()}
}

// SetCommitHook installs fn to run at every commit. A non-nil error from fn
// aborts the commit and is returned from WithTransaction. Used to simulate
// commit failures.
func (s *Store) SetCommitHook(fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitHook = fn
}

// ============================================================================
// Reader
// ============================================================================

func (s *Store) read(ctx context.Context) (*state, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, nil, ErrClosed
	}
	return s.st, s.mu.RUnlock, nil
}

// GetNode implements metadata.Reader.
func (s *Store) GetNode(ctx context.Context, ownerID, id uuid.UUID) (*metadata.Node, error) {
	st, unlock, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return getNode(st, ownerID, id)
}

// ListNodes implements metadata.Reader.
func (s *Store) ListNodes(ctx context.Context, ownerID uuid.UUID) ([]*metadata.Node, error) {
	st, unlock, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return listNodes(st, ownerID), nil
}

// GetAccount implements metadata.Reader.
func (s *Store) GetAccount(ctx context.Context, ownerID uuid.UUID) (*metadata.Account, error) {
	st, unlock, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return getAccount(st, ownerID)
}

// GetAccountByEmail implements metadata.Store.
func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*metadata.Account, error) {
	st, unlock, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	id, ok := st.emails[email]
	if !ok {
		return nil, metadata.NewAccountNotFoundError(email)
	}
	return getAccount(st, id)
}

func getNode(st *state, ownerID, id uuid.UUID) (*metadata.Node, error) {
	n, ok := st.nodes[id]
	if !ok || n.OwnerID != ownerID {
		return nil, metadata.NewNodeNotFoundError(id)
	}
	return n.Clone(), nil
}

func listNodes(st *state, ownerID uuid.UUID) []*metadata.Node {
	out := make([]*metadata.Node, 0)
	for _, n := range st.nodes {
		if n.OwnerID == ownerID {
			out = append(out, n.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func getAccount(st *state, ownerID uuid.UUID) (*metadata.Account, error) {
	a, ok := st.accounts[ownerID]
	if !ok {
		return nil, metadata.NewAccountNotFoundError(ownerID.String())
	}
	cp := *a
	return &cp, nil
}

// ============================================================================
// Single-statement writes
// ============================================================================

func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return fn(s.st)
}

// RenameNode implements metadata.Store.
func (s *Store) RenameNode(ctx context.Context, ownerID, id uuid.UUID, name string, at time.Time) error {
	return s.write(ctx, func(st *state) error {
		n, ok := st.nodes[id]
		if !ok || n.OwnerID != ownerID {
			return metadata.NewNodeNotFoundError(id)
		}
		n.Name = name
		n.LastModified = at
		return nil
	})
}

// UpdateNodeURL implements metadata.Store.
func (s *Store) UpdateNodeURL(ctx context.Context, ownerID, id uuid.UUID, url string, at time.Time) error {
	return s.write(ctx, func(st *state) error {
		n, ok := st.nodes[id]
		if !ok || n.OwnerID != ownerID {
			return metadata.NewNodeNotFoundError(id)
		}
		n.URL = url
		n.LastModified = at
		return nil
	})
}

// CreateAccount implements metadata.Store.
func (s *Store) CreateAccount(ctx context.Context, account *metadata.Account) error {
	return s.write(ctx, func(st *state) error {
		email := account.Email
		if _, ok := st.accounts[account.ID]; ok {
			return metadata.NewAlreadyExistsError("account")
		}
		if _, ok := st.emails[email]; ok && email != "" {
			return metadata.NewAlreadyExistsError("account email")
		}
		cp := *account
		st.accounts[account.ID] = &cp
		if email != "" {
			st.emails[email] = account.ID
		}
		return nil
	})
}

// Healthcheck implements metadata.Store.
func (s *Store) Healthcheck(ctx context.Context) error {
	_, unlock, err := s.read(ctx)
	if err != nil {
		return err
	}
	unlock()
	return nil
}

// Close implements metadata.Store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ metadata.Store = (*Store)(nil)

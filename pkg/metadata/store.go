package metadata

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxDepth bounds every parent-chain walk. A longer chain is treated
// as corruption (a cycle) and aborts the transaction.
const DefaultMaxDepth = 64

// ============================================================================
// Reader Interface
// ============================================================================

// Reader holds the read operations shared by a Store and a Transaction.
type Reader interface {
	// GetNode returns the node with id owned by ownerID. A node owned by
	// someone else is reported as ErrNodeNotFound.
	GetNode(ctx context.Context, ownerID, id uuid.UUID) (*Node, error)

	// ListNodes returns every node of ownerID ordered by CreatedAt, then ID.
	ListNodes(ctx context.Context, ownerID uuid.UUID) ([]*Node, error)

	// GetAccount returns the quota record of ownerID.
	// Returns ErrAccountNotFound if there is none.
	GetAccount(ctx context.Context, ownerID uuid.UUID) (*Account, error)
}

// ============================================================================
// Transaction Interface
// ============================================================================

// Transaction is the set of operations available inside WithTransaction.
// All writes become visible together on commit or not at all.
type Transaction interface {
	Reader

	// InsertNode stores a new node. Returns ErrAlreadyExists on id collision.
	InsertNode(ctx context.Context, node *Node) error

	// DeleteNode removes the node and returns it as it was before removal.
	DeleteNode(ctx context.Context, ownerID, id uuid.UUID) (*Node, error)

	// CountChildren returns the number of direct children of id.
	CountChildren(ctx context.Context, ownerID, id uuid.UUID) (int, error)

	// Ancestors returns the chain of node ids starting at start and walking
	// parent references up to the root, start included. A chain longer than
	// maxDepth fails with the error from NewChainTooDeepError.
	Ancestors(ctx context.Context, ownerID, start uuid.UUID, maxDepth int) ([]uuid.UUID, error)

	// AddNodeSize adds delta to the size of every node in ids.
	AddNodeSize(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID, delta int64) error

	// AddStorageUsed adds delta to the owner's storage_used counter.
	AddStorageUsed(ctx context.Context, ownerID uuid.UUID, delta int64) error
}

// Transactor runs fn atomically. If fn returns an error the transaction is
// rolled back and that error is returned; otherwise it is committed and the
// commit error, if any, is returned. Nested transactions are not supported.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(tx Transaction) error) error
}

// ============================================================================
// Store Interface
// ============================================================================

// Store persists the node tree and the per-owner quota records.
//
// Implementations must be safe for concurrent use.
type Store interface {
	Reader
	Transactor

	// RenameNode sets the name of node id in a single statement scoped by
	// both id and ownerID. Returns ErrNodeNotFound when nothing matched.
	RenameNode(ctx context.Context, ownerID, id uuid.UUID, name string, at time.Time) error

	// UpdateNodeURL stores a freshly signed URL and sets LastModified to at.
	UpdateNodeURL(ctx context.Context, ownerID, id uuid.UUID, url string, at time.Time) error

	// CreateAccount stores a new quota record. Returns ErrAlreadyExists if
	// the id or email is taken.
	CreateAccount(ctx context.Context, account *Account) error

	// GetAccountByEmail looks an account up by its sign-in email.
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)

	// Healthcheck verifies the store is reachable.
	Healthcheck(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}

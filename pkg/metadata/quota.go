package metadata

import (
	"context"

	"github.com/google/uuid"
)

// Reserve checks whether ownerID can store additional more bytes. It returns
// nil when storage_used + additional <= storage_limit and an ErrQuotaExceeded
// otherwise. Reaching the limit exactly is allowed.
//
// Reserve never mutates state: the caller adds the bytes to storage_used in
// the same transaction that creates the file. Called against a Store (outside
// the write transaction) two concurrent uploads of the same owner can both
// pass; called against the Transaction the check sees the transactional view.
func Reserve(ctx context.Context, r Reader, ownerID uuid.UUID, additional int64) (*Account, error) {
	if additional < 0 {
		return nil, NewValidationError("size must not be negative, got %d", additional)
	}

	account, err := r.GetAccount(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if additional > account.StorageLimit-account.StorageUsed {
		return account, NewQuotaExceededError(account.StorageUsed, additional, account.StorageLimit)
	}
	return account, nil
}

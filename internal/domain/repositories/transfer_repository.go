package repositories

import (
	"context"

	"ccip-relay.backend/internal/domain/entities"
)

// TransferRepository is the transfer history store. Implementations must be
// safe for concurrent use.
type TransferRepository interface {
	// Insert stores a new record. The id must be unique.
	Insert(ctx context.Context, record *entities.TransferRecord) error
	// Update sets status and merges the non-nil fields of upd. A record that is
	// already terminal cannot change status (errors.ErrTerminalState).
	Update(ctx context.Context, id string, status entities.TransferStatus, upd entities.TransferUpdate) (*entities.TransferRecord, error)
	// Get returns errors.ErrNotFound when id is unknown.
	Get(ctx context.Context, id string) (*entities.TransferRecord, error)
	// List returns up to limit records, most recent first.
	List(ctx context.Context, limit int) ([]*entities.TransferRecord, error)
	// Prune keeps the keep most recent records and returns how many were removed.
	Prune(ctx context.Context, keep int) (int64, error)
}

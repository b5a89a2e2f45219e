package repositories

import (
	"context"
)

// UnitOfWork runs fn inside one storage transaction.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

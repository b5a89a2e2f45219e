package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainRepos "ccip-relay.backend/internal/domain/repositories"
)

type txCtxKey struct{}

type lockCtxKey struct{}

// UnitOfWorkImpl binds a GORM transaction to the context handed to fn.
type UnitOfWorkImpl struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) domainRepos.UnitOfWork {
	return &UnitOfWorkImpl{db: db}
}

// Do commits when fn returns nil and rolls back otherwise. Nested calls join
// the outer transaction.
func (u *UnitOfWorkImpl) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txCtxKey{}, tx))
	})
}

// WithLock makes reads through GetDB select rows FOR UPDATE.
func (u *UnitOfWorkImpl) WithLock(ctx context.Context) context.Context {
	return context.WithValue(ctx, lockCtxKey{}, true)
}

func (u *UnitOfWorkImpl) GetDB(ctx context.Context) *gorm.DB {
	return GetDB(ctx, u.db)
}

func txFrom(ctx context.Context) *gorm.DB {
	tx, _ := ctx.Value(txCtxKey{}).(*gorm.DB)
	return tx
}

// GetDB returns the transaction carried by ctx, or fallback outside one.
func GetDB(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	db := fallback
	if tx := txFrom(ctx); tx != nil {
		db = tx
	}
	if lock, _ := ctx.Value(lockCtxKey{}).(bool); lock {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db.WithContext(ctx)
}

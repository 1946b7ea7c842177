package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/medunigraz/mfa-sync-service/internal/domain"
)

type txKey struct{}

// DBFrom returns the transaction bound to ctx, if any, so repositories
// transparently join an enclosing unit of work.
func DBFrom(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback.WithContext(ctx)
}

type unitOfWork struct {
	hooks []func()
}

func (u *unitOfWork) OnCommit(fn func()) {
	u.hooks = append(u.hooks, fn)
}

type GormTxManager struct {
	DB *gorm.DB
}

func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{DB: db}
}

// Do runs fn inside a transaction. OnCommit hooks registered by fn run
// exactly once after a successful commit and never after a rollback.
func (m *GormTxManager) Do(ctx context.Context, fn func(ctx context.Context, uow domain.UnitOfWork) error) error {
	uow := &unitOfWork{}

	err := m.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx), uow)
	})
	if err != nil {
		return err
	}

	for _, hook := range uow.hooks {
		hook()
	}

	return nil
}

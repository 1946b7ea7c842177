package domain

import (
	"context"
	"time"
)

// LocalUser mirrors a directory person in the local database. Rows are
// created on demand when a violation is first recorded for a username.
type LocalUser struct {
	ID        string
	Username  string
	Email     string
	FirstName string
	LastName  string
}

// LockedUser tracks the enforcement state of one directory user.
// Setting one of Locked/Unlocked always clears the other within the
// same transition.
type LockedUser struct {
	ID          string
	LocalUserID string
	Username    string
	Locked      *time.Time
	Unlocked    *time.Time
}

type LocalUserRepository interface {
	GetByUsername(ctx context.Context, username string) (*LocalUser, error)
	Create(ctx context.Context, user *LocalUser) error
}

type LockedUserRepository interface {
	GetByID(ctx context.Context, id string) (*LockedUser, error)
	GetByUsername(ctx context.Context, username string) (*LockedUser, error)
	// GetOrCreate returns the record for the given local user, creating
	// it when missing. The second result reports whether a row was created.
	GetOrCreate(ctx context.Context, local *LocalUser) (*LockedUser, bool, error)
	Save(ctx context.Context, user *LockedUser) error
	Delete(ctx context.Context, user *LockedUser) error
	// List returns a page of records plus the total count. With
	// activeOnly set, records that were already released are excluded.
	List(ctx context.Context, activeOnly bool, page, limit int) ([]*LockedUser, int64, error)
}

// UnitOfWork collects continuations to run exactly once after the
// enclosing transaction commits. Hooks never run after a rollback.
type UnitOfWork interface {
	OnCommit(fn func())
}

type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
}

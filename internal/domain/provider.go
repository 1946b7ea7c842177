package domain

import (
	"context"
	"time"
)

// ProviderUser is the enrollment record the MFA provider keeps per username.
type ProviderUser struct {
	Username string
	Enrolled bool
	Created  time.Time
}

type ProviderPort interface {
	// ListUsers returns all provider users keyed by username.
	ListUsers(ctx context.Context) (map[string]ProviderUser, error)
	// SyncUser pushes a single username into the provider directory sync.
	SyncUser(ctx context.Context, username string) error
}

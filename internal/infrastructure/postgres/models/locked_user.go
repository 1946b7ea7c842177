package models

import "time"

type LockedUserModel struct {
	ID          string `gorm:"primaryKey;type:uuid"`
	LocalUserID string `gorm:"type:uuid;uniqueIndex:idx_locked_users_local"`
	Username    string `gorm:"index:idx_locked_users_username"`

	// Enforcement timestamps; at most one is meaningful at a time.
	Locked   *time.Time
	Unlocked *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (LockedUserModel) TableName() string {
	return "locked_users"
}

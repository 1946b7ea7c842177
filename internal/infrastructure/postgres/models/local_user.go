package models

import "time"

type LocalUserModel struct {
	ID        string `gorm:"primaryKey;type:uuid"`
	Username  string `gorm:"uniqueIndex:idx_local_users_username;not null"`
	Email     string
	FirstName string
	LastName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (LocalUserModel) TableName() string {
	return "local_users"
}

package mappers

import (
	"github.com/medunigraz/mfa-sync-service/internal/domain"
	"github.com/medunigraz/mfa-sync-service/internal/infrastructure/postgres/models"
)

func LocalUserToDomain(m *models.LocalUserModel) *domain.LocalUser {
	return &domain.LocalUser{
		ID:        m.ID,
		Username:  m.Username,
		Email:     m.Email,
		FirstName: m.FirstName,
		LastName:  m.LastName,
	}
}

func LocalUserToModel(u *domain.LocalUser) *models.LocalUserModel {
	return &models.LocalUserModel{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func LockedUserToDomain(m *models.LockedUserModel) *domain.LockedUser {
	return &domain.LockedUser{
		ID:          m.ID,
		LocalUserID: m.LocalUserID,
		Username:    m.Username,
		Locked:      m.Locked,
		Unlocked:    m.Unlocked,
	}
}

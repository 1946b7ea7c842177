package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medunigraz/mfa-sync-service/internal/domain"
	"github.com/medunigraz/mfa-sync-service/internal/infrastructure/postgres"
	"github.com/medunigraz/mfa-sync-service/internal/infrastructure/postgres/mappers"
	"github.com/medunigraz/mfa-sync-service/internal/infrastructure/postgres/models"
)

type DefaultLocalUserRepository struct {
	DB *gorm.DB
}

func NewDefaultLocalUserRepository(db *gorm.DB) *DefaultLocalUserRepository {
	return &DefaultLocalUserRepository{DB: db}
}

func (r *DefaultLocalUserRepository) GetByUsername(ctx context.Context, username string) (*domain.LocalUser, error) {
	var userModel models.LocalUserModel
	if err := postgres.DBFrom(ctx, r.DB).Where("username = ?", username).First(&userModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}

	return mappers.LocalUserToDomain(&userModel), nil
}

func (r *DefaultLocalUserRepository) Create(ctx context.Context, user *domain.LocalUser) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	userModel := mappers.LocalUserToModel(user)
	if err := postgres.DBFrom(ctx, r.DB).Create(userModel).Error; err != nil {
		return err
	}

	return nil
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medunigraz/mfa-sync-service/internal/domain"
	"github.com/medunigraz/mfa-sync-service/internal/infrastructure/postgres"
	"github.com/medunigraz/mfa-sync-service/internal/infrastructure/postgres/mappers"
	"github.com/medunigraz/mfa-sync-service/internal/infrastructure/postgres/models"
)

type DefaultLockedUserRepository struct {
	DB *gorm.DB
}

func NewDefaultLockedUserRepository(db *gorm.DB) *DefaultLockedUserRepository {
	return &DefaultLockedUserRepository{DB: db}
}

func (r *DefaultLockedUserRepository) GetByID(ctx context.Context, id string) (*domain.LockedUser, error) {
	var lockedModel models.LockedUserModel
	if err := postgres.DBFrom(ctx, r.DB).Where("id = ?", id).First(&lockedModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}

	return mappers.LockedUserToDomain(&lockedModel), nil
}

func (r *DefaultLockedUserRepository) GetByUsername(ctx context.Context, username string) (*domain.LockedUser, error) {
	var lockedModel models.LockedUserModel
	if err := postgres.DBFrom(ctx, r.DB).Where("username = ?", username).First(&lockedModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}

	return mappers.LockedUserToDomain(&lockedModel), nil
}

func (r *DefaultLockedUserRepository) GetOrCreate(ctx context.Context, local *domain.LocalUser) (*domain.LockedUser, bool, error) {
	db := postgres.DBFrom(ctx, r.DB)

	var lockedModel models.LockedUserModel
	err := db.Where("local_user_id = ?", local.ID).First(&lockedModel).Error
	if err == nil {
		return mappers.LockedUserToDomain(&lockedModel), false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	lockedModel = models.LockedUserModel{
		ID:          uuid.New().String(),
		LocalUserID: local.ID,
		Username:    local.Username,
	}
	if err := db.Create(&lockedModel).Error; err != nil {
		return nil, false, err
	}

	return mappers.LockedUserToDomain(&lockedModel), true, nil
}

func (r *DefaultLockedUserRepository) Save(ctx context.Context, user *domain.LockedUser) error {
	// Explicit field map so nil pointers clear their columns.
	updateData := map[string]interface{}{
		"locked":     user.Locked,
		"unlocked":   user.Unlocked,
		"updated_at": time.Now(),
	}

	return postgres.DBFrom(ctx, r.DB).Model(&models.LockedUserModel{}).
		Where("id = ?", user.ID).
		Updates(updateData).Error
}

func (r *DefaultLockedUserRepository) Delete(ctx context.Context, user *domain.LockedUser) error {
	return postgres.DBFrom(ctx, r.DB).Delete(&models.LockedUserModel{ID: user.ID}).Error
}

func (r *DefaultLockedUserRepository) List(ctx context.Context, activeOnly bool, page, limit int) ([]*domain.LockedUser, int64, error) {
	db := postgres.DBFrom(ctx, r.DB).Model(&models.LockedUserModel{})
	if activeOnly {
		db = db.Where("unlocked IS NULL")
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	var lockedModels []models.LockedUserModel
	if err := db.Offset(offset).Limit(limit).Order("locked DESC").Find(&lockedModels).Error; err != nil {
		return nil, 0, err
	}

	records := make([]*domain.LockedUser, len(lockedModels))
	for i := range lockedModels {
		records[i] = mappers.LockedUserToDomain(&lockedModels[i])
	}

	return records, total, nil
}

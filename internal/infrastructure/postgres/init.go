package postgres

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/medunigraz/mfa-sync-service/internal/config"
	"github.com/medunigraz/mfa-sync-service/internal/infrastructure/postgres/models"
)

func MustInitDB(cfg *config.SyncConfig) *gorm.DB {
	dsn := cfg.SyncDB.Dsn
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to init db: %v\n", err.Error())
	}

	db.AutoMigrate(&models.LocalUserModel{}, &models.LockedUserModel{})

	return db
}

package database

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/casapps/cassupply/src/internal/database/models"
)

// MigrateDB runs all database migrations
func MigrateDB(db *gorm.DB) error {
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := InitializeDefaultData(db); err != nil {
		return fmt.Errorf("failed to initialize default data: %w", err)
	}

	return nil
}

// InitializeDefaultData creates the settings singleton and a bootstrap
// administrator when the user table is empty. At least one active admin
// must exist at all times; this seeds the first one.
func InitializeDefaultData(db *gorm.DB) error {
	if _, err := models.LoadAutoBackupSetting(db); err != nil {
		return fmt.Errorf("initialize auto-backup settings: %w", err)
	}

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := models.User{
		Username:     "admin",
		Email:        "admin@localhost",
		PasswordHash: string(hash),
		DisplayName:  "Administrator",
		IsAdmin:      true,
		IsActive:     true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}

	return nil
}

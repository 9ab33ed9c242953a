package db

import (
	"fmt"

	"github.com/zulandar/traindash/internal/models"
	"gorm.io/gorm"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Domain{},
		&models.Interface{},
		&models.Week{},
		&models.Pod{},
		&models.PullRequest{},
		&models.Review{},
		&models.CheckRun{},
		&models.UserDomainAssignment{},
		&models.DeveloperStats{},
		&models.ReviewerStats{},
		&models.SyncState{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

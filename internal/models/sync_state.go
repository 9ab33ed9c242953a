package models

import "time"

// Sync run outcomes recorded in SyncState.
const (
	SyncStatusSuccess = "success"
	SyncStatusError   = "error"
)

// SyncState is the single-row sync checkpoint: when we last synced, what
// kind of sync it was, and how it went. The planner reads LastSyncTime to
// anchor incremental passes.
type SyncState struct {
	ID                     uint       `gorm:"primaryKey;autoIncrement"`
	LastSyncTime           *time.Time `gorm:"index"`
	LastFullSyncTime       *time.Time
	TotalPRsSynced         int    `gorm:"default:0"`
	TotalUsersCreated      int    `gorm:"default:0"`
	TotalDomainsCreated    int    `gorm:"default:0"`
	TotalInterfacesCreated int    `gorm:"default:0"`
	LastSyncPRCount        int    `gorm:"default:0"`
	LastSyncDuration       int    `gorm:"default:0"` // seconds
	SyncType               string `gorm:"size:16"`
	LastSyncStatus         string `gorm:"size:16;default:success"`
	LastError              string `gorm:"type:text"`
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

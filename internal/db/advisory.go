package db

import (
	"fmt"

	"gorm.io/gorm"
)

// SyncLockKey is the advisory-lock key shared by the long-running sync jobs
// (manual full sync and the daily wide-window job) so at most one of them
// runs at a time.
const SyncLockKey int64 = 123456

// TryAdvisoryLock attempts to take a session-level PostgreSQL advisory lock.
// Returns false without error when another session holds the lock. On
// non-PostgreSQL databases (sqlite test databases) it always succeeds, since
// those are single-process by construction.
func TryAdvisoryLock(gdb *gorm.DB, key int64) (bool, error) {
	if gdb.Dialector.Name() != "postgres" {
		return true, nil
	}
	var acquired bool
	if err := gdb.Raw("SELECT pg_try_advisory_lock(?)", key).Scan(&acquired).Error; err != nil {
		return false, fmt.Errorf("db: advisory lock %d: %w", key, err)
	}
	return acquired, nil
}

// AdvisoryUnlock releases a previously acquired advisory lock.
func AdvisoryUnlock(gdb *gorm.DB, key int64) error {
	if gdb.Dialector.Name() != "postgres" {
		return nil
	}
	if err := gdb.Exec("SELECT pg_advisory_unlock(?)", key).Error; err != nil {
		return fmt.Errorf("db: advisory unlock %d: %w", key, err)
	}
	return nil
}

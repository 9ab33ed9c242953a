package sync

import (
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/traindash/internal/models"
	"gorm.io/gorm"
)

// Result summarizes one finished sync pass for checkpoint bookkeeping.
type Result struct {
	Mode       string
	Synced     int
	Skipped    int
	Failed     int
	Duration   time.Duration
	Err        error
	FinishedAt time.Time
}

// Checkpoint returns the single sync-state row, creating it on first use.
func Checkpoint(gdb *gorm.DB) (*models.SyncState, error) {
	var state models.SyncState
	err := gdb.First(&state).Error
	if err == nil {
		return &state, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("sync: query sync state: %w", err)
	}
	state = models.SyncState{}
	if cerr := gdb.Create(&state).Error; cerr != nil {
		// Lost a create race; re-read the winner's row.
		if rerr := gdb.First(&state).Error; rerr == nil {
			return &state, nil
		}
		return nil, fmt.Errorf("sync: create sync state: %w", cerr)
	}
	return &state, nil
}

// RecordRun updates the checkpoint row after a sync pass. The checkpoint
// time advances even on partial failure so individually failing records
// never wedge the incremental window; they are retried by later passes
// anyway because their UpdatedAt keeps moving.
func RecordRun(gdb *gorm.DB, res Result) error {
	state, err := Checkpoint(gdb)
	if err != nil {
		return err
	}

	finished := res.FinishedAt
	if finished.IsZero() {
		finished = time.Now().UTC()
	}

	state.LastSyncTime = &finished
	if res.Mode == ModeFull {
		state.LastFullSyncTime = &finished
	}
	state.TotalPRsSynced += res.Synced
	state.LastSyncPRCount = res.Synced
	state.LastSyncDuration = int(res.Duration.Seconds())
	state.SyncType = res.Mode
	if res.Err != nil {
		state.LastSyncStatus = models.SyncStatusError
		state.LastError = res.Err.Error()
	} else {
		state.LastSyncStatus = models.SyncStatusSuccess
		state.LastError = ""
	}

	if err := gdb.Save(state).Error; err != nil {
		return fmt.Errorf("sync: save sync state: %w", err)
	}
	return nil
}

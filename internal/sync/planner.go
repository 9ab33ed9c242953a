package sync

import "time"

// Sync modes.
const (
	ModeFull        = "full"
	ModeIncremental = "incremental"
)

// Defaults for the freshness policy.
const (
	DefaultLookbackDays  = 60
	DefaultStalenessDays = 7
)

// Plan is the planner's decision for one sync invocation.
type Plan struct {
	Mode           string
	EffectiveSince time.Time
}

// Decide selects the sync mode for one invocation. Full when there is no
// checkpoint, when the caller forces it, or when the checkpoint is older
// than the staleness threshold; incremental otherwise, anchored at the
// checkpoint. lookbackDays bounds how far back a full sync requests
// records, independent of the staleness threshold.
func Decide(lastCheckpoint *time.Time, lookbackDays, stalenessDays int, forceFull bool, now time.Time) Plan {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	if stalenessDays <= 0 {
		stalenessDays = DefaultStalenessDays
	}

	full := forceFull || lastCheckpoint == nil ||
		now.Sub(*lastCheckpoint) > time.Duration(stalenessDays)*24*time.Hour

	if full {
		return Plan{
			Mode:           ModeFull,
			EffectiveSince: now.AddDate(0, 0, -lookbackDays),
		}
	}
	return Plan{
		Mode:           ModeIncremental,
		EffectiveSince: *lastCheckpoint,
	}
}

// NeedsNestedSync decides the skipNested optimization for one record. A
// closed or merged PR whose nested data was already recorded on a previous
// pass only needs its scalar fields refreshed; everything else gets the
// full nested fetch.
func NeedsNestedSync(existingLastSynced *time.Time, existingReviewCount int, rec Record) bool {
	if rec.State == "open" {
		return true
	}
	if existingLastSynced == nil || existingReviewCount == 0 {
		return true
	}
	// Nested data is complete if we synced after the record last changed.
	return existingLastSynced.Before(rec.UpdatedAt)
}

package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/zulandar/traindash/internal/db"
	"github.com/zulandar/traindash/internal/models"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Default batch limits.
const (
	DefaultMaxRecords = 500
	DefaultWorkers    = 4
)

// Options tunes a Runner. Zero values fall back to the defaults above.
type Options struct {
	LookbackDays  int
	StalenessDays int
	MaxRecords    int
	Workers       int

	// AfterSync runs once after a pass that synced at least one record,
	// typically the metrics recompute. Failures are logged, never fatal.
	AfterSync func(ctx context.Context) error
}

// Runner drives whole sync passes: plan the mode, list candidate records,
// fan them out to workers, then advance the checkpoint.
type Runner struct {
	db     *gorm.DB
	src    Source
	syncer *Synchronizer
	opts   Options
}

// NewRunner wires a Runner.
func NewRunner(gdb *gorm.DB, src Source, titles *TitleParser, opts Options) *Runner {
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = DefaultLookbackDays
	}
	if opts.StalenessDays <= 0 {
		opts.StalenessDays = DefaultStalenessDays
	}
	if opts.MaxRecords <= 0 {
		opts.MaxRecords = DefaultMaxRecords
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	return &Runner{
		db:     gdb,
		src:    src,
		syncer: NewSynchronizer(gdb, src, titles),
		opts:   opts,
	}
}

// Run executes one sync pass. The mode is chosen by the planner unless
// forceFull is set. Full passes take the cross-process advisory lock; a
// pass that cannot get the lock is skipped entirely rather than queued.
func (r *Runner) Run(ctx context.Context, forceFull bool) (Result, error) {
	state, err := Checkpoint(r.db)
	if err != nil {
		return Result{}, err
	}

	now := time.Now().UTC()
	plan := Decide(state.LastSyncTime, r.opts.LookbackDays, r.opts.StalenessDays, forceFull, now)

	if plan.Mode == ModeFull {
		locked, err := db.TryAdvisoryLock(r.db, db.SyncLockKey)
		if err != nil {
			return Result{}, err
		}
		if !locked {
			log.Printf("sync: full sync already running elsewhere, skipping")
			return Result{Mode: plan.Mode}, nil
		}
		defer func() {
			if err := db.AdvisoryUnlock(r.db, db.SyncLockKey); err != nil {
				log.Printf("sync: release advisory lock: %v", err)
			}
		}()
	}

	started := time.Now()
	records, listErr := r.collect(ctx, plan)

	res := r.fanOut(ctx, records)
	res.Mode = plan.Mode
	res.Duration = time.Since(started)
	res.FinishedAt = now
	if listErr != nil {
		res.Err = listErr
	}

	// The checkpoint advances regardless of per-record failures; records
	// the source keeps updating reappear in later incremental windows.
	if err := RecordRun(r.db, res); err != nil {
		log.Printf("sync: record run: %v", err)
	}

	if res.Synced > 0 && r.opts.AfterSync != nil {
		if err := r.opts.AfterSync(ctx); err != nil {
			log.Printf("sync: post-sync hook: %v", err)
		}
	}

	if listErr != nil {
		return res, fmt.Errorf("sync: list records: %w", listErr)
	}
	return res, nil
}

// RunWindow executes one wide-window pass: a full listing bounded at the
// given number of days back, regardless of the checkpoint. Used by the
// daily catch-up job to pick up late-arriving updates the incremental
// window may have stepped over. Takes the advisory lock like a full sync.
func (r *Runner) RunWindow(ctx context.Context, days int) (Result, error) {
	if days <= 0 {
		days = 3
	}
	locked, err := db.TryAdvisoryLock(r.db, db.SyncLockKey)
	if err != nil {
		return Result{}, err
	}
	if !locked {
		log.Printf("sync: window sync already running elsewhere, skipping")
		return Result{Mode: ModeFull}, nil
	}
	defer func() {
		if err := db.AdvisoryUnlock(r.db, db.SyncLockKey); err != nil {
			log.Printf("sync: release advisory lock: %v", err)
		}
	}()

	now := time.Now().UTC()
	plan := Plan{Mode: ModeFull, EffectiveSince: now.AddDate(0, 0, -days)}

	started := time.Now()
	records, listErr := r.collect(ctx, plan)

	res := r.fanOut(ctx, records)
	res.Mode = plan.Mode
	res.Duration = time.Since(started)
	res.FinishedAt = now
	if listErr != nil {
		res.Err = listErr
	}

	if err := RecordRun(r.db, res); err != nil {
		log.Printf("sync: record run: %v", err)
	}
	if res.Synced > 0 && r.opts.AfterSync != nil {
		if err := r.opts.AfterSync(ctx); err != nil {
			log.Printf("sync: post-sync hook: %v", err)
		}
	}
	if listErr != nil {
		return res, fmt.Errorf("sync: list records: %w", listErr)
	}
	return res, nil
}

// QuickUpdate re-syncs a single pull request by number, nested data
// included. Used by the manual refresh endpoint.
func (r *Runner) QuickUpdate(ctx context.Context, number int) (*models.PullRequest, error) {
	rec, err := r.src.Record(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("sync: fetch #%d: %w", number, err)
	}
	pr, err := r.syncer.SyncRecord(ctx, rec, false)
	if err != nil {
		return nil, err
	}
	if pr == nil {
		return nil, fmt.Errorf("sync: #%d does not match the title conventions", number)
	}
	return pr, nil
}

// collect lists candidate records for the plan. The source streams in
// last-updated descending order, so listing stops at the first record
// older than the effective window; MaxRecords caps runaway batches either
// way. A partial listing still syncs what was collected.
func (r *Runner) collect(ctx context.Context, plan Plan) ([]Record, error) {
	var records []Record
	capped := false

	gather := func(rec Record) (bool, error) {
		if rec.UpdatedAt.Before(plan.EffectiveSince) {
			return false, nil
		}
		records = append(records, rec)
		if len(records) >= r.opts.MaxRecords {
			capped = true
			return false, nil
		}
		return true, nil
	}

	states := []string{"all"}
	if plan.Mode == ModeFull {
		// Open PRs first so a capped full pass still refreshes live work.
		states = []string{"open", "closed"}
	}
	var listErr error
	for _, state := range states {
		if capped {
			break
		}
		if err := r.src.ListUpdated(ctx, state, gather); err != nil {
			listErr = err
			break
		}
	}
	if capped {
		log.Printf("sync: batch capped at %d records", r.opts.MaxRecords)
	}
	return records, listErr
}

// fanOut distributes records across the worker pool and tallies outcomes.
func (r *Runner) fanOut(ctx context.Context, records []Record) Result {
	var synced, skipped, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for _, rec := range records {
		rec := rec
		g.Go(func() error {
			skipNested := !r.needsNested(rec)
			pr, err := r.syncer.SyncRecord(gctx, rec, skipNested)
			switch {
			case err != nil:
				log.Printf("sync: record #%d: %v", rec.Number, err)
				failed.Add(1)
			case pr == nil:
				skipped.Add(1)
			default:
				synced.Add(1)
			}
			// Per-record failures never abort the pass.
			return nil
		})
	}
	_ = g.Wait()

	return Result{
		Synced:  int(synced.Load()),
		Skipped: int(skipped.Load()),
		Failed:  int(failed.Load()),
	}
}

// needsNested checks the stored row to decide whether nested data can be
// skipped for this record.
func (r *Runner) needsNested(rec Record) bool {
	var pr models.PullRequest
	err := r.db.Select("last_synced", "review_count").
		Where("github_id = ?", rec.ID).First(&pr).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("sync: lookup #%d: %v", rec.Number, err)
		}
		return true
	}
	last := pr.LastSynced
	var lastPtr *time.Time
	if !last.IsZero() {
		lastPtr = &last
	}
	return NeedsNestedSync(lastPtr, pr.ReviewCount, rec)
}

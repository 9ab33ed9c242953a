// Package scheduler runs the recurring background cycles: incremental
// sync, the daily wide-window catch-up, metrics recomputation and the
// domain allow-list refresh.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/zulandar/traindash/internal/config"
	"github.com/zulandar/traindash/internal/metrics"
	"github.com/zulandar/traindash/internal/models"
	"github.com/zulandar/traindash/internal/notify"
	syncpkg "github.com/zulandar/traindash/internal/sync"
	"gorm.io/gorm"
)

// Daily catch-up fires at a quiet hour; metrics and domain refresh ride
// their own hourly offsets so cycles never stack on the sync.
const (
	wideWindowSpec    = "30 2 * * *"
	recomputeSpec     = "15 * * * *"
	domainRefreshSpec = "45 * * * *"
)

// Scheduler owns the cron entries and their shared dependencies.
type Scheduler struct {
	db       *gorm.DB
	runner   *syncpkg.Runner
	domains  *config.Store
	cfg      *config.Config
	notifier notify.Notifier
	cron     *cron.Cron
}

// New wires a Scheduler. notifier may be nil when no chat targets are
// configured.
func New(gdb *gorm.DB, runner *syncpkg.Runner, domains *config.Store, cfg *config.Config, notifier notify.Notifier) *Scheduler {
	return &Scheduler{
		db:       gdb,
		runner:   runner,
		domains:  domains,
		cfg:      cfg,
		notifier: notifier,
		cron:     cron.New(),
	}
}

// Start registers all cycles and runs them until ctx is cancelled. An
// immediate incremental sync fires on startup so a fresh deployment has
// data before the first interval elapses.
func (s *Scheduler) Start(ctx context.Context) error {
	interval := time.Duration(s.cfg.Sync.IntervalMinutes) * time.Minute

	entries := []struct {
		spec string
		name string
		fn   func()
	}{
		{fmt.Sprintf("@every %s", interval), "incremental sync", func() { s.runSync(ctx) }},
		{wideWindowSpec, "wide-window sync", func() { s.runWideWindow(ctx) }},
		{recomputeSpec, "metrics recompute", func() { s.runRecompute(ctx) }},
		{domainRefreshSpec, "domain refresh", func() { s.refreshDomains() }},
	}
	for _, e := range entries {
		if _, err := s.cron.AddFunc(e.spec, e.fn); err != nil {
			return fmt.Errorf("scheduler: add %s: %w", e.name, err)
		}
	}

	s.cron.Start()
	go s.runSync(ctx)

	<-ctx.Done()
	stopped := s.cron.Stop()
	<-stopped.Done()
	return nil
}

func (s *Scheduler) runSync(ctx context.Context) {
	res, err := s.runner.Run(ctx, false)
	if err != nil {
		log.Printf("scheduler: sync cycle: %v", err)
		s.alert("Sync failed", err.Error(), notify.SeverityError)
		return
	}
	log.Printf("scheduler: %s sync done: %d synced, %d skipped, %d failed in %s",
		res.Mode, res.Synced, res.Skipped, res.Failed, res.Duration.Round(time.Second))
}

func (s *Scheduler) runWideWindow(ctx context.Context) {
	res, err := s.runner.RunWindow(ctx, s.cfg.Sync.WideWindowDays)
	if err != nil {
		log.Printf("scheduler: wide-window cycle: %v", err)
		s.alert("Daily catch-up sync failed", err.Error(), notify.SeverityError)
		return
	}
	log.Printf("scheduler: wide-window sync done: %d synced, %d failed in %s",
		res.Synced, res.Failed, res.Duration.Round(time.Second))
	s.alert("Daily catch-up sync complete",
		fmt.Sprintf("%d PRs refreshed over the last %d days", res.Synced, s.cfg.Sync.WideWindowDays),
		notify.SeveritySuccess)
}

func (s *Scheduler) runRecompute(ctx context.Context) {
	if err := metrics.RecomputeAll(ctx, s.db); err != nil {
		log.Printf("scheduler: recompute cycle: %v", err)
	}
}

// refreshDomains rebuilds the parser allow-list from the static config
// plus every domain already observed in the database, so new domains
// become parseable without a restart.
func (s *Scheduler) refreshDomains() {
	var names []string
	if err := s.db.Model(&models.Domain{}).Pluck("domain_name", &names).Error; err != nil {
		log.Printf("scheduler: refresh domains: %v", err)
		return
	}
	merged := append([]string{}, s.cfg.Domains...)
	merged = append(merged, names...)
	s.domains.Replace(merged)
}

func (s *Scheduler) alert(title, body, severity string) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := s.notifier.Notify(ctx, notify.Message{
		Title:    title,
		Body:     body,
		Severity: severity,
	}); err != nil {
		log.Printf("scheduler: notify: %v", err)
	}
}

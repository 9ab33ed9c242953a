package main

import (
	"context"
	"fmt"

	"github.com/zulandar/traindash/internal/config"
	"github.com/zulandar/traindash/internal/db"
	"github.com/zulandar/traindash/internal/githubapi"
	"github.com/zulandar/traindash/internal/metrics"
	"github.com/zulandar/traindash/internal/notify"
	syncpkg "github.com/zulandar/traindash/internal/sync"
	"gorm.io/gorm"
)

// app bundles the shared wiring every command needs: config, database,
// source client and sync runner.
type app struct {
	cfg     *config.Config
	db      *gorm.DB
	domains *config.Store
	source  syncpkg.Source
	runner  *syncpkg.Runner
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	gdb, err := db.Connect(cfg.DatabaseDSN())
	if err != nil {
		return nil, err
	}

	owner, repo, err := cfg.GitHub.SplitRepo()
	if err != nil {
		return nil, err
	}

	domains := config.NewStore(cfg)
	titles := syncpkg.NewTitleParser(func(name string) bool {
		return domains.Current().KnownDomain(name)
	})
	source := githubapi.New(cfg.GitHub.Token, owner, repo)
	runner := syncpkg.NewRunner(gdb, source, titles, syncpkg.Options{
		LookbackDays:  cfg.Sync.LookbackDays,
		StalenessDays: cfg.Sync.StalenessDays,
		MaxRecords:    cfg.Sync.MaxRecords,
		Workers:       cfg.Sync.Workers,
		AfterSync: func(ctx context.Context) error {
			return metrics.RecomputeAll(ctx, gdb)
		},
	})

	return &app{
		cfg:     cfg,
		db:      gdb,
		domains: domains,
		source:  source,
		runner:  runner,
	}, nil
}

// notifier builds the configured chat notifiers, or nil when none are set.
func (a *app) notifier() (notify.Notifier, error) {
	var targets notify.Multi
	if a.cfg.Notify.SlackChannel != "" {
		s, err := notify.NewSlack(notify.SlackOpts{
			BotToken:  a.cfg.Notify.SlackToken,
			ChannelID: a.cfg.Notify.SlackChannel,
		})
		if err != nil {
			return nil, err
		}
		targets = append(targets, s)
	}
	if a.cfg.Notify.DiscordChannel != "" {
		d, err := notify.NewDiscord(notify.DiscordOpts{
			BotToken:  a.cfg.Notify.DiscordToken,
			ChannelID: a.cfg.Notify.DiscordChannel,
		})
		if err != nil {
			return nil, err
		}
		targets = append(targets, d)
	}
	if len(targets) == 0 {
		return nil, nil
	}
	return targets, nil
}

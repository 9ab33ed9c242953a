package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/traindash/internal/api"
	"github.com/zulandar/traindash/internal/db"
	"github.com/zulandar/traindash/internal/scheduler"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
		noSync     bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API server and background sync cycles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port, noSync)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "traindash.yaml", "path to config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default from config)")
	cmd.Flags().BoolVar(&noSync, "no-sync", false, "serve the API without background sync cycles")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int, noSync bool) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(a.db); err != nil {
		return err
	}
	if port <= 0 {
		port = a.cfg.Server.Port
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return api.Start(gctx, api.StartOpts{
			DB:     a.db,
			Runner: a.runner,
			Port:   port,
			Out:    cmd.OutOrStdout(),
		})
	})
	if !noSync {
		notifier, err := a.notifier()
		if err != nil {
			return err
		}
		sched := scheduler.New(a.db, a.runner, a.domains, a.cfg, notifier)
		g.Go(func() error {
			return sched.Start(gctx)
		})
	}
	return g.Wait()
}

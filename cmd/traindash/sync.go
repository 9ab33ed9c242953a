package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/traindash/internal/db"
	"github.com/zulandar/traindash/internal/models"
	"gorm.io/gorm"
)

func newSyncCmd() *cobra.Command {
	var (
		configPath string
		forceFull  bool
		days       int
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync pass and exit",
		Long:  "Runs a single synchronization pass. The mode is chosen automatically from the checkpoint unless --full or --days overrides it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, configPath, forceFull, days)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "traindash.yaml", "path to config file")
	cmd.Flags().BoolVar(&forceFull, "full", false, "force a full sync covering the whole persisted history")
	cmd.Flags().IntVar(&days, "days", 0, "sync a fixed window of the last N days instead")
	return cmd
}

func runSync(cmd *cobra.Command, configPath string, forceFull bool, days int) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(a.db); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	if forceFull && days == 0 {
		days = fullWindowDays(a.db)
	}
	if days > 0 {
		fmt.Fprintf(out, "Syncing the last %d days...\n", days)
		res, err := a.runner.RunWindow(ctx, days)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Done: %d synced, %d skipped, %d failed in %s\n",
			res.Synced, res.Skipped, res.Failed, res.Duration.Round(time.Second))
		return nil
	}

	res, err := a.runner.Run(ctx, forceFull)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s sync done: %d synced, %d skipped, %d failed in %s\n",
		res.Mode, res.Synced, res.Skipped, res.Failed, res.Duration.Round(time.Second))
	return nil
}

// fullWindowDays sizes the forced-full window to cover everything already
// persisted: from the oldest PR's creation plus a week of slack. A fresh
// database gets a year.
func fullWindowDays(gdb *gorm.DB) int {
	var oldest models.PullRequest
	err := gdb.Order("created_at ASC").Select("created_at").First(&oldest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || oldest.CreatedAt.IsZero() {
		return 365
	}
	if err != nil {
		return 365
	}
	days := int(time.Since(oldest.CreatedAt).Hours()/24) + 7
	if days < 1 {
		days = 7
	}
	return days
}

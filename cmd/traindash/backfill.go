package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/traindash/internal/db"
	"github.com/zulandar/traindash/internal/models"
	syncpkg "github.com/zulandar/traindash/internal/sync"
)

func newBackfillCmd() *cobra.Command {
	var (
		configPath string
		dryRun     bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Backfill week/pod assignments for already-synced PRs",
		Long:  "Re-fetches changed-file paths for PRs missing a week or pod assignment and fills in both from the path conventions. Useful after the conventions were adopted mid-stream.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackfill(cmd, configPath, dryRun, limit)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "traindash.yaml", "path to config file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without writing")
	cmd.Flags().IntVar(&limit, "limit", 0, "stop after N PRs (0 = no limit)")
	return cmd
}

func runBackfill(cmd *cobra.Command, configPath string, dryRun bool, limit int) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(a.db); err != nil {
		return err
	}

	q := a.db.Where("week_id IS NULL OR pod_id IS NULL").Order("number ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var prs []models.PullRequest
	if err := q.Find(&prs).Error; err != nil {
		return fmt.Errorf("backfill: list PRs: %w", err)
	}

	out := cmd.OutOrStdout()
	ctx := cmd.Context()
	resolver := syncpkg.NewResolver(a.db)
	filled, skipped, failed := 0, 0, 0

	fmt.Fprintf(out, "Backfilling week/pod for %d PRs...\n", len(prs))
	for i := range prs {
		pr := &prs[i]
		files, err := a.source.Files(ctx, pr.Number)
		if err != nil {
			fmt.Fprintf(out, "  #%d: fetch files: %v\n", pr.Number, err)
			failed++
			continue
		}
		weekNum, podName, ok := syncpkg.ParseWeekPod(files)
		if !ok {
			skipped++
			continue
		}

		if dryRun {
			fmt.Fprintf(out, "  #%d: would set week_%d / %s\n", pr.Number, weekNum, podName)
			filled++
			continue
		}

		week, err := resolver.Week(weekNum)
		if err != nil {
			fmt.Fprintf(out, "  #%d: %v\n", pr.Number, err)
			failed++
			continue
		}
		pod, err := resolver.Pod(podName)
		if err != nil {
			fmt.Fprintf(out, "  #%d: %v\n", pr.Number, err)
			failed++
			continue
		}

		pr.WeekID = &week.ID
		pr.WeekNum = week.WeekNum
		pr.WeekName = week.WeekName
		pr.PodID = &pod.ID
		pr.PodName = pod.Name
		if err := a.db.Save(pr).Error; err != nil {
			fmt.Fprintf(out, "  #%d: save: %v\n", pr.Number, err)
			failed++
			continue
		}
		fmt.Fprintf(out, "  #%d: week_%d / %s\n", pr.Number, week.WeekNum, pod.Name)
		filled++
	}

	fmt.Fprintf(out, "Done: %d filled, %d without path match, %d failed\n", filled, skipped, failed)
	return nil
}

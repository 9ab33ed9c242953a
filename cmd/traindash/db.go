package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/traindash/internal/config"
	"github.com/zulandar/traindash/internal/db"
	"github.com/zulandar/traindash/internal/models"
	"gorm.io/gorm/clause"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	cmd.AddCommand(newDBMigrateCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the database",
		Long:  "Migrates all tables and seeds the configured domain list.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "traindash.yaml", "path to config file")
	return cmd
}

func runDBInit(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gdb, err := db.Connect(cfg.DatabaseDSN())
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gdb); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))

	// Seed the configured domains so the dashboard has rows before the
	// first sync.
	for _, name := range cfg.Domains {
		domain := models.Domain{DomainName: name, DisplayName: name, IsActive: true}
		if err := gdb.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "domain_name"}},
			DoNothing: true,
		}).Create(&domain).Error; err != nil {
			return fmt.Errorf("seed domain %s: %w", name, err)
		}
	}
	fmt.Fprintf(out, "Seeded %d domains\n", len(cfg.Domains))
	return nil
}

func newDBMigrateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			gdb, err := db.Connect(cfg.DatabaseDSN())
			if err != nil {
				return err
			}
			if err := db.AutoMigrate(gdb); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d tables\n", len(db.AllModels()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "traindash.yaml", "path to config file")
	return cmd
}

// Package config provides YAML-based configuration loading for Traindash.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Traindash configuration, loaded from config.yaml.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	GitHub   GitHubConfig   `yaml:"github"`
	Sync     SyncConfig     `yaml:"sync"`
	Domains  []string       `yaml:"domains"`
	Notify   NotifyConfig   `yaml:"notify"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// DatabaseConfig holds PostgreSQL connection settings. URL, when set, takes
// precedence over the individual components.
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// GitHubConfig identifies the repository to sync. The token may also come
// from the TRAINDASH_GITHUB_TOKEN environment variable, which wins over the
// file value.
type GitHubConfig struct {
	Token string `yaml:"token"`
	Repo  string `yaml:"repo"` // "owner/name"
}

// SplitRepo splits the "owner/name" repo setting into its parts.
func (g GitHubConfig) SplitRepo() (owner, name string, err error) {
	owner, name, ok := strings.Cut(g.Repo, "/")
	if !ok || owner == "" || name == "" {
		return "", "", fmt.Errorf("config: github.repo must be owner/name, got %q", g.Repo)
	}
	return owner, name, nil
}

// SyncConfig tunes the synchronization engine.
type SyncConfig struct {
	LookbackDays     int `yaml:"lookback_days"`      // full-sync window
	StalenessDays    int `yaml:"staleness_days"`     // checkpoint age forcing a full sync
	WideWindowDays   int `yaml:"wide_window_days"`   // daily detailed re-sync window
	MaxRecords       int `yaml:"max_records"`        // per-pass safety cap
	Workers          int `yaml:"workers"`            // record-sync worker pool size
	IntervalMinutes  int `yaml:"interval_minutes"`   // incremental cycle period
	RecentPRSample   int `yaml:"recent_pr_sample"`   // rollup "recent items" size
}

// NotifyConfig holds optional chat notification targets for sync outcomes.
type NotifyConfig struct {
	SlackToken     string `yaml:"slack_token"`
	SlackChannel   string `yaml:"slack_channel"`
	DiscordToken   string `yaml:"discord_token"`
	DiscordChannel string `yaml:"discord_channel"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DatabaseDSN returns the effective PostgreSQL DSN.
func (c *Config) DatabaseDSN() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password, c.Database.Name)
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if tok := os.Getenv("TRAINDASH_GITHUB_TOKEN"); tok != "" {
		c.GitHub.Token = tok
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.User == "" {
		c.Database.User = "postgres"
	}
	if c.Database.Name == "" {
		c.Database.Name = "traindash"
	}
	if c.Sync.LookbackDays == 0 {
		c.Sync.LookbackDays = 60
	}
	if c.Sync.StalenessDays == 0 {
		c.Sync.StalenessDays = 7
	}
	if c.Sync.WideWindowDays == 0 {
		c.Sync.WideWindowDays = 3
	}
	if c.Sync.MaxRecords == 0 {
		c.Sync.MaxRecords = 500
	}
	if c.Sync.Workers == 0 {
		c.Sync.Workers = 4
	}
	if c.Sync.IntervalMinutes == 0 {
		c.Sync.IntervalMinutes = 60
	}
	if c.Sync.RecentPRSample == 0 {
		c.Sync.RecentPRSample = 5
	}
	if len(c.Domains) == 0 {
		c.Domains = defaultDomains()
	}
}

// defaultDomains is the built-in domain allow-list, used until the
// background refresh discovers domains from synced data.
func defaultDomains() []string {
	return []string{
		"enterprise_wiki",
		"finance",
		"fund_finance",
		"hr_experts",
		"hr_management",
		"hr_payroll",
		"incident_management",
		"it_incident_management",
		"smart_home",
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.GitHub.Token == "" {
		errs = append(errs, "github.token is required")
	}
	if c.GitHub.Repo == "" {
		errs = append(errs, "github.repo is required")
	} else if !strings.Contains(c.GitHub.Repo, "/") {
		errs = append(errs, "github.repo must be owner/name")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

package config

import (
	"strings"
	"testing"
)

const minimalYAML = `
github:
  token: ghp_testtoken
  repo: example-org/training-tasks
`

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("Parse(): %v", err)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Database.Host != "127.0.0.1" || cfg.Database.Port != 5432 {
		t.Errorf("database defaults = %s:%d", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.Database.Name != "traindash" {
		t.Errorf("Database.Name = %q", cfg.Database.Name)
	}
	if cfg.Sync.LookbackDays != 60 || cfg.Sync.StalenessDays != 7 {
		t.Errorf("sync window defaults = %d/%d", cfg.Sync.LookbackDays, cfg.Sync.StalenessDays)
	}
	if cfg.Sync.MaxRecords != 500 || cfg.Sync.Workers != 4 || cfg.Sync.IntervalMinutes != 60 {
		t.Errorf("sync engine defaults = %d/%d/%d",
			cfg.Sync.MaxRecords, cfg.Sync.Workers, cfg.Sync.IntervalMinutes)
	}
	if len(cfg.Domains) == 0 {
		t.Error("expected built-in domain list")
	}
}

func TestParse_Overrides(t *testing.T) {
	yaml := `
server:
  port: 9090
github:
  token: ghp_testtoken
  repo: example-org/training-tasks
sync:
  lookback_days: 14
  workers: 8
domains:
  - finance
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse(): %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Sync.LookbackDays != 14 || cfg.Sync.Workers != 8 {
		t.Errorf("sync = %d/%d, want 14/8", cfg.Sync.LookbackDays, cfg.Sync.Workers)
	}
	if len(cfg.Domains) != 1 || cfg.Domains[0] != "finance" {
		t.Errorf("Domains = %v, want [finance]", cfg.Domains)
	}
}

func TestParse_TokenFromEnv(t *testing.T) {
	t.Setenv("TRAINDASH_GITHUB_TOKEN", "ghp_envtoken")
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("Parse(): %v", err)
	}
	if cfg.GitHub.Token != "ghp_envtoken" {
		t.Errorf("Token = %q, want env value to win", cfg.GitHub.Token)
	}
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing token", "github:\n  repo: a/b\n", "github.token is required"},
		{"missing repo", "github:\n  token: t\n", "github.repo is required"},
		{"malformed repo", "github:\n  token: t\n  repo: noslash\n", "owner/name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want to contain %q", err.Error(), tt.want)
			}
		})
	}
}

func TestSplitRepo(t *testing.T) {
	g := GitHubConfig{Repo: "example-org/training-tasks"}
	owner, name, err := g.SplitRepo()
	if err != nil {
		t.Fatalf("SplitRepo(): %v", err)
	}
	if owner != "example-org" || name != "training-tasks" {
		t.Errorf("SplitRepo() = %q/%q", owner, name)
	}

	for _, repo := range []string{"", "noslash", "/name", "owner/"} {
		g := GitHubConfig{Repo: repo}
		if _, _, err := g.SplitRepo(); err == nil {
			t.Errorf("SplitRepo(%q): expected error", repo)
		}
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("Parse(): %v", err)
	}
	dsn := cfg.DatabaseDSN()
	if !strings.Contains(dsn, "host=127.0.0.1") || !strings.Contains(dsn, "dbname=traindash") {
		t.Errorf("DSN = %q", dsn)
	}

	cfg.Database.URL = "postgres://u:p@db:5432/traindash"
	if got := cfg.DatabaseDSN(); got != cfg.Database.URL {
		t.Errorf("DSN = %q, want URL to take precedence", got)
	}
}

func TestStore(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML + "domains:\n  - finance\n  - hr_payroll\n"))
	if err != nil {
		t.Fatalf("Parse(): %v", err)
	}
	st := NewStore(cfg)

	snap := st.Current()
	if !snap.KnownDomain("finance") || snap.KnownDomain("smart_home") {
		t.Errorf("initial snapshot domains = %v", snap.Domains())
	}

	st.Replace([]string{"smart_home", "finance"})
	if !st.Current().KnownDomain("smart_home") {
		t.Error("replaced snapshot missing smart_home")
	}
	// The old snapshot is unchanged for readers that already hold it.
	if snap.KnownDomain("smart_home") {
		t.Error("old snapshot mutated by Replace")
	}

	got := st.Current().Domains()
	want := []string{"finance", "smart_home"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Domains() = %v, want %v (sorted)", got, want)
	}
}

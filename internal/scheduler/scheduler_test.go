package scheduler

import (
	"testing"

	"github.com/robfig/cron/v3"
	"github.com/zulandar/traindash/internal/config"
	"github.com/zulandar/traindash/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := gdb.AutoMigrate(&models.Domain{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return gdb
}

func seedDomain(t *testing.T, gdb *gorm.DB, name string) {
	t.Helper()
	if err := gdb.Create(&models.Domain{DomainName: name, IsActive: true}).Error; err != nil {
		t.Fatalf("seed domain %s: %v", name, err)
	}
}

func TestCronSpecsParse(t *testing.T) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	for _, spec := range []string{wideWindowSpec, recomputeSpec, domainRefreshSpec} {
		if _, err := parser.Parse(spec); err != nil {
			t.Errorf("Parse(%q): %v", spec, err)
		}
	}
}

func TestRefreshDomainsMergesConfigAndDB(t *testing.T) {
	gdb := testDB(t)
	seedDomain(t, gdb, "fund_finance")
	seedDomain(t, gdb, "smart_home")

	cfg := &config.Config{Domains: []string{"finance"}}
	domains := config.NewStore(cfg)

	s := New(gdb, nil, domains, cfg, nil)
	s.refreshDomains()

	snap := domains.Current()
	for _, want := range []string{"finance", "fund_finance", "smart_home"} {
		if !snap.KnownDomain(want) {
			t.Errorf("refreshed allow-list missing %q", want)
		}
	}
	if snap.KnownDomain("hr_payroll") {
		t.Error("allow-list has domain neither configured nor in db")
	}
}

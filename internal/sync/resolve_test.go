package sync

import (
	"testing"

	"github.com/zulandar/traindash/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB creates an in-memory SQLite database with all required tables.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := gdb.AutoMigrate(
		&models.User{},
		&models.Domain{},
		&models.Interface{},
		&models.Week{},
		&models.Pod{},
		&models.PullRequest{},
		&models.Review{},
		&models.CheckRun{},
		&models.UserDomainAssignment{},
		&models.DeveloperStats{},
		&models.ReviewerStats{},
		&models.SyncState{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return gdb
}

func TestResolver_UserGetOrCreate(t *testing.T) {
	r := NewResolver(testDB(t))

	u1, err := r.User("alex", models.RoleTrainer)
	if err != nil {
		t.Fatalf("User() create: %v", err)
	}
	if u1.Role != models.RoleTrainer {
		t.Errorf("Role = %q, want trainer", u1.Role)
	}

	// Second resolve returns the same row and never touches the role.
	u2, err := r.User("alex", models.RolePodLead)
	if err != nil {
		t.Fatalf("User() lookup: %v", err)
	}
	if u2.ID != u1.ID {
		t.Errorf("second resolve created new row: %d != %d", u2.ID, u1.ID)
	}
	if u2.Role != models.RoleTrainer {
		t.Errorf("existing role changed to %q", u2.Role)
	}
}

func TestResolver_UserEmptyLogin(t *testing.T) {
	r := NewResolver(testDB(t))
	if _, err := r.User("", models.RoleTrainer); err == nil {
		t.Fatal("User(\"\") = nil error, want error")
	}
}

func TestResolver_DomainNormalized(t *testing.T) {
	r := NewResolver(testDB(t))

	d1, err := r.Domain("Fund-Finance")
	if err != nil {
		t.Fatalf("Domain() create: %v", err)
	}
	if d1.DomainName != "fund_finance" {
		t.Errorf("DomainName = %q, want fund_finance", d1.DomainName)
	}
	if d1.DisplayName != "Fund Finance" {
		t.Errorf("DisplayName = %q, want Fund Finance", d1.DisplayName)
	}

	// Any separator/case variant resolves to the same row.
	d2, err := r.Domain("fund_finance")
	if err != nil {
		t.Fatalf("Domain() lookup: %v", err)
	}
	if d2.ID != d1.ID {
		t.Errorf("variant created new row: %d != %d", d2.ID, d1.ID)
	}

	var count int64
	r.db.Model(&models.Domain{}).Count(&count)
	if count != 1 {
		t.Errorf("domain rows = %d, want 1", count)
	}
}

func TestResolver_InterfaceScopedToDomain(t *testing.T) {
	r := NewResolver(testDB(t))

	finance, _ := r.Domain("finance")
	payroll, _ := r.Domain("hr_payroll")

	i1, err := r.Interface(finance.ID, 2)
	if err != nil {
		t.Fatalf("Interface() create: %v", err)
	}
	i2, err := r.Interface(payroll.ID, 2)
	if err != nil {
		t.Fatalf("Interface() other domain: %v", err)
	}
	if i1.ID == i2.ID {
		t.Error("interface 2 shared across domains, want distinct rows")
	}

	again, err := r.Interface(finance.ID, 2)
	if err != nil {
		t.Fatalf("Interface() lookup: %v", err)
	}
	if again.ID != i1.ID {
		t.Errorf("re-resolve created new row: %d != %d", again.ID, i1.ID)
	}
}

func TestResolver_WeekNaming(t *testing.T) {
	r := NewResolver(testDB(t))

	w, err := r.Week(14)
	if err != nil {
		t.Fatalf("Week(): %v", err)
	}
	if w.WeekName != "week_14" || w.WeekNum != 14 {
		t.Errorf("got %q/%d, want week_14/14", w.WeekName, w.WeekNum)
	}
	if w.DisplayName != "Week 14" {
		t.Errorf("DisplayName = %q, want Week 14", w.DisplayName)
	}
}

func TestResolver_EnsureDomainAssignmentIdempotent(t *testing.T) {
	r := NewResolver(testDB(t))

	u, _ := r.User("alex", models.RoleTrainer)
	d, _ := r.Domain("finance")

	for i := 0; i < 3; i++ {
		if err := r.EnsureDomainAssignment(u.ID, d.ID); err != nil {
			t.Fatalf("EnsureDomainAssignment() iteration %d: %v", i, err)
		}
	}

	var count int64
	r.db.Model(&models.UserDomainAssignment{}).Count(&count)
	if count != 1 {
		t.Errorf("assignment rows = %d, want 1", count)
	}
}

package metrics

import (
	"context"
	"strings"
	"testing"
	"time"

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
		&models.PullRequest{},
		&models.Review{},
		&models.DeveloperStats{},
		&models.ReviewerStats{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return gdb
}

func seedPR(t *testing.T, gdb *gorm.DB, pr models.PullRequest) models.PullRequest {
	t.Helper()
	if err := gdb.Create(&pr).Error; err != nil {
		t.Fatalf("seed PR: %v", err)
	}
	return pr
}

func TestBucketFor_PriorityOrder(t *testing.T) {
	tests := []struct {
		labels []string
		want   string
	}{
		{[]string{"Pending Review"}, "pending review"},
		// Several status labels: the highest-priority one wins.
		{[]string{"Pending Review", "Discarded"}, "discarded"},
		{[]string{"needs-changes", "Resubmitted"}, "needs changes"},
		// Separator and case variants normalize.
		{[]string{"Ready_To_Merge"}, "ready to merge"},
		{[]string{"pod-lead-approved"}, "pod lead approved"},
		// Non-status labels are ignored.
		{[]string{"bug", "wontfix"}, ""},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := bucketFor(tt.labels); got != tt.want {
			t.Errorf("bucketFor(%v) = %q, want %q", tt.labels, got, tt.want)
		}
	}
}

func TestRecomputeDevelopers(t *testing.T) {
	gdb := testDB(t)
	now := time.Now().UTC()

	seedPR(t, gdb, models.PullRequest{
		GithubID: 1, Number: 1, Title: "t1", State: "closed", Merged: true,
		TrainerName: "alex", AuthorLogin: "alex", Domain: "finance",
		Complexity: "hard", ActualDifficulty: "hard",
		ReworkCount: 2, CheckFailures: 1, CreatedAt: now,
	})
	seedPR(t, gdb, models.PullRequest{
		GithubID: 2, Number: 2, Title: "t2", State: "open",
		TrainerName: "alex", AuthorLogin: "alex", Domain: "hr_payroll",
		Complexity: "medium", CreatedAt: now.Add(-time.Hour),
	})
	seedPR(t, gdb, models.PullRequest{
		GithubID: 3, Number: 3, Title: "t3", State: "closed",
		TrainerName: "casey", AuthorLogin: "casey", Domain: "finance",
		Complexity: "expert", CreatedAt: now,
	})

	if err := RecomputeDevelopers(gdb); err != nil {
		t.Fatalf("RecomputeDevelopers(): %v", err)
	}

	var alex models.DeveloperStats
	if err := gdb.Where("username = ?", "alex").First(&alex).Error; err != nil {
		t.Fatalf("load alex: %v", err)
	}
	if alex.TotalPRs != 2 || alex.MergedPRs != 1 || alex.OpenPRs != 1 || alex.ClosedPRs != 0 {
		t.Errorf("alex = total %d merged %d open %d closed %d, want 2/1/1/0",
			alex.TotalPRs, alex.MergedPRs, alex.OpenPRs, alex.ClosedPRs)
	}
	if alex.TotalRework != 2 || alex.TotalCheckFailures != 1 {
		t.Errorf("alex rework/failures = %d/%d, want 2/1", alex.TotalRework, alex.TotalCheckFailures)
	}
	if alex.Metrics == "" {
		t.Error("alex detail metrics empty")
	}

	// Recompute is idempotent: same inputs, same outputs, no row growth.
	if err := RecomputeDevelopers(gdb); err != nil {
		t.Fatalf("RecomputeDevelopers() second pass: %v", err)
	}
	var count int64
	gdb.Model(&models.DeveloperStats{}).Count(&count)
	if count != 2 {
		t.Errorf("developer stats rows = %d, want 2", count)
	}
	var again models.DeveloperStats
	gdb.Where("username = ?", "alex").First(&again)
	if again.TotalPRs != alex.TotalPRs || again.TotalRework != alex.TotalRework {
		t.Errorf("second pass changed totals: %+v vs %+v", again, alex)
	}
}

func TestRecomputeReviewers(t *testing.T) {
	gdb := testDB(t)
	pr := seedPR(t, gdb, models.PullRequest{GithubID: 1, Number: 1, Title: "t", State: "open"})

	reviews := []models.Review{
		{GithubID: 1, PullRequestID: pr.ID, ReviewerLogin: "priya", State: models.ReviewApproved},
		{GithubID: 2, PullRequestID: pr.ID, ReviewerLogin: "priya", State: models.ReviewChangesRequested},
		{GithubID: 3, PullRequestID: pr.ID, ReviewerLogin: "priya", State: models.ReviewCommented},
		{GithubID: 4, PullRequestID: pr.ID, ReviewerLogin: "sam", State: models.ReviewDismissed},
	}
	for i := range reviews {
		if err := gdb.Create(&reviews[i]).Error; err != nil {
			t.Fatalf("seed review: %v", err)
		}
	}

	if err := RecomputeReviewers(gdb); err != nil {
		t.Fatalf("RecomputeReviewers(): %v", err)
	}

	var priya models.ReviewerStats
	if err := gdb.Where("username = ?", "priya").First(&priya).Error; err != nil {
		t.Fatalf("load priya: %v", err)
	}
	if priya.TotalReviews != 3 || priya.ApprovedReviews != 1 || priya.ChangesRequested != 1 || priya.Commented != 1 {
		t.Errorf("priya = %+v, want 3 total, 1 each of approved/changes/commented", priya)
	}

	var sam models.ReviewerStats
	if err := gdb.Where("username = ?", "sam").First(&sam).Error; err != nil {
		t.Fatalf("load sam: %v", err)
	}
	if sam.Dismissed != 1 {
		t.Errorf("sam dismissed = %d, want 1", sam.Dismissed)
	}
}

func TestRecomputeDomains(t *testing.T) {
	gdb := testDB(t)
	domain := models.Domain{DomainName: "finance", IsActive: true}
	if err := gdb.Create(&domain).Error; err != nil {
		t.Fatalf("seed domain: %v", err)
	}

	mk := func(gid int64, merged bool, complexity string, labels []string, rework int) models.PullRequest {
		pr := models.PullRequest{
			GithubID: gid, Number: int(gid), Title: "t", State: "closed",
			Merged: merged, DomainID: &domain.ID, Domain: "finance",
			TrainerName: "alex", Complexity: complexity, ReworkCount: rework,
			CreatedAt: time.Now().UTC(),
		}
		pr.SetLabels(labels)
		return pr
	}
	seedPR(t, gdb, mk(1, true, "hard", []string{"Ready to Merge"}, 1))
	seedPR(t, gdb, mk(2, false, "expert", []string{"Needs Changes", "Pending Review"}, 2))
	seedPR(t, gdb, mk(3, false, "medium", []string{"bug"}, 0))

	if err := RecomputeDomains(gdb); err != nil {
		t.Fatalf("RecomputeDomains(): %v", err)
	}

	var got models.Domain
	if err := gdb.First(&got, domain.ID).Error; err != nil {
		t.Fatalf("load domain: %v", err)
	}
	if got.TotalTasks != 3 || got.Merged != 1 {
		t.Errorf("total/merged = %d/%d, want 3/1", got.TotalTasks, got.Merged)
	}
	if got.ReadyToMerge != 1 || got.NeedsChanges != 1 || got.PendingReview != 0 {
		t.Errorf("buckets = rtm %d nc %d pr %d, want 1/1/0 (priority)", got.ReadyToMerge, got.NeedsChanges, got.PendingReview)
	}
	if got.HardCount != 1 || got.ExpertCount != 1 || got.MediumCount != 1 {
		t.Errorf("complexity = %d/%d/%d, want 1/1/1", got.HardCount, got.ExpertCount, got.MediumCount)
	}
	if got.TotalRework != 3 {
		t.Errorf("TotalRework = %d, want 3", got.TotalRework)
	}

	// Counters fully recompute: removing the underlying rows zeroes them.
	gdb.Where("github_id IN ?", []int64{2, 3}).Delete(&models.PullRequest{})
	if err := RecomputeDomains(gdb); err != nil {
		t.Fatalf("RecomputeDomains() second pass: %v", err)
	}
	gdb.First(&got, domain.ID)
	if got.TotalTasks != 1 || got.NeedsChanges != 0 {
		t.Errorf("after delete total/nc = %d/%d, want 1/0", got.TotalTasks, got.NeedsChanges)
	}
}

func TestRecomputeInterfaces(t *testing.T) {
	gdb := testDB(t)
	domain := models.Domain{DomainName: "finance", IsActive: true}
	if err := gdb.Create(&domain).Error; err != nil {
		t.Fatalf("seed domain: %v", err)
	}
	iface := models.Interface{DomainID: domain.ID, InterfaceNum: 2, IsActive: true}
	if err := gdb.Create(&iface).Error; err != nil {
		t.Fatalf("seed interface: %v", err)
	}

	week1 := time.Date(2026, 8, 17, 12, 0, 0, 0, time.UTC) // ISO 2026-W34
	week2 := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC) // ISO 2026-W35

	seedPR(t, gdb, models.PullRequest{
		GithubID: 1, Number: 1, Title: "t", State: "closed", Merged: true,
		InterfaceID: &iface.ID, Complexity: "hard", CreatedAt: week1,
	})
	seedPR(t, gdb, models.PullRequest{
		GithubID: 2, Number: 2, Title: "t", State: "open",
		InterfaceID: &iface.ID, Complexity: "hard", CreatedAt: week2,
	})
	seedPR(t, gdb, models.PullRequest{
		GithubID: 3, Number: 3, Title: "t", State: "open",
		InterfaceID: &iface.ID, Complexity: "medium", CreatedAt: week2,
	})

	if err := RecomputeInterfaces(gdb); err != nil {
		t.Fatalf("RecomputeInterfaces(): %v", err)
	}

	var got models.Interface
	if err := gdb.First(&got, iface.ID).Error; err != nil {
		t.Fatalf("load interface: %v", err)
	}
	if got.TotalTasks != 3 || got.Merged != 1 {
		t.Errorf("total/merged = %d/%d, want 3/1", got.TotalTasks, got.Merged)
	}
	if got.AllHardCount != 2 || got.MergedHardCount != 1 || got.AllMediumCount != 1 || got.MergedMediumCount != 0 {
		t.Errorf("complexity split = all hard %d merged hard %d all med %d merged med %d",
			got.AllHardCount, got.MergedHardCount, got.AllMediumCount, got.MergedMediumCount)
	}
	if got.WeeklyStats == "" {
		t.Fatal("WeeklyStats empty")
	}
	for _, want := range []string{"2026-W34", "2026-W35"} {
		if !strings.Contains(got.WeeklyStats, want) {
			t.Errorf("WeeklyStats %q missing bucket %s", got.WeeklyStats, want)
		}
	}
}

func TestRecomputeAll(t *testing.T) {
	gdb := testDB(t)
	seedPR(t, gdb, models.PullRequest{
		GithubID: 1, Number: 1, Title: "t", State: "open",
		TrainerName: "alex", CreatedAt: time.Now().UTC(),
	})
	if err := RecomputeAll(context.Background(), gdb); err != nil {
		t.Fatalf("RecomputeAll(): %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := RecomputeAll(ctx, gdb); err == nil {
		t.Error("RecomputeAll(cancelled) = nil error, want context error")
	}
}

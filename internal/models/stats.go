package models

import "time"

// DeveloperStats is the per-developer rollup, recomputed wholesale from
// PullRequest rows. Unique by trainer username.
type DeveloperStats struct {
	ID                 uint   `gorm:"primaryKey;autoIncrement"`
	Username           string `gorm:"size:128;uniqueIndex;not null"`
	GithubLogin        string `gorm:"size:128;index"`
	TotalPRs           int    `gorm:"column:total_prs;default:0"`
	OpenPRs            int    `gorm:"column:open_prs;default:0"`
	MergedPRs          int    `gorm:"column:merged_prs;default:0"`
	ClosedPRs          int    `gorm:"column:closed_prs;default:0"`
	TotalRework        int    `gorm:"default:0"`
	TotalCheckFailures int    `gorm:"default:0"`
	Metrics            string `gorm:"type:json"`
	LastUpdated        time.Time
}

// ReviewerStats is the per-reviewer rollup, recomputed wholesale from
// Review rows. Unique by reviewer login.
type ReviewerStats struct {
	ID               uint   `gorm:"primaryKey;autoIncrement"`
	Username         string `gorm:"size:128;uniqueIndex;not null"`
	TotalReviews     int    `gorm:"default:0"`
	ApprovedReviews  int    `gorm:"default:0"`
	ChangesRequested int    `gorm:"default:0"`
	Commented        int    `gorm:"default:0"`
	Dismissed        int    `gorm:"default:0"`
	Metrics          string `gorm:"type:json"`
	LastUpdated      time.Time
}

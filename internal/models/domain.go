package models

import "time"

// Domain is a work domain (fund_finance, hr_payroll, smart_home, ...).
// Names are case- and separator-normalized before lookup so "Fund-Finance"
// and "fund_finance" resolve to the same row. The rollup counters are
// recomputed from PullRequest rows by the metrics package and are never
// the source of truth.
type Domain struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	DomainName  string `gorm:"size:128;uniqueIndex;not null"`
	DisplayName string `gorm:"size:128"`
	Description string `gorm:"type:text"`
	IsActive    bool   `gorm:"default:true;index"`

	// Rollups.
	TotalTasks int `gorm:"default:0"`
	Merged     int `gorm:"default:0"`

	// Status-label buckets, first matching label wins.
	Discarded               int `gorm:"default:0"`
	ReadyToMerge            int `gorm:"default:0"`
	PodLeadApproved         int `gorm:"default:0"`
	GoodTask                int `gorm:"default:0"`
	ExpertApproved          int `gorm:"default:0"`
	CalibratorReviewPending int `gorm:"default:0"`
	NeedsChanges            int `gorm:"default:0"`
	Resubmitted             int `gorm:"default:0"`
	ExpertReviewPending     int `gorm:"default:0"`
	PendingReview           int `gorm:"default:0"`

	// Complexity split (from PR titles).
	ExpertCount int `gorm:"default:0"`
	HardCount   int `gorm:"default:0"`
	MediumCount int `gorm:"default:0"`

	TotalRework int `gorm:"default:0"`

	DetailedMetrics string `gorm:"type:json"`
	CreatedAt       time.Time
	LastUpdated     time.Time

	Interfaces []Interface `gorm:"foreignKey:DomainID"`
}

// Interface is a numbered task interface within a domain, unique per
// (domain, interface number). Carries the same rollup shape as Domain plus
// merged/non-merged complexity splits and a week-bucketed time series.
type Interface struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	DomainID     uint   `gorm:"not null;uniqueIndex:idx_domain_iface"`
	InterfaceNum int    `gorm:"not null;uniqueIndex:idx_domain_iface"`
	Name         string `gorm:"size:128"`
	IsActive     bool   `gorm:"default:true"`

	TotalTasks int `gorm:"default:0"`
	Merged     int `gorm:"default:0"`

	Discarded               int `gorm:"default:0"`
	ReadyToMerge            int `gorm:"default:0"`
	PodLeadApproved         int `gorm:"default:0"`
	GoodTask                int `gorm:"default:0"`
	ExpertApproved          int `gorm:"default:0"`
	CalibratorReviewPending int `gorm:"default:0"`
	NeedsChanges            int `gorm:"default:0"`
	Resubmitted             int `gorm:"default:0"`
	ExpertReviewPending     int `gorm:"default:0"`
	PendingReview           int `gorm:"default:0"`

	Rework int `gorm:"default:0"`

	MergedExpertCount int `gorm:"default:0"`
	MergedHardCount   int `gorm:"default:0"`
	MergedMediumCount int `gorm:"default:0"`
	AllExpertCount    int `gorm:"default:0"`
	AllHardCount      int `gorm:"default:0"`
	AllMediumCount    int `gorm:"default:0"`

	WeeklyStats     string `gorm:"type:json"`
	DetailedMetrics string `gorm:"type:json"`
	CreatedAt       time.Time
	LastUpdated     time.Time

	Domain Domain `gorm:"foreignKey:DomainID"`
}

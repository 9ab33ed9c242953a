package models

import "time"

// Week is a work week extracted from PR file paths (week_<n>/... or
// week_<n>_<domain>/...). Unique by week name ("week_14").
type Week struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	WeekName    string `gorm:"size:64;uniqueIndex;not null"`
	WeekNum     int    `gorm:"index"`
	DisplayName string `gorm:"size:64"`
	IsActive    bool   `gorm:"default:true"`
	CreatedAt   time.Time
	LastUpdated time.Time
}

// Pod is a named sub-team grouping, derived from PR file paths rather than
// any GitHub API field. Unique by name.
type Pod struct {
	ID          uint    `gorm:"primaryKey;autoIncrement"`
	Name        string  `gorm:"size:128;uniqueIndex;not null"`
	DisplayName string  `gorm:"size:128"`
	PodLeadID   *uint   `gorm:"index"`
	Description string  `gorm:"type:text"`
	IsActive    bool    `gorm:"default:true"`
	CreatedAt   time.Time
	LastUpdated time.Time

	PodLead *User `gorm:"foreignKey:PodLeadID"`
}

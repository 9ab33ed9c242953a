package models

import "time"

// User roles. Users are auto-created with RoleTrainer (PR authors) or
// RoleUnset (reviewers); a hierarchy import may override the role later.
const (
	RoleTrainer    = "trainer"
	RolePodLead    = "pod_lead"
	RoleCalibrator = "calibrator"
	RoleAdmin      = "admin"
	RoleUnset      = ""
)

// User is any person referenced by a pull request: trainers, pod leads,
// calibrators, admins. Unique by GitHub login.
type User struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	GithubUsername string `gorm:"size:128;uniqueIndex;not null"`
	Name           string `gorm:"size:128"`
	Email          string `gorm:"size:128;index"`
	Role           string `gorm:"size:16;index"`
	IsActive       bool   `gorm:"default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// UserDomainAssignment records which users have touched which domains.
// Unique per (user, domain); creation is idempotent.
type UserDomainAssignment struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	UserID         uint   `gorm:"not null;uniqueIndex:idx_user_domain"`
	DomainID       uint   `gorm:"not null;uniqueIndex:idx_user_domain"`
	AssignmentType string `gorm:"size:16;default:auto"`
	AssignedAt     time.Time
	IsActive       bool `gorm:"default:true"`

	User   User   `gorm:"foreignKey:UserID"`
	Domain Domain `gorm:"foreignKey:DomainID"`
}

package models

import "time"

// Review states as reported by GitHub.
const (
	ReviewApproved         = "APPROVED"
	ReviewChangesRequested = "CHANGES_REQUESTED"
	ReviewCommented        = "COMMENTED"
	ReviewDismissed        = "DISMISSED"
)

// Review is one review event on a pull request, unique by GitHub review id.
type Review struct {
	ID            uint  `gorm:"primaryKey;autoIncrement"`
	GithubID      int64 `gorm:"uniqueIndex"`
	PullRequestID uint  `gorm:"not null;index"`
	ReviewerID    *uint `gorm:"index"`
	ReviewerLogin string `gorm:"size:128;index"`
	State         string `gorm:"size:32;not null;index"`
	SubmittedAt   *time.Time
	Body          string `gorm:"type:text"`

	PullRequest PullRequest `gorm:"foreignKey:PullRequestID"`
	Reviewer    *User       `gorm:"foreignKey:ReviewerID"`
}

// Check-run conclusions we count.
const (
	CheckSuccess = "success"
	CheckFailure = "failure"
)

// CheckRun is one CI check run, unique by GitHub check-run id. Reruns share
// a name; only the most recent run per name counts toward pass/fail totals.
type CheckRun struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	GithubID      int64  `gorm:"uniqueIndex"`
	PullRequestID uint   `gorm:"not null;index"`
	Name          string `gorm:"size:256"`
	Status        string `gorm:"size:32"`
	Conclusion    string `gorm:"size:32;index"`
	StartedAt     *time.Time
	CompletedAt   *time.Time

	PullRequest PullRequest `gorm:"foreignKey:PullRequestID"`
}

package models

import (
	"encoding/json"
	"time"
)

// Complexity labels parsed from PR titles. ActualDifficulty (derived from
// trial results) uses the same expert/hard/medium values plus the two
// sentinel classifications below.
const (
	ComplexityExpert  = "expert"
	ComplexityHard    = "hard"
	ComplexityMedium  = "medium"
	ComplexityUnknown = "unknown"

	DifficultyNotEnoughTrials = "not enough trials"
	DifficultyUnclassified    = "unclassified"
)

// PullRequest mirrors one GitHub pull request plus everything derived from
// its title, changed files, reviews, checks and task artifacts. Unique by
// GithubID; re-syncs update the existing row and rows are never deleted.
type PullRequest struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	GithubID int64  `gorm:"uniqueIndex;not null"`
	Number   int    `gorm:"not null;index"`
	Title    string `gorm:"size:512;not null"`
	State    string `gorm:"size:16;not null;index"`
	Merged   bool   `gorm:"default:false;index"`

	// Resolved entity references.
	TrainerID   *uint `gorm:"index"`
	DomainID    *uint `gorm:"index"`
	InterfaceID *uint `gorm:"index"`
	WeekID      *uint `gorm:"index"`
	PodID       *uint `gorm:"index"`

	// Quick-access fields from the title.
	TrainerName  string `gorm:"size:128;index"`
	Domain       string `gorm:"size:128;index"`
	InterfaceNum int    `gorm:"index"`
	Complexity   string `gorm:"size:16;not null;index"`
	Timestamp    string `gorm:"size:16"`

	// Week/pod from changed-file paths.
	WeekNum  int    `gorm:"index"`
	WeekName string `gorm:"size:64;index"`
	PodName  string `gorm:"size:128;index"`

	AuthorLogin string `gorm:"size:128;index"`

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
	ClosedAt  *time.Time
	MergedAt  *time.Time

	Labels string `gorm:"type:json"`

	ReviewCount   int `gorm:"default:0"`
	CommentCount  int `gorm:"default:0"`
	ReworkCount   int `gorm:"default:0"`
	CheckFailures int `gorm:"default:0"`
	CheckPasses   int `gorm:"default:0"`

	// Task execution results from artifact files (merged PRs only).
	TotalTrials       int    `gorm:"default:0"`
	PassedTrials      int    `gorm:"default:0"`
	FailedTrials      int    `gorm:"default:0"`
	ActualDifficulty  string `gorm:"size:32"`
	TaskInstruction   string `gorm:"type:text"`
	TaskDataMissing   bool   `gorm:"default:false"`
	ResultDataMissing bool   `gorm:"default:false"`

	LastSynced time.Time

	Trainer   *User      `gorm:"foreignKey:TrainerID"`
	DomainRef *Domain    `gorm:"foreignKey:DomainID"`
	Interface *Interface `gorm:"foreignKey:InterfaceID"`
	Week      *Week      `gorm:"foreignKey:WeekID"`
	Pod       *Pod       `gorm:"foreignKey:PodID"`
	Reviews   []Review   `gorm:"foreignKey:PullRequestID"`
	CheckRuns []CheckRun `gorm:"foreignKey:PullRequestID"`
}

// LabelList decodes the JSON label column. A missing or malformed column
// decodes to nil.
func (pr *PullRequest) LabelList() []string {
	if pr.Labels == "" {
		return nil
	}
	var labels []string
	if err := json.Unmarshal([]byte(pr.Labels), &labels); err != nil {
		return nil
	}
	return labels
}

// SetLabels encodes labels into the JSON label column.
func (pr *PullRequest) SetLabels(labels []string) {
	if labels == nil {
		labels = []string{}
	}
	data, err := json.Marshal(labels)
	if err != nil {
		pr.Labels = "[]"
		return
	}
	pr.Labels = string(data)
}

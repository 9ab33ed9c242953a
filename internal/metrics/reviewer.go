package metrics

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/zulandar/traindash/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type reviewerDetail struct {
	ByState      map[string]int `json:"by_state"`
	DistinctPRs  int            `json:"distinct_prs"`
	LastReviewAt *time.Time     `json:"last_review_at,omitempty"`
}

// RecomputeReviewers rebuilds the per-reviewer rollup from Review rows.
// Like the developer rollup, each reviewer commits independently.
func RecomputeReviewers(gdb *gorm.DB) error {
	var reviewers []string
	if err := gdb.Model(&models.Review{}).
		Where("reviewer_login <> ''").
		Distinct("reviewer_login").
		Pluck("reviewer_login", &reviewers).Error; err != nil {
		return fmt.Errorf("metrics: list reviewers: %w", err)
	}

	for _, reviewer := range reviewers {
		if err := recomputeReviewer(gdb, reviewer); err != nil {
			log.Printf("metrics: reviewer %s: %v", reviewer, err)
		}
	}
	return nil
}

func recomputeReviewer(gdb *gorm.DB, reviewer string) error {
	var reviews []models.Review
	if err := gdb.Where("reviewer_login = ?", reviewer).
		Find(&reviews).Error; err != nil {
		return fmt.Errorf("metrics: load reviews: %w", err)
	}
	if len(reviews) == 0 {
		return nil
	}

	stats := models.ReviewerStats{Username: reviewer}
	detail := reviewerDetail{ByState: map[string]int{}}
	prs := map[uint]bool{}

	for _, rv := range reviews {
		stats.TotalReviews++
		switch rv.State {
		case models.ReviewApproved:
			stats.ApprovedReviews++
		case models.ReviewChangesRequested:
			stats.ChangesRequested++
		case models.ReviewCommented:
			stats.Commented++
		case models.ReviewDismissed:
			stats.Dismissed++
		}
		detail.ByState[rv.State]++
		prs[rv.PullRequestID] = true
		if rv.SubmittedAt != nil {
			if detail.LastReviewAt == nil || rv.SubmittedAt.After(*detail.LastReviewAt) {
				detail.LastReviewAt = rv.SubmittedAt
			}
		}
	}
	detail.DistinctPRs = len(prs)

	data, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("metrics: marshal detail: %w", err)
	}
	stats.Metrics = string(data)
	stats.LastUpdated = time.Now().UTC()

	err = gdb.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		UpdateAll: true,
	}).Create(&stats).Error
	if err != nil {
		return fmt.Errorf("metrics: upsert reviewer %s: %w", reviewer, err)
	}
	return nil
}

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

// How many recent PRs to embed in each developer's detailed metrics.
const recentPRSample = 5

type recentPR struct {
	Number     int        `json:"number"`
	Title      string     `json:"title"`
	State      string     `json:"state"`
	Merged     bool       `json:"merged"`
	Complexity string     `json:"complexity"`
	MergedAt   *time.Time `json:"merged_at,omitempty"`
}

type developerDetail struct {
	ByDomain     map[string]int `json:"by_domain"`
	ByComplexity map[string]int `json:"by_complexity"`
	ByDifficulty map[string]int `json:"by_difficulty"`
	RecentPRs    []recentPR     `json:"recent_prs"`
}

// RecomputeDevelopers rebuilds the per-trainer rollup from PullRequest
// rows. Each trainer commits independently; a failing trainer is logged
// and skipped so the rest of the table still lands.
func RecomputeDevelopers(gdb *gorm.DB) error {
	var trainers []string
	if err := gdb.Model(&models.PullRequest{}).
		Where("trainer_name <> ''").
		Distinct("trainer_name").
		Pluck("trainer_name", &trainers).Error; err != nil {
		return fmt.Errorf("metrics: list trainers: %w", err)
	}

	for _, trainer := range trainers {
		if err := recomputeDeveloper(gdb, trainer); err != nil {
			log.Printf("metrics: developer %s: %v", trainer, err)
		}
	}
	return nil
}

func recomputeDeveloper(gdb *gorm.DB, trainer string) error {
	var prs []models.PullRequest
	if err := gdb.Where("trainer_name = ?", trainer).
		Order("created_at DESC").
		Find(&prs).Error; err != nil {
		return fmt.Errorf("metrics: load PRs: %w", err)
	}
	if len(prs) == 0 {
		return nil
	}

	stats := models.DeveloperStats{Username: trainer}
	detail := developerDetail{
		ByDomain:     map[string]int{},
		ByComplexity: map[string]int{},
		ByDifficulty: map[string]int{},
	}

	for _, pr := range prs {
		stats.TotalPRs++
		switch {
		case pr.Merged:
			stats.MergedPRs++
		case pr.State == "open":
			stats.OpenPRs++
		default:
			stats.ClosedPRs++
		}
		stats.TotalRework += pr.ReworkCount
		stats.TotalCheckFailures += pr.CheckFailures

		if pr.Domain != "" {
			detail.ByDomain[pr.Domain]++
		}
		if pr.Complexity != "" {
			detail.ByComplexity[pr.Complexity]++
		}
		if pr.ActualDifficulty != "" {
			detail.ByDifficulty[pr.ActualDifficulty]++
		}
		if len(detail.RecentPRs) < recentPRSample {
			detail.RecentPRs = append(detail.RecentPRs, recentPR{
				Number:     pr.Number,
				Title:      pr.Title,
				State:      pr.State,
				Merged:     pr.Merged,
				Complexity: pr.Complexity,
				MergedAt:   pr.MergedAt,
			})
		}
		stats.GithubLogin = pr.AuthorLogin
	}

	data, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("metrics: marshal detail: %w", err)
	}
	stats.Metrics = string(data)
	stats.LastUpdated = time.Now().UTC()

	return upsertDeveloper(gdb, &stats)
}

func upsertDeveloper(gdb *gorm.DB, stats *models.DeveloperStats) error {
	err := gdb.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		UpdateAll: true,
	}).Create(stats).Error
	if err != nil {
		return fmt.Errorf("metrics: upsert developer %s: %w", stats.Username, err)
	}
	return nil
}

package metrics

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/zulandar/traindash/internal/models"
	"gorm.io/gorm"
)

type domainDetail struct {
	ByDifficulty map[string]int `json:"by_difficulty"`
	ByState      map[string]int `json:"by_state"`
	Trainers     int            `json:"trainers"`
	Interfaces   int            `json:"interfaces"`
}

// RecomputeDomains rebuilds every domain's rollup counters from its
// PullRequest rows. Domains with no PRs keep zeroed counters rather than
// stale ones.
func RecomputeDomains(gdb *gorm.DB) error {
	var domains []models.Domain
	if err := gdb.Find(&domains).Error; err != nil {
		return fmt.Errorf("metrics: list domains: %w", err)
	}

	for i := range domains {
		if err := recomputeDomain(gdb, &domains[i]); err != nil {
			log.Printf("metrics: domain %s: %v", domains[i].DomainName, err)
		}
	}
	return nil
}

func recomputeDomain(gdb *gorm.DB, domain *models.Domain) error {
	var prs []models.PullRequest
	if err := gdb.Where("domain_id = ?", domain.ID).Find(&prs).Error; err != nil {
		return fmt.Errorf("metrics: load PRs: %w", err)
	}

	buckets := bucketCounts{}
	detail := domainDetail{
		ByDifficulty: map[string]int{},
		ByState:      map[string]int{},
	}
	trainers := map[string]bool{}
	ifaces := map[int]bool{}

	resetDomainCounters(domain)
	for _, pr := range prs {
		domain.TotalTasks++
		if pr.Merged {
			domain.Merged++
		}
		buckets.add(pr.LabelList())
		switch pr.Complexity {
		case models.ComplexityExpert:
			domain.ExpertCount++
		case models.ComplexityHard:
			domain.HardCount++
		case models.ComplexityMedium:
			domain.MediumCount++
		}
		domain.TotalRework += pr.ReworkCount

		if pr.ActualDifficulty != "" {
			detail.ByDifficulty[pr.ActualDifficulty]++
		}
		detail.ByState[prState(pr)]++
		if pr.TrainerName != "" {
			trainers[pr.TrainerName] = true
		}
		if pr.InterfaceNum > 0 {
			ifaces[pr.InterfaceNum] = true
		}
	}
	applyBuckets(domain, buckets)
	detail.Trainers = len(trainers)
	detail.Interfaces = len(ifaces)

	data, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("metrics: marshal detail: %w", err)
	}
	domain.DetailedMetrics = string(data)
	domain.LastUpdated = time.Now().UTC()

	if err := gdb.Save(domain).Error; err != nil {
		return fmt.Errorf("metrics: save domain: %w", err)
	}
	return nil
}

func resetDomainCounters(d *models.Domain) {
	d.TotalTasks = 0
	d.Merged = 0
	d.Discarded = 0
	d.ReadyToMerge = 0
	d.PodLeadApproved = 0
	d.GoodTask = 0
	d.ExpertApproved = 0
	d.CalibratorReviewPending = 0
	d.NeedsChanges = 0
	d.Resubmitted = 0
	d.ExpertReviewPending = 0
	d.PendingReview = 0
	d.ExpertCount = 0
	d.HardCount = 0
	d.MediumCount = 0
	d.TotalRework = 0
}

func applyBuckets(d *models.Domain, b bucketCounts) {
	d.Discarded = b["discarded"]
	d.ReadyToMerge = b["ready to merge"]
	d.PodLeadApproved = b["pod lead approved"]
	d.GoodTask = b["good task"]
	d.ExpertApproved = b["expert approved"]
	d.CalibratorReviewPending = b["calibrator review pending"]
	d.NeedsChanges = b["needs changes"]
	d.Resubmitted = b["resubmitted"]
	d.ExpertReviewPending = b["expert review pending"]
	d.PendingReview = b["pending review"]
}

func prState(pr models.PullRequest) string {
	if pr.Merged {
		return "merged"
	}
	return pr.State
}

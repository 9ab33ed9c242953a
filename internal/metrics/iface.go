package metrics

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/zulandar/traindash/internal/models"
	"gorm.io/gorm"
)

type weekBucket struct {
	Total  int `json:"total"`
	Merged int `json:"merged"`
}

// RecomputeInterfaces rebuilds every interface's rollup from its
// PullRequest rows, including the merged/all complexity split and the
// ISO-week time series.
func RecomputeInterfaces(gdb *gorm.DB) error {
	var ifaces []models.Interface
	if err := gdb.Find(&ifaces).Error; err != nil {
		return fmt.Errorf("metrics: list interfaces: %w", err)
	}

	for i := range ifaces {
		if err := recomputeInterface(gdb, &ifaces[i]); err != nil {
			log.Printf("metrics: interface %d/%d: %v",
				ifaces[i].DomainID, ifaces[i].InterfaceNum, err)
		}
	}
	return nil
}

func recomputeInterface(gdb *gorm.DB, iface *models.Interface) error {
	var prs []models.PullRequest
	if err := gdb.Where("interface_id = ?", iface.ID).Find(&prs).Error; err != nil {
		return fmt.Errorf("metrics: load PRs: %w", err)
	}

	buckets := bucketCounts{}
	weekly := map[string]*weekBucket{}

	resetInterfaceCounters(iface)
	for _, pr := range prs {
		iface.TotalTasks++
		if pr.Merged {
			iface.Merged++
		}
		buckets.add(pr.LabelList())
		iface.Rework += pr.ReworkCount

		switch pr.Complexity {
		case models.ComplexityExpert:
			iface.AllExpertCount++
			if pr.Merged {
				iface.MergedExpertCount++
			}
		case models.ComplexityHard:
			iface.AllHardCount++
			if pr.Merged {
				iface.MergedHardCount++
			}
		case models.ComplexityMedium:
			iface.AllMediumCount++
			if pr.Merged {
				iface.MergedMediumCount++
			}
		}

		wk := isoWeek(pr.CreatedAt)
		bucket := weekly[wk]
		if bucket == nil {
			bucket = &weekBucket{}
			weekly[wk] = bucket
		}
		bucket.Total++
		if pr.Merged {
			bucket.Merged++
		}
	}

	iface.Discarded = buckets["discarded"]
	iface.ReadyToMerge = buckets["ready to merge"]
	iface.PodLeadApproved = buckets["pod lead approved"]
	iface.GoodTask = buckets["good task"]
	iface.ExpertApproved = buckets["expert approved"]
	iface.CalibratorReviewPending = buckets["calibrator review pending"]
	iface.NeedsChanges = buckets["needs changes"]
	iface.Resubmitted = buckets["resubmitted"]
	iface.ExpertReviewPending = buckets["expert review pending"]
	iface.PendingReview = buckets["pending review"]

	data, err := json.Marshal(weekly)
	if err != nil {
		return fmt.Errorf("metrics: marshal weekly stats: %w", err)
	}
	iface.WeeklyStats = string(data)
	iface.LastUpdated = time.Now().UTC()

	if err := gdb.Save(iface).Error; err != nil {
		return fmt.Errorf("metrics: save interface: %w", err)
	}
	return nil
}

func resetInterfaceCounters(i *models.Interface) {
	i.TotalTasks = 0
	i.Merged = 0
	i.Discarded = 0
	i.ReadyToMerge = 0
	i.PodLeadApproved = 0
	i.GoodTask = 0
	i.ExpertApproved = 0
	i.CalibratorReviewPending = 0
	i.NeedsChanges = 0
	i.Resubmitted = 0
	i.ExpertReviewPending = 0
	i.PendingReview = 0
	i.Rework = 0
	i.MergedExpertCount = 0
	i.MergedHardCount = 0
	i.MergedMediumCount = 0
	i.AllExpertCount = 0
	i.AllHardCount = 0
	i.AllMediumCount = 0
}

// isoWeek formats a time as its ISO year-week bucket, e.g. "2026-W35".
func isoWeek(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

package api

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/zulandar/traindash/internal/models"
	"gorm.io/gorm"
)

func isoWeekKey(year, week int) string {
	return fmt.Sprintf("%d-W%02d", year, week)
}

// Overview is the dashboard landing rollup.
type Overview struct {
	TotalPRs   int64      `json:"total_prs"`
	OpenPRs    int64      `json:"open_prs"`
	MergedPRs  int64      `json:"merged_prs"`
	ClosedPRs  int64      `json:"closed_prs"`
	Trainers   int64      `json:"trainers"`
	Domains    int64      `json:"domains"`
	LastSync   *time.Time `json:"last_sync,omitempty"`
	SyncStatus string     `json:"sync_status,omitempty"`
}

// LoadOverview computes the landing rollup with a handful of counts.
func LoadOverview(db *gorm.DB) (Overview, error) {
	var o Overview
	prs := func(q *gorm.DB) *gorm.DB { return q.Model(&models.PullRequest{}) }

	if err := prs(db).Count(&o.TotalPRs).Error; err != nil {
		return o, err
	}
	if err := prs(db).Where("state = ? AND NOT merged", "open").Count(&o.OpenPRs).Error; err != nil {
		return o, err
	}
	if err := prs(db).Where("merged").Count(&o.MergedPRs).Error; err != nil {
		return o, err
	}
	if err := prs(db).Where("state = ? AND NOT merged", "closed").Count(&o.ClosedPRs).Error; err != nil {
		return o, err
	}
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleTrainer).Count(&o.Trainers).Error; err != nil {
		return o, err
	}
	if err := db.Model(&models.Domain{}).Count(&o.Domains).Error; err != nil {
		return o, err
	}

	var state models.SyncState
	if err := db.First(&state).Error; err == nil {
		o.LastSync = state.LastSyncTime
		o.SyncStatus = state.LastSyncStatus
	}
	return o, nil
}

// PRFilter holds the list-endpoint filter set. Zero values mean "no
// filter" for every field.
type PRFilter struct {
	Domain     string
	Trainer    string
	State      string
	Complexity string
	Difficulty string
	WeekNum    int
	Pod        string
	Limit      int
	Offset     int
}

// LoadPRs lists pull requests under a filter, newest first, plus the
// unpaged total for the filter.
func LoadPRs(db *gorm.DB, f PRFilter) ([]models.PullRequest, int64, error) {
	q := db.Model(&models.PullRequest{})
	if f.Domain != "" {
		q = q.Where("domain = ?", f.Domain)
	}
	if f.Trainer != "" {
		q = q.Where("trainer_name = ?", f.Trainer)
	}
	if f.State == "merged" {
		q = q.Where("merged")
	} else if f.State != "" {
		q = q.Where("state = ? AND NOT merged", f.State)
	}
	if f.Complexity != "" {
		q = q.Where("complexity = ?", f.Complexity)
	}
	if f.Difficulty != "" {
		q = q.Where("actual_difficulty = ?", f.Difficulty)
	}
	if f.WeekNum > 0 {
		q = q.Where("week_num = ?", f.WeekNum)
	}
	if f.Pod != "" {
		q = q.Where("pod_name = ?", f.Pod)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var prs []models.PullRequest
	err := q.Order("created_at DESC").Limit(limit).Offset(f.Offset).Find(&prs).Error
	return prs, total, err
}

// StateBucketRow is one status-label bucket with its count.
type StateBucketRow struct {
	Bucket string `json:"bucket"`
	Count  int    `json:"count"`
}

// Bucket fields in display order, matching the label priority order.
var domainBucketFields = []struct {
	name  string
	value func(*models.Domain) int
}{
	{"discarded", func(d *models.Domain) int { return d.Discarded }},
	{"ready to merge", func(d *models.Domain) int { return d.ReadyToMerge }},
	{"pod lead approved", func(d *models.Domain) int { return d.PodLeadApproved }},
	{"good task", func(d *models.Domain) int { return d.GoodTask }},
	{"expert approved", func(d *models.Domain) int { return d.ExpertApproved }},
	{"calibrator review pending", func(d *models.Domain) int { return d.CalibratorReviewPending }},
	{"needs changes", func(d *models.Domain) int { return d.NeedsChanges }},
	{"resubmitted", func(d *models.Domain) int { return d.Resubmitted }},
	{"expert review pending", func(d *models.Domain) int { return d.ExpertReviewPending }},
	{"pending review", func(d *models.Domain) int { return d.PendingReview }},
}

// LoadStateBuckets sums the status-label buckets across all domains.
func LoadStateBuckets(db *gorm.DB) ([]StateBucketRow, error) {
	var domains []models.Domain
	if err := db.Find(&domains).Error; err != nil {
		return nil, err
	}
	rows := make([]StateBucketRow, len(domainBucketFields))
	for i, f := range domainBucketFields {
		rows[i].Bucket = f.name
		for j := range domains {
			rows[i].Count += f.value(&domains[j])
		}
	}
	return rows, nil
}

// TimelineRow is one ISO-week bucket of PR activity.
type TimelineRow struct {
	Week   string `json:"week"`
	Total  int    `json:"total"`
	Merged int    `json:"merged"`
}

// LoadTimeline buckets all PRs by ISO week of creation.
func LoadTimeline(db *gorm.DB) ([]TimelineRow, error) {
	type row struct {
		CreatedAt time.Time
		Merged    bool
	}
	var prs []row
	if err := db.Model(&models.PullRequest{}).
		Select("created_at", "merged").
		Find(&prs).Error; err != nil {
		return nil, err
	}

	buckets := map[string]*TimelineRow{}
	var order []string
	for _, pr := range prs {
		year, week := pr.CreatedAt.UTC().ISOWeek()
		key := isoWeekKey(year, week)
		b := buckets[key]
		if b == nil {
			b = &TimelineRow{Week: key}
			buckets[key] = b
			order = append(order, key)
		}
		b.Total++
		if pr.Merged {
			b.Merged++
		}
	}

	sort.Strings(order)
	rows := make([]TimelineRow, len(order))
	for i, key := range order {
		rows[i] = *buckets[key]
	}
	return rows, nil
}

// DomainView is a domain row plus its decoded detail blob and interfaces.
type DomainView struct {
	models.Domain
	Detail     json.RawMessage    `json:"detail,omitempty"`
	Interfaces []models.Interface `json:"interfaces,omitempty"`
}

// LoadDomain fetches one domain with interfaces by normalized name.
func LoadDomain(db *gorm.DB, name string) (*DomainView, error) {
	var domain models.Domain
	if err := db.Where("domain_name = ?", name).First(&domain).Error; err != nil {
		return nil, err
	}
	view := &DomainView{Domain: domain}
	if domain.DetailedMetrics != "" {
		view.Detail = json.RawMessage(domain.DetailedMetrics)
	}
	if err := db.Where("domain_id = ?", domain.ID).
		Order("interface_num ASC").
		Find(&view.Interfaces).Error; err != nil {
		return nil, err
	}
	return view, nil
}

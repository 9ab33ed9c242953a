// Package metrics recomputes every aggregate table from PullRequest and
// Review rows. Recomputation is wholesale and idempotent: each pass
// derives the same aggregates from the same underlying rows, and each
// aggregate key commits independently so one bad key never poisons the
// rest.
package metrics

import "strings"

// Status-label buckets in priority order. A PR carrying several status
// labels counts in exactly one bucket, the first match below.
var bucketOrder = []string{
	"discarded",
	"ready to merge",
	"pod lead approved",
	"good task",
	"expert approved",
	"calibrator review pending",
	"needs changes",
	"resubmitted",
	"expert review pending",
	"pending review",
}

// bucketFor picks the status bucket for a label set, or "" when no status
// label is present.
func bucketFor(labels []string) string {
	normalized := make(map[string]bool, len(labels))
	for _, l := range labels {
		normalized[normalizeLabel(l)] = true
	}
	for _, bucket := range bucketOrder {
		if normalized[bucket] {
			return bucket
		}
	}
	return ""
}

func normalizeLabel(label string) string {
	l := strings.ToLower(strings.TrimSpace(label))
	l = strings.ReplaceAll(l, "-", " ")
	l = strings.ReplaceAll(l, "_", " ")
	return l
}

// bucketCounts maps bucket name to count; helper shared by the domain and
// interface rollups.
type bucketCounts map[string]int

func (b bucketCounts) add(labels []string) {
	if bucket := bucketFor(labels); bucket != "" {
		b[bucket]++
	}
}

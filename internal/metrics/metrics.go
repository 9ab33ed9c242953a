package metrics

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// RecomputeAll rebuilds every aggregate table: developers, reviewers,
// domains, interfaces. Individual keys inside each table log-and-skip;
// a table-level failure (listing the keys) aborts the rest.
func RecomputeAll(ctx context.Context, gdb *gorm.DB) error {
	steps := []struct {
		name string
		fn   func(*gorm.DB) error
	}{
		{"developers", RecomputeDevelopers},
		{"reviewers", RecomputeReviewers},
		{"domains", RecomputeDomains},
		{"interfaces", RecomputeInterfaces},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step.fn(gdb); err != nil {
			return fmt.Errorf("metrics: recompute %s: %w", step.name, err)
		}
	}
	return nil
}

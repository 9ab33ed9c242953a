package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/zulandar/traindash/internal/models"
	"gorm.io/gorm"
)

// Synchronizer turns one external PR record into persisted rows: the
// PullRequest itself, its resolved entities, nested reviews and check runs,
// and the task-artifact derived fields.
type Synchronizer struct {
	db       *gorm.DB
	src      Source
	titles   *TitleParser
	resolver *Resolver
}

// NewSynchronizer wires a Synchronizer.
func NewSynchronizer(db *gorm.DB, src Source, titles *TitleParser) *Synchronizer {
	return &Synchronizer{
		db:       db,
		src:      src,
		titles:   titles,
		resolver: NewResolver(db),
	}
}

// SyncRecord syncs one external record. Returns (nil, nil) when the record
// is ineligible (title matches no grammar): not an error, just excluded
// from sync. skipNested refreshes only scalar fields, skipping the
// expensive nested fetches for records whose nested data is already
// complete.
func (s *Synchronizer) SyncRecord(ctx context.Context, rec Record, skipNested bool) (*models.PullRequest, error) {
	parsed, ok := s.titles.Parse(rec.Title)
	if !ok {
		return nil, nil
	}

	pr, err := s.loadOrInit(rec)
	if err != nil {
		return nil, err
	}

	applyScalars(pr, rec, parsed)

	if err := s.resolveRequired(pr, rec, parsed); err != nil {
		return nil, err
	}

	// Changed-file paths serve both the week/pod parse and artifact lookup;
	// fetched at most once per record.
	var files []string
	filesFetched := false
	fetchFiles := func() ([]string, error) {
		if filesFetched {
			return files, nil
		}
		f, err := s.src.Files(ctx, rec.Number)
		if err != nil {
			return nil, fmt.Errorf("sync: files for #%d: %w", rec.Number, err)
		}
		files = f
		filesFetched = true
		return files, nil
	}

	if !skipNested {
		if pr.WeekNum == 0 || pr.PodName == "" {
			if err := s.resolveWeekPod(pr, fetchFiles); err != nil {
				return nil, err
			}
		}

		if err := s.syncReviews(ctx, pr, rec); err != nil {
			return nil, err
		}
		if err := s.syncCheckRuns(ctx, pr, rec); err != nil {
			return nil, err
		}

		if rec.Merged {
			// Artifact failures are non-fatal: flag the gap and move on.
			s.syncArtifacts(ctx, pr, rec, fetchFiles)
		}
	}

	pr.LastSynced = time.Now().UTC()
	if err := s.db.Save(pr).Error; err != nil {
		return nil, fmt.Errorf("sync: save PR #%d: %w", rec.Number, err)
	}
	return pr, nil
}

// loadOrInit fetches the existing row for this external id, or initializes
// a new one. The external id is the immutable natural key: re-syncs always
// update in place.
func (s *Synchronizer) loadOrInit(rec Record) (*models.PullRequest, error) {
	var pr models.PullRequest
	err := s.db.Where("github_id = ?", rec.ID).First(&pr).Error
	if err == nil {
		return &pr, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("sync: query PR %d: %w", rec.ID, err)
	}
	return &models.PullRequest{GithubID: rec.ID}, nil
}

func applyScalars(pr *models.PullRequest, rec Record, parsed *ParsedTitle) {
	pr.Number = rec.Number
	pr.Title = rec.Title
	pr.State = rec.State
	pr.Merged = rec.Merged
	pr.AuthorLogin = rec.Author
	pr.CreatedAt = rec.CreatedAt
	pr.UpdatedAt = rec.UpdatedAt
	pr.ClosedAt = rec.ClosedAt
	pr.MergedAt = rec.MergedAt
	pr.CommentCount = rec.Comments
	pr.SetLabels(rec.Labels)

	pr.TrainerName = parsed.Trainer
	pr.Domain = parsed.Domain
	pr.InterfaceNum = parsed.InterfaceNum
	pr.Complexity = parsed.Complexity
	pr.Timestamp = parsed.Timestamp
}

// resolveRequired resolves the trainer, domain and interface entities.
// These are required foreign keys: any failure fails the whole record sync
// (it will be retried on the next pass).
func (s *Synchronizer) resolveRequired(pr *models.PullRequest, rec Record, parsed *ParsedTitle) error {
	domain, err := s.resolver.Domain(parsed.Domain)
	if err != nil {
		return err
	}
	pr.DomainID = &domain.ID

	trainer, err := s.resolver.User(rec.Author, models.RoleTrainer)
	if err != nil {
		return err
	}
	pr.TrainerID = &trainer.ID

	if trainer.Role == models.RoleTrainer || trainer.Role == models.RolePodLead {
		if err := s.resolver.EnsureDomainAssignment(trainer.ID, domain.ID); err != nil {
			return err
		}
	}

	iface, err := s.resolver.Interface(domain.ID, parsed.InterfaceNum)
	if err != nil {
		return err
	}
	pr.InterfaceID = &iface.ID
	return nil
}

// resolveWeekPod parses week/pod from changed-file paths and sets both the
// foreign keys and the denormalized fields used for fast filtering. A PR
// whose paths match neither convention simply has no week/pod.
func (s *Synchronizer) resolveWeekPod(pr *models.PullRequest, fetchFiles func() ([]string, error)) error {
	files, err := fetchFiles()
	if err != nil {
		return err
	}
	weekNum, podName, ok := ParseWeekPod(files)
	if !ok {
		return nil
	}

	week, err := s.resolver.Week(weekNum)
	if err != nil {
		return err
	}
	pod, err := s.resolver.Pod(podName)
	if err != nil {
		return err
	}

	pr.WeekID = &week.ID
	pr.WeekNum = week.WeekNum
	pr.WeekName = week.WeekName
	pr.PodID = &pod.ID
	pr.PodName = pod.Name
	return nil
}

// syncReviews upserts every review event by external id and recomputes the
// PR's rework count: reviewer-submitted "changes requested" events only,
// never automated check failures.
func (s *Synchronizer) syncReviews(ctx context.Context, pr *models.PullRequest, rec Record) error {
	reviews, err := s.src.Reviews(ctx, rec.Number)
	if err != nil {
		return fmt.Errorf("sync: reviews for #%d: %w", rec.Number, err)
	}

	// Reviews reference the PR row; make sure it has an id.
	if pr.ID == 0 {
		if err := s.db.Save(pr).Error; err != nil {
			return fmt.Errorf("sync: save PR #%d before reviews: %w", rec.Number, err)
		}
	}

	rework := 0
	for _, rr := range reviews {
		if rr.State == models.ReviewChangesRequested {
			rework++
		}
		if err := s.upsertReview(pr.ID, rr); err != nil {
			return err
		}
	}
	pr.ReviewCount = len(reviews)
	pr.ReworkCount = rework
	return nil
}

func (s *Synchronizer) upsertReview(prID uint, rr ReviewRecord) error {
	var reviewerID *uint
	if rr.Reviewer != "" {
		reviewer, err := s.resolver.User(rr.Reviewer, models.RoleUnset)
		if err != nil {
			return err
		}
		reviewerID = &reviewer.ID
	}

	var existing models.Review
	err := s.db.Where("github_id = ?", rr.ID).First(&existing).Error
	if err == nil {
		return s.db.Model(&existing).Updates(map[string]interface{}{
			"state":       rr.State,
			"body":        rr.Body,
			"reviewer_id": reviewerID,
		}).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("sync: query review %d: %w", rr.ID, err)
	}

	review := models.Review{
		GithubID:      rr.ID,
		PullRequestID: prID,
		ReviewerID:    reviewerID,
		ReviewerLogin: rr.Reviewer,
		State:         rr.State,
		SubmittedAt:   rr.SubmittedAt,
		Body:          rr.Body,
	}
	if cerr := s.db.Create(&review).Error; cerr != nil {
		// Concurrent sync may have created it; verify and move on.
		if rerr := s.db.Where("github_id = ?", rr.ID).First(&existing).Error; rerr == nil {
			return nil
		}
		return fmt.Errorf("sync: create review %d: %w", rr.ID, cerr)
	}
	return nil
}

// syncCheckRuns upserts every check run by external id, then recomputes
// pass/fail counters over the latest run per distinct check name so
// reruns never accumulate.
func (s *Synchronizer) syncCheckRuns(ctx context.Context, pr *models.PullRequest, rec Record) error {
	if rec.HeadSHA == "" {
		return nil
	}
	checks, err := s.src.CheckRuns(ctx, rec.HeadSHA)
	if err != nil {
		return fmt.Errorf("sync: check runs for #%d: %w", rec.Number, err)
	}

	if pr.ID == 0 {
		if err := s.db.Save(pr).Error; err != nil {
			return fmt.Errorf("sync: save PR #%d before checks: %w", rec.Number, err)
		}
	}

	latest := make(map[string]CheckRecord, len(checks))
	for _, cr := range checks {
		if err := s.upsertCheckRun(pr.ID, cr); err != nil {
			return err
		}
		prev, seen := latest[cr.Name]
		if !seen || startedAfter(cr.StartedAt, prev.StartedAt) {
			latest[cr.Name] = cr
		}
	}

	failures, passes := 0, 0
	for _, cr := range latest {
		switch cr.Conclusion {
		case models.CheckFailure:
			failures++
		case models.CheckSuccess:
			passes++
		}
	}
	pr.CheckFailures = failures
	pr.CheckPasses = passes
	return nil
}

func (s *Synchronizer) upsertCheckRun(prID uint, cr CheckRecord) error {
	var existing models.CheckRun
	err := s.db.Where("github_id = ?", cr.ID).First(&existing).Error
	if err == nil {
		return s.db.Model(&existing).Updates(map[string]interface{}{
			"status":       cr.Status,
			"conclusion":   cr.Conclusion,
			"completed_at": cr.CompletedAt,
		}).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("sync: query check run %d: %w", cr.ID, err)
	}

	check := models.CheckRun{
		GithubID:      cr.ID,
		PullRequestID: prID,
		Name:          cr.Name,
		Status:        cr.Status,
		Conclusion:    cr.Conclusion,
		StartedAt:     cr.StartedAt,
		CompletedAt:   cr.CompletedAt,
	}
	if cerr := s.db.Create(&check).Error; cerr != nil {
		if rerr := s.db.Where("github_id = ?", cr.ID).First(&existing).Error; rerr == nil {
			return nil
		}
		return fmt.Errorf("sync: create check run %d: %w", cr.ID, cerr)
	}
	return nil
}

func startedAfter(a, b *time.Time) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return a.After(*b)
}

// syncArtifacts locates and parses the task.json and result.json artifacts
// of a merged PR, deriving trial counts and the actual-difficulty
// classification. Every failure here is non-fatal: the corresponding
// data-missing flag is set and the record sync succeeds anyway.
func (s *Synchronizer) syncArtifacts(ctx context.Context, pr *models.PullRequest, rec Record, fetchFiles func() ([]string, error)) {
	files, err := fetchFiles()
	if err != nil {
		log.Printf("sync: artifact file listing for #%d: %v", rec.Number, err)
		pr.TaskDataMissing = true
		pr.ResultDataMissing = true
		return
	}

	pr.TaskDataMissing = true
	if taskPath, ok := FindArtifact(files, pr.Timestamp, "task.json"); ok {
		if data, err := s.fetchContent(ctx, taskPath, rec); err != nil {
			log.Printf("sync: fetch %s for #%d: %v", taskPath, rec.Number, err)
		} else if instruction, ok := ParseInstruction(data); ok {
			pr.TaskInstruction = instruction
			pr.TaskDataMissing = false
		}
	}

	results := s.loadResults(ctx, pr, rec, files)
	if results == nil {
		pr.ResultDataMissing = true
		return
	}
	pr.ResultDataMissing = false
	pr.TotalTrials = results.TotalTrials
	pr.PassedTrials = results.Passed
	pr.FailedTrials = results.Failed
	pr.ActualDifficulty = ClassifyDifficulty(results.Passed, results.TotalTrials)
}

// loadResults tries the results artifact first, then falls back to the
// bot-authored results comment.
func (s *Synchronizer) loadResults(ctx context.Context, pr *models.PullRequest, rec Record, files []string) *TaskResults {
	if resultPath, ok := FindArtifact(files, pr.Timestamp, "result.json", "results.json"); ok {
		if data, err := s.fetchContent(ctx, resultPath, rec); err != nil {
			log.Printf("sync: fetch %s for #%d: %v", resultPath, rec.Number, err)
		} else if results, ok := ParseResults(data); ok {
			return results
		}
	}

	comments, err := s.src.Comments(ctx, rec.Number)
	if err != nil {
		log.Printf("sync: comments for #%d: %v", rec.Number, err)
		return nil
	}
	for _, c := range comments {
		if results, ok := ParseBotResults(c.Body); ok {
			return results
		}
	}
	return nil
}

// fetchContent reads a repository file from the default branch, falling
// back to the merge commit: a just-merged PR's files may briefly 404 on
// the default branch until propagated.
func (s *Synchronizer) fetchContent(ctx context.Context, path string, rec Record) ([]byte, error) {
	data, err := s.src.FileContent(ctx, path, "")
	if err == nil {
		return data, nil
	}
	if rec.MergeSHA != "" {
		if data, ferr := s.src.FileContent(ctx, path, rec.MergeSHA); ferr == nil {
			return data, nil
		}
	}
	return nil, err
}

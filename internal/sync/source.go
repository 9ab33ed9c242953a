package sync

import (
	"context"
	"time"
)

// Record is one pull request as seen from the source system. Read-only
// from this system's perspective; the source is the single source of truth
// for every field here.
type Record struct {
	ID        int64
	Number    int
	Title     string
	State     string // "open" or "closed"
	Merged    bool
	Author    string
	Labels    []string
	CreatedAt time.Time
	UpdatedAt time.Time
	ClosedAt  *time.Time
	MergedAt  *time.Time
	HeadSHA   string
	MergeSHA  string
	Comments  int
}

// ReviewRecord is one review event on a source pull request.
type ReviewRecord struct {
	ID          int64
	Reviewer    string
	State       string
	SubmittedAt *time.Time
	Body        string
}

// CheckRecord is one check run on a source pull request's head commit.
type CheckRecord struct {
	ID          int64
	Name        string
	Status      string
	Conclusion  string
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// CommentRecord is one issue comment on a source pull request.
type CommentRecord struct {
	Author string
	Body   string
}

// Source is the external pull-request provider the sync engine reads from.
// Implemented by githubapi.Client; tests substitute an in-memory fake.
type Source interface {
	// ListUpdated streams pull requests in the source's last-updated
	// descending order, invoking fn for each. fn returns false to stop
	// early (the checkpoint early-exit).
	ListUpdated(ctx context.Context, state string, fn func(Record) (bool, error)) error

	// Files returns the changed-file paths of a pull request.
	Files(ctx context.Context, number int) ([]string, error)

	// Reviews returns all review events of a pull request.
	Reviews(ctx context.Context, number int) ([]ReviewRecord, error)

	// CheckRuns returns the check runs for a commit SHA.
	CheckRuns(ctx context.Context, sha string) ([]CheckRecord, error)

	// Comments returns the issue comments of a pull request.
	Comments(ctx context.Context, number int) ([]CommentRecord, error)

	// FileContent fetches a repository file at ref (default branch when
	// ref is empty). A just-merged PR's files may briefly 404 on the
	// default branch; callers retry with the merge-commit SHA.
	FileContent(ctx context.Context, path, ref string) ([]byte, error)

	// Record fetches a single pull request by number.
	Record(ctx context.Context, number int) (Record, error)
}

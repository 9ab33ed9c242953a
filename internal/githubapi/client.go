// Package githubapi adapts the GitHub REST API to the sync.Source
// interface. All calls go through a shared rate limiter so background
// syncs stay inside the API budget regardless of worker count.
package githubapi

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v68/github"
	"github.com/zulandar/traindash/internal/sync"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	perPage = 100

	// Authenticated REST quota is 5000 req/h; ~1.3 req/s with a small
	// burst keeps sustained syncs under it with headroom for the API.
	requestsPerSecond = 1.2
	requestBurst      = 5
)

// Client reads pull-request data for one repository.
type Client struct {
	gh      *github.Client
	owner   string
	repo    string
	limiter *rate.Limiter
}

var _ sync.Source = (*Client)(nil)

// New builds a Client for owner/repo authenticated with token.
func New(token, owner, repo string) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(context.Background(), src)
	return &Client{
		gh:      github.NewClient(httpClient),
		owner:   owner,
		repo:    repo,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst),
	}
}

func (c *Client) wait(ctx context.Context) error {
	return c.limiter.Wait(ctx)
}

// ListUpdated streams pull requests sorted by last update, newest first,
// invoking fn per record until fn returns false or pages run out.
func (c *Client) ListUpdated(ctx context.Context, state string, fn func(sync.Record) (bool, error)) error {
	opts := &github.PullRequestListOptions{
		State:       state,
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: perPage},
	}
	for {
		if err := c.wait(ctx); err != nil {
			return err
		}
		prs, resp, err := c.gh.PullRequests.List(ctx, c.owner, c.repo, opts)
		if err != nil {
			return fmt.Errorf("githubapi: list %s PRs: %w", state, err)
		}
		for _, pr := range prs {
			cont, err := fn(toRecord(pr))
			if err != nil {
				return err
			}
			if !cont {
				return nil
			}
		}
		if resp.NextPage == 0 {
			return nil
		}
		opts.Page = resp.NextPage
	}
}

// Record fetches a single pull request by number.
func (c *Client) Record(ctx context.Context, number int) (sync.Record, error) {
	if err := c.wait(ctx); err != nil {
		return sync.Record{}, err
	}
	pr, _, err := c.gh.PullRequests.Get(ctx, c.owner, c.repo, number)
	if err != nil {
		return sync.Record{}, fmt.Errorf("githubapi: get PR #%d: %w", number, err)
	}
	return toRecord(pr), nil
}

// Files returns every changed-file path of a pull request.
func (c *Client) Files(ctx context.Context, number int) ([]string, error) {
	var paths []string
	opts := &github.ListOptions{PerPage: perPage}
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		files, resp, err := c.gh.PullRequests.ListFiles(ctx, c.owner, c.repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("githubapi: list files #%d: %w", number, err)
		}
		for _, f := range files {
			paths = append(paths, f.GetFilename())
		}
		if resp.NextPage == 0 {
			return paths, nil
		}
		opts.Page = resp.NextPage
	}
}

// Reviews returns every review event on a pull request.
func (c *Client) Reviews(ctx context.Context, number int) ([]sync.ReviewRecord, error) {
	var out []sync.ReviewRecord
	opts := &github.ListOptions{PerPage: perPage}
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		reviews, resp, err := c.gh.PullRequests.ListReviews(ctx, c.owner, c.repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("githubapi: list reviews #%d: %w", number, err)
		}
		for _, rv := range reviews {
			out = append(out, sync.ReviewRecord{
				ID:          rv.GetID(),
				Reviewer:    rv.GetUser().GetLogin(),
				State:       rv.GetState(),
				SubmittedAt: timePtr(rv.SubmittedAt),
				Body:        rv.GetBody(),
			})
		}
		if resp.NextPage == 0 {
			return out, nil
		}
		opts.Page = resp.NextPage
	}
}

// CheckRuns returns every check run for a commit SHA.
func (c *Client) CheckRuns(ctx context.Context, sha string) ([]sync.CheckRecord, error) {
	var out []sync.CheckRecord
	opts := &github.ListCheckRunsOptions{
		ListOptions: github.ListOptions{PerPage: perPage},
	}
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		result, resp, err := c.gh.Checks.ListCheckRunsForRef(ctx, c.owner, c.repo, sha, opts)
		if err != nil {
			return nil, fmt.Errorf("githubapi: list check runs %s: %w", sha, err)
		}
		for _, cr := range result.CheckRuns {
			out = append(out, sync.CheckRecord{
				ID:          cr.GetID(),
				Name:        cr.GetName(),
				Status:      cr.GetStatus(),
				Conclusion:  cr.GetConclusion(),
				StartedAt:   timePtr(cr.StartedAt),
				CompletedAt: timePtr(cr.CompletedAt),
			})
		}
		if resp.NextPage == 0 {
			return out, nil
		}
		opts.Page = resp.NextPage
	}
}

// Comments returns the issue comments of a pull request.
func (c *Client) Comments(ctx context.Context, number int) ([]sync.CommentRecord, error) {
	var out []sync.CommentRecord
	opts := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: perPage},
	}
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		comments, resp, err := c.gh.Issues.ListComments(ctx, c.owner, c.repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("githubapi: list comments #%d: %w", number, err)
		}
		for _, cm := range comments {
			out = append(out, sync.CommentRecord{
				Author: cm.GetUser().GetLogin(),
				Body:   cm.GetBody(),
			})
		}
		if resp.NextPage == 0 {
			return out, nil
		}
		opts.Page = resp.NextPage
	}
}

// FileContent fetches one repository file, at ref when given, from the
// default branch otherwise.
func (c *Client) FileContent(ctx context.Context, path, ref string) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	var opts *github.RepositoryContentGetOptions
	if ref != "" {
		opts = &github.RepositoryContentGetOptions{Ref: ref}
	}
	file, _, _, err := c.gh.Repositories.GetContents(ctx, c.owner, c.repo, path, opts)
	if err != nil {
		return nil, fmt.Errorf("githubapi: get contents %s: %w", path, err)
	}
	if file == nil {
		return nil, fmt.Errorf("githubapi: %s is a directory", path)
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("githubapi: decode %s: %w", path, err)
	}
	return []byte(content), nil
}

func toRecord(pr *github.PullRequest) sync.Record {
	labels := make([]string, 0, len(pr.Labels))
	for _, l := range pr.Labels {
		labels = append(labels, l.GetName())
	}
	return sync.Record{
		ID:        pr.GetID(),
		Number:    pr.GetNumber(),
		Title:     pr.GetTitle(),
		State:     pr.GetState(),
		Merged:    pr.MergedAt != nil,
		Author:    pr.GetUser().GetLogin(),
		Labels:    labels,
		CreatedAt: pr.GetCreatedAt().Time,
		UpdatedAt: pr.GetUpdatedAt().Time,
		ClosedAt:  timePtr(pr.ClosedAt),
		MergedAt:  timePtr(pr.MergedAt),
		HeadSHA:   pr.GetHead().GetSHA(),
		MergeSHA:  pr.GetMergeCommitSHA(),
		Comments:  pr.GetComments(),
	}
}

func timePtr(ts *github.Timestamp) *time.Time {
	if ts == nil {
		return nil
	}
	t := ts.Time
	return &t
}

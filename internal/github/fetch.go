package github

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/opendxi/backend/internal/apperrors"
	"github.com/opendxi/backend/internal/types"
)

// FetchWindow retrieves all pull requests (with embedded reviews) and
// default-branch commits for repositories active in the window. It returns
// raw collections only; aggregation happens downstream. Any error aborts
// the whole fetch so a partial payload is never produced.
func (c *Client) FetchWindow(ctx context.Context, window types.SprintWindow) (types.SprintData, error) {
	if c.org == "" {
		return types.SprintData{}, apperrors.NewConfigurationError("GITHUB_ORG is not configured")
	}
	if c.token == "" {
		return types.SprintData{}, apperrors.NewConfigurationError("GITHUB_TOKEN is not configured")
	}

	started := time.Now()

	repos, err := c.fetchRepositories(ctx)
	if err != nil {
		return types.SprintData{}, err
	}

	active := activeRepositories(repos, window.StartDate)
	slog.Info("fetched repository list",
		"org", c.org,
		"total", len(repos),
		"active", len(active),
	)

	var data types.SprintData
	for _, repo := range active {
		prs, err := c.fetchPullRequests(ctx, repo.Name, window.StartDate)
		if err != nil {
			return types.SprintData{}, err
		}
		data.PullRequests = append(data.PullRequests, prs...)

		commits, err := c.fetchCommits(ctx, repo.Name, window.StartDate)
		if err != nil {
			return types.SprintData{}, err
		}
		data.Commits = append(data.Commits, commits...)
	}

	slog.Info("sprint fetch complete",
		"org", c.org,
		"start", window.StartDate,
		"end", window.EndDate,
		"pull_requests", len(data.PullRequests),
		"commits", len(data.Commits),
		"elapsed_ms", time.Since(started).Milliseconds(),
	)
	return data, nil
}

// activeRepositories keeps repositories that are not archived, not forks,
// and were pushed to on or after the window start.
func activeRepositories(repos []types.Repository, startDate string) []types.Repository {
	active := make([]types.Repository, 0, len(repos))
	for _, r := range repos {
		if r.IsArchived || r.IsFork {
			continue
		}
		if types.DateOnly(r.PushedAt) < startDate {
			continue
		}
		active = append(active, r)
	}
	return active
}

// fetchRepositories pages through the organization's repository list. The
// page bound protects against runaway traffic on very large organizations:
// once exhausted the fetch proceeds with what it has.
func (c *Client) fetchRepositories(ctx context.Context) ([]types.Repository, error) {
	var repos []types.Repository
	cursor := ""

	for page := 0; page < c.maxPages; page++ {
		started := time.Now()
		raw, err := c.doGraphQL(ctx, reposQuery, c.pageVariables(map[string]any{"org": c.org}, cursor))
		if err != nil {
			return nil, err
		}

		var resp reposResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, apperrors.NewGitHubAPIError("malformed repository response", err)
		}

		conn := resp.Organization.Repositories
		for _, node := range conn.Nodes {
			repos = append(repos, types.Repository{
				Name:       node.Name,
				IsArchived: node.IsArchived,
				IsFork:     node.IsFork,
				PushedAt:   node.PushedAt,
			})
		}
		logPageProgress("repositories", page, len(conn.Nodes), time.Since(started))

		if !conn.PageInfo.HasNextPage {
			break
		}
		cursor = conn.PageInfo.EndCursor
	}
	return repos, nil
}

// fetchPullRequests pages through a repository's pull requests, keeping
// those created on or after the window start. Reviews arrive embedded in
// the same response.
func (c *Client) fetchPullRequests(ctx context.Context, repo, startDate string) ([]types.PullRequest, error) {
	var prs []types.PullRequest
	cursor := ""

	for page := 0; page < c.maxPages; page++ {
		started := time.Now()
		raw, err := c.doGraphQL(ctx, pullRequestsQuery,
			c.pageVariables(map[string]any{"owner": c.org, "repo": repo}, cursor))
		if err != nil {
			return nil, err
		}

		var resp pullRequestsResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, apperrors.NewGitHubAPIError("malformed pull request response", err)
		}

		conn := resp.Repository.PullRequests
		for _, node := range conn.Nodes {
			if types.DateOnly(node.CreatedAt) < startDate {
				continue
			}
			prs = append(prs, convertPullRequest(node, repo))
		}
		logPageProgress("pull_requests", page, len(conn.Nodes), time.Since(started))

		if !conn.PageInfo.HasNextPage {
			break
		}
		cursor = conn.PageInfo.EndCursor
	}
	return prs, nil
}

// fetchCommits pages through default-branch history since the window
// start. Repositories without a default branch yield nothing.
func (c *Client) fetchCommits(ctx context.Context, repo, startDate string) ([]types.Commit, error) {
	var commits []types.Commit
	cursor := ""
	since := startDate + "T00:00:00Z"

	for page := 0; page < c.maxPages; page++ {
		started := time.Now()
		raw, err := c.doGraphQL(ctx, commitsQuery,
			c.pageVariables(map[string]any{"owner": c.org, "repo": repo, "since": since}, cursor))
		if err != nil {
			return nil, err
		}

		var resp commitsResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, apperrors.NewGitHubAPIError("malformed commit response", err)
		}

		if resp.Repository.DefaultBranchRef == nil {
			break
		}

		conn := resp.Repository.DefaultBranchRef.Target.History
		for _, node := range conn.Nodes {
			commit := types.Commit{
				AuthorName: node.Author.Name,
				Date:       node.Author.Date,
				Additions:  node.Additions,
				Deletions:  node.Deletions,
			}
			if node.Author.User != nil {
				commit.AuthorLogin = node.Author.User.Login
			}
			commits = append(commits, commit)
		}
		logPageProgress("commits", page, len(conn.Nodes), time.Since(started))

		if !conn.PageInfo.HasNextPage {
			break
		}
		cursor = conn.PageInfo.EndCursor
	}
	return commits, nil
}

func (c *Client) pageVariables(variables map[string]any, cursor string) map[string]any {
	if cursor != "" {
		variables["cursor"] = cursor
	}
	return variables
}

func convertPullRequest(node prNode, repo string) types.PullRequest {
	pr := types.PullRequest{
		Number:    node.Number,
		Repo:      repo,
		CreatedAt: node.CreatedAt,
		MergedAt:  node.MergedAt,
		State:     node.State,
		Additions: node.Additions,
		Deletions: node.Deletions,
	}
	if node.Author != nil {
		pr.AuthorLogin = node.Author.Login
	}
	for _, review := range node.Reviews.Nodes {
		converted := types.Review{
			SubmittedAt: review.SubmittedAt,
			State:       review.State,
		}
		if review.Author != nil {
			converted.AuthorLogin = review.Author.Login
		}
		pr.Reviews = append(pr.Reviews, converted)
	}
	return pr
}

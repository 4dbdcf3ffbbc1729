package types

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date format used for sprint boundaries and
// daily activity keys.
const DateLayout = "2006-01-02"

// DateOnly extracts the YYYY-MM-DD prefix from an RFC 3339 timestamp. All
// timestamp-to-date conversion goes through here so the slicing lives in
// one place.
func DateOnly(timestamp string) string {
	if len(timestamp) < len(DateLayout) {
		return ""
	}
	return timestamp[:len(DateLayout)]
}

// SprintWindow identifies one sprint cache entry by its inclusive
// calendar-date range.
type SprintWindow struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// NewSprintWindow validates and builds a window. The end date must be
// strictly after the start date.
func NewSprintWindow(startDate, endDate string) (SprintWindow, error) {
	start, err := time.Parse(DateLayout, startDate)
	if err != nil {
		return SprintWindow{}, fmt.Errorf("invalid start date %q: %w", startDate, err)
	}
	end, err := time.Parse(DateLayout, endDate)
	if err != nil {
		return SprintWindow{}, fmt.Errorf("invalid end date %q: %w", endDate, err)
	}
	if !end.After(start) {
		return SprintWindow{}, fmt.Errorf("end date %s must be after start date %s", endDate, startDate)
	}
	return SprintWindow{StartDate: startDate, EndDate: endDate}, nil
}

// Days returns every calendar date in the closed interval, in order.
func (w SprintWindow) Days() []string {
	start, _ := time.Parse(DateLayout, w.StartDate)
	end, _ := time.Parse(DateLayout, w.EndDate)

	var days []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DateLayout))
	}
	return days
}

// DimensionScores holds the five normalized DXI sub-scores (0-100).
type DimensionScores struct {
	ReviewSpeed     float64 `json:"review_speed"`
	CycleTime       float64 `json:"cycle_time"`
	PRSize          float64 `json:"pr_size"`
	ReviewCoverage  float64 `json:"review_coverage"`
	CommitFrequency float64 `json:"commit_frequency"`
}

// DeveloperMetrics is one developer's activity for a sprint, with derived
// dimension scores and composite DXI score. The nullable averages stay nil
// when no samples were observed.
type DeveloperMetrics struct {
	Developer          string          `json:"developer"`
	GitHubLogin        string          `json:"github_login"`
	Commits            int             `json:"commits"`
	PRsOpened          int             `json:"prs_opened"`
	PRsMerged          int             `json:"prs_merged"`
	ReviewsGiven       int             `json:"reviews_given"`
	LinesAdded         int             `json:"lines_added"`
	LinesDeleted       int             `json:"lines_deleted"`
	AvgReviewTimeHours *float64        `json:"avg_review_time_hours"`
	AvgCycleTimeHours  *float64        `json:"avg_cycle_time_hours"`
	DimensionScores    DimensionScores `json:"dimension_scores"`
	DXIScore           float64         `json:"dxi_score"`
}

// DailyActivity is one calendar day's event counts.
type DailyActivity struct {
	Date         string `json:"date"`
	Commits      int    `json:"commits"`
	PRsOpened    int    `json:"prs_opened"`
	PRsMerged    int    `json:"prs_merged"`
	ReviewsGiven int    `json:"reviews_given"`
}

// Summary aggregates team totals over the developer list.
type Summary struct {
	TotalCommits   int     `json:"total_commits"`
	TotalPRs       int     `json:"total_prs"`
	TotalMerged    int     `json:"total_merged"`
	TotalReviews   int     `json:"total_reviews"`
	DeveloperCount int     `json:"developer_count"`
	AvgDXIScore    float64 `json:"avg_dxi_score"`
}

// Payload is the complete derived metrics document for one sprint window.
// All four parts are computed together; summary and team scores are always
// consistent with the developer list.
type Payload struct {
	Developers          []DeveloperMetrics `json:"developers"`
	DailyActivity       []DailyActivity    `json:"daily_activity"`
	Summary             Summary            `json:"summary"`
	TeamDimensionScores DimensionScores    `json:"team_dimension_scores"`
}

// Repository is raw repository metadata from the source API.
type Repository struct {
	Name       string `json:"name"`
	IsArchived bool   `json:"isArchived"`
	IsFork     bool   `json:"isFork"`
	PushedAt   string `json:"pushedAt"`
}

// Review is a raw pull-request review event. SubmittedAt is an RFC 3339
// timestamp as returned by the source API.
type Review struct {
	AuthorLogin string `json:"author_login"`
	SubmittedAt string `json:"submitted_at"`
	State       string `json:"state"`
}

// PullRequest is a raw pull request with its reviews embedded.
type PullRequest struct {
	Number      int      `json:"number"`
	Repo        string   `json:"repo"`
	AuthorLogin string   `json:"author_login"`
	CreatedAt   string   `json:"created_at"`
	MergedAt    string   `json:"merged_at,omitempty"`
	State       string   `json:"state"`
	Additions   int      `json:"additions"`
	Deletions   int      `json:"deletions"`
	Reviews     []Review `json:"reviews"`
}

// Commit is a raw default-branch commit. AuthorLogin is empty when the
// commit author has no linked account; AuthorName carries the git name.
type Commit struct {
	AuthorLogin string `json:"author_login"`
	AuthorName  string `json:"author_name"`
	Date        string `json:"date"`
	Additions   int    `json:"additions"`
	Deletions   int    `json:"deletions"`
}

// SprintData is the raw event set a fetch produces for one window.
type SprintData struct {
	PullRequests []PullRequest `json:"pull_requests"`
	Commits      []Commit      `json:"commits"`
}

// User is the result of a point lookup by login.
type User struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

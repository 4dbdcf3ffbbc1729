// Package analysis folds raw repository events into per-developer and
// per-day counters and scores them against the DXI thresholds.
package analysis

import (
	"sort"

	"github.com/opendxi/backend/internal/identity"
	"github.com/opendxi/backend/internal/types"
)

// DeveloperStats accumulates one developer's raw counters. Cycle-time and
// review-turnaround samples stay as raw slices; averaging happens in the
// scorer.
type DeveloperStats struct {
	Commits      int
	PRsOpened    int
	PRsMerged    int
	ReviewsGiven int
	LinesAdded   int
	LinesDeleted int
	ReviewTimes  []float64
	CycleTimes   []float64
}

// DailyStats accumulates one calendar day's event counts.
type DailyStats struct {
	Commits      int
	PRsOpened    int
	PRsMerged    int
	ReviewsGiven int
}

// Accumulator collects sprint events. The zero state is explicit: every
// day of the window is present from construction, and unseen developers
// start from zeroed counters.
type Accumulator struct {
	window     types.SprintWindow
	developers map[string]*DeveloperStats
	daily      map[string]*DailyStats
}

// NewAccumulator builds an empty accumulator for the window with one
// zeroed daily entry per calendar day.
func NewAccumulator(window types.SprintWindow) *Accumulator {
	daily := make(map[string]*DailyStats)
	for _, day := range window.Days() {
		daily[day] = &DailyStats{}
	}
	return &Accumulator{
		window:     window,
		developers: make(map[string]*DeveloperStats),
		daily:      daily,
	}
}

func (a *Accumulator) developer(login string) *DeveloperStats {
	stats, ok := a.developers[login]
	if !ok {
		stats = &DeveloperStats{}
		a.developers[login] = stats
	}
	return stats
}

// inWindow checks the event's own date against the authoritative sprint
// boundary. The fetcher's window is advisory only.
func (a *Accumulator) inWindow(date string) bool {
	return date >= a.window.StartDate && date <= a.window.EndDate
}

// AddCommit records one default-branch commit.
func (a *Accumulator) AddCommit(c types.Commit) {
	login := c.AuthorLogin
	if login == "" {
		login = c.AuthorName
	}
	if identity.IsBot(login) {
		return
	}

	date := types.DateOnly(c.Date)
	if !a.inWindow(date) {
		return
	}

	dev := a.developer(login)
	dev.Commits++
	dev.LinesAdded += c.Additions
	dev.LinesDeleted += c.Deletions
	a.daily[date].Commits++
}

// AddPullRequest records one pull request together with its embedded
// reviews.
func (a *Accumulator) AddPullRequest(pr types.PullRequest) {
	createdDate := types.DateOnly(pr.CreatedAt)
	if a.inWindow(createdDate) && !identity.IsBot(pr.AuthorLogin) {
		dev := a.developer(pr.AuthorLogin)
		dev.PRsOpened++
		dev.LinesAdded += pr.Additions
		dev.LinesDeleted += pr.Deletions
		a.daily[createdDate].PRsOpened++

		if pr.MergedAt != "" {
			mergedDate := types.DateOnly(pr.MergedAt)
			if a.inWindow(mergedDate) {
				dev.PRsMerged++
				a.daily[mergedDate].PRsMerged++

				if hours, ok := hoursBetween(pr.CreatedAt, pr.MergedAt); ok {
					dev.CycleTimes = append(dev.CycleTimes, hours)
				}
			}
		}
	}

	for _, review := range pr.Reviews {
		a.addReview(pr, review)
	}
}

func (a *Accumulator) addReview(pr types.PullRequest, review types.Review) {
	if identity.IsBot(review.AuthorLogin) || review.SubmittedAt == "" {
		return
	}

	date := types.DateOnly(review.SubmittedAt)
	if !a.inWindow(date) {
		return
	}

	dev := a.developer(review.AuthorLogin)
	dev.ReviewsGiven++
	a.daily[date].ReviewsGiven++

	// Samples at or below zero mean the review predates the PR, which only
	// happens under clock skew; discard them.
	if hours, ok := hoursBetween(pr.CreatedAt, review.SubmittedAt); ok && hours > 0 {
		dev.ReviewTimes = append(dev.ReviewTimes, hours)
	}
}

// Developers returns the per-developer raw stats keyed by login.
func (a *Accumulator) Developers() map[string]*DeveloperStats {
	return a.developers
}

// DailyActivity returns one entry per calendar day of the window, in date
// order, zero-filled for days without events.
func (a *Accumulator) DailyActivity() []types.DailyActivity {
	dates := make([]string, 0, len(a.daily))
	for date := range a.daily {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	out := make([]types.DailyActivity, 0, len(dates))
	for _, date := range dates {
		stats := a.daily[date]
		out = append(out, types.DailyActivity{
			Date:         date,
			Commits:      stats.Commits,
			PRsOpened:    stats.PRsOpened,
			PRsMerged:    stats.PRsMerged,
			ReviewsGiven: stats.ReviewsGiven,
		})
	}
	return out
}

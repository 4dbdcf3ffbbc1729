package sprint

import (
	"context"
	"fmt"

	"github.com/opendxi/backend/internal/apperrors"
	"github.com/opendxi/backend/internal/types"
)

// TeamHistoryEntry is one sprint's team aggregate for trend charts.
type TeamHistoryEntry struct {
	SprintLabel     string                `json:"sprint_label"`
	StartDate       string                `json:"start_date"`
	EndDate         string                `json:"end_date"`
	AvgDXIScore     float64               `json:"avg_dxi_score"`
	DimensionScores types.DimensionScores `json:"dimension_scores"`
	DeveloperCount  int                   `json:"developer_count"`
	TotalCommits    int                   `json:"total_commits"`
	TotalPRs        int                   `json:"total_prs"`
}

// DeveloperHistoryEntry is one developer's metrics for one sprint.
type DeveloperHistoryEntry struct {
	SprintLabel        string                `json:"sprint_label"`
	StartDate          string                `json:"start_date"`
	EndDate            string                `json:"end_date"`
	DXIScore           float64               `json:"dxi_score"`
	DimensionScores    types.DimensionScores `json:"dimension_scores"`
	Commits            int                   `json:"commits"`
	PRsOpened          int                   `json:"prs_opened"`
	PRsMerged          int                   `json:"prs_merged"`
	ReviewsGiven       int                   `json:"reviews_given"`
	LinesAdded         int                   `json:"lines_added"`
	LinesDeleted       int                   `json:"lines_deleted"`
	AvgReviewTimeHours *float64              `json:"avg_review_time_hours"`
	AvgCycleTimeHours  *float64              `json:"avg_cycle_time_hours"`
}

// DeveloperHistory pairs a developer's sprint-by-sprint metrics with the
// team's, for comparison in the same chart.
type DeveloperHistory struct {
	Developer   string                  `json:"developer"`
	Sprints     []DeveloperHistoryEntry `json:"sprints"`
	TeamHistory []TeamHistoryEntry      `json:"team_history"`
}

// TeamHistory assembles team aggregates for the last count sprints,
// oldest first. Reads go through the loader without force, so only
// never-populated sprints trigger a fetch.
func (l *Loader) TeamHistory(ctx context.Context, cal *Calendar, count int) ([]TeamHistoryEntry, error) {
	entries := make([]TeamHistoryEntry, 0, count)
	for i := 0; i > -count; i-- {
		window := cal.WindowAt(i)
		payload, err := l.LoadPayload(ctx, window, false)
		if err != nil {
			return nil, err
		}
		entries = append(entries, TeamHistoryEntry{
			SprintLabel:     ShortLabel(window),
			StartDate:       window.StartDate,
			EndDate:         window.EndDate,
			AvgDXIScore:     payload.Summary.AvgDXIScore,
			DimensionScores: payload.TeamDimensionScores,
			DeveloperCount:  len(payload.Developers),
			TotalCommits:    payload.Summary.TotalCommits,
			TotalPRs:        payload.Summary.TotalPRs,
		})
	}

	reverseSlice(entries)
	return entries, nil
}

// DeveloperHistory assembles one developer's trend across the last count
// sprints plus the matching team entries. The developer must appear in at
// least one of the sprints.
func (l *Loader) DeveloperHistory(ctx context.Context, cal *Calendar, login string, count int) (DeveloperHistory, error) {
	var devEntries []DeveloperHistoryEntry
	var teamEntries []TeamHistoryEntry

	for i := 0; i > -count; i-- {
		window := cal.WindowAt(i)
		payload, err := l.LoadPayload(ctx, window, false)
		if err != nil {
			return DeveloperHistory{}, err
		}

		teamEntries = append(teamEntries, TeamHistoryEntry{
			SprintLabel:     ShortLabel(window),
			StartDate:       window.StartDate,
			EndDate:         window.EndDate,
			AvgDXIScore:     payload.Summary.AvgDXIScore,
			DimensionScores: payload.TeamDimensionScores,
			DeveloperCount:  len(payload.Developers),
			TotalCommits:    payload.Summary.TotalCommits,
			TotalPRs:        payload.Summary.TotalPRs,
		})

		for _, dev := range payload.Developers {
			if dev.GitHubLogin != login {
				continue
			}
			devEntries = append(devEntries, DeveloperHistoryEntry{
				SprintLabel:        ShortLabel(window),
				StartDate:          window.StartDate,
				EndDate:            window.EndDate,
				DXIScore:           dev.DXIScore,
				DimensionScores:    dev.DimensionScores,
				Commits:            dev.Commits,
				PRsOpened:          dev.PRsOpened,
				PRsMerged:          dev.PRsMerged,
				ReviewsGiven:       dev.ReviewsGiven,
				LinesAdded:         dev.LinesAdded,
				LinesDeleted:       dev.LinesDeleted,
				AvgReviewTimeHours: dev.AvgReviewTimeHours,
				AvgCycleTimeHours:  dev.AvgCycleTimeHours,
			})
			break
		}
	}

	if len(devEntries) == 0 {
		return DeveloperHistory{}, apperrors.NewNotFoundError(
			fmt.Sprintf("developer %q not found in the last %d sprints", login, count))
	}

	reverseSlice(devEntries)
	reverseSlice(teamEntries)

	return DeveloperHistory{
		Developer:   login,
		Sprints:     devEntries,
		TeamHistory: teamEntries,
	}, nil
}

// reverseSlice flips entries into chronological order for charting.
func reverseSlice[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

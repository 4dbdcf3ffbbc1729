package analysis

import (
	"sort"

	"github.com/opendxi/backend/internal/types"
)

// BuildPayload runs the raw sprint events through aggregation and scoring
// and assembles the complete payload for one window. All four parts are
// derived together from the same event set.
func BuildPayload(data types.SprintData, window types.SprintWindow) types.Payload {
	acc := NewAccumulator(window)
	for _, commit := range data.Commits {
		acc.AddCommit(commit)
	}
	for _, pr := range data.PullRequests {
		acc.AddPullRequest(pr)
	}

	developers := make([]types.DeveloperMetrics, 0, len(acc.Developers()))
	for login, stats := range acc.Developers() {
		dev := types.DeveloperMetrics{
			Developer:          login,
			GitHubLogin:        login,
			Commits:            stats.Commits,
			PRsOpened:          stats.PRsOpened,
			PRsMerged:          stats.PRsMerged,
			ReviewsGiven:       stats.ReviewsGiven,
			LinesAdded:         stats.LinesAdded,
			LinesDeleted:       stats.LinesDeleted,
			AvgReviewTimeHours: meanOf(stats.ReviewTimes),
			AvgCycleTimeHours:  meanOf(stats.CycleTimes),
		}
		dev.DimensionScores = ScoreDimensions(dev)
		dev.DXIScore = CompositeScore(dev.DimensionScores)
		developers = append(developers, dev)
	}

	// Score descending; ties break on login so identical event sets always
	// serialize identically.
	sort.Slice(developers, func(i, j int) bool {
		if developers[i].DXIScore != developers[j].DXIScore {
			return developers[i].DXIScore > developers[j].DXIScore
		}
		return developers[i].GitHubLogin < developers[j].GitHubLogin
	})

	return types.Payload{
		Developers:          developers,
		DailyActivity:       acc.DailyActivity(),
		Summary:             Summarize(developers),
		TeamDimensionScores: TeamDimensionScores(developers),
	}
}

// meanOf averages a sample slice, returning nil for an empty one so the
// scorer can distinguish "no data" from an actual zero.
func meanOf(samples []float64) *float64 {
	if len(samples) == 0 {
		return nil
	}
	var sum float64
	for _, s := range samples {
		sum += s
	}
	mean := sum / float64(len(samples))
	return &mean
}

package analysis

import (
	"math"

	"github.com/opendxi/backend/internal/types"
)

// Dimension weights. They sum to 1 so an all-100 developer scores exactly
// 100.0.
const (
	weightReviewSpeed     = 0.25
	weightCycleTime       = 0.25
	weightPRSize          = 0.20
	weightReviewCoverage  = 0.15
	weightCommitFrequency = 0.15
)

// Scoring thresholds: the raw value that earns 100 and the one that earns
// 0 for the inverse-linear dimensions, and points-per-unit for the
// volume dimensions.
const (
	reviewTimeBestHours  = 2
	reviewTimeWorstHours = 24
	cycleTimeBestHours   = 8
	cycleTimeWorstHours  = 72
	prSizeBestLines      = 200
	prSizeWorstLines     = 1000
	pointsPerReview      = 10
	pointsPerCommit      = 5
)

// Team dimension scores fall back to a neutral midpoint for an empty
// developer set so an empty team does not read as an alarming zero.
const emptyTeamScore = 50.0

func clamp(v, low, high float64) float64 {
	return math.Max(low, math.Min(high, v))
}

func roundOne(v float64) float64 {
	return math.Round(v*10) / 10
}

// inverseLinear maps a raw value to 0-100 where lower is better: best or
// below scores 100, worst or above scores 0, linear in between.
func inverseLinear(value, best, worst float64) float64 {
	return clamp(100-(value-best)*100/(worst-best), 0, 100)
}

// ScoreDimensions derives the five dimension scores from raw counters.
// Missing time averages score 100 (no slow reviews or merges observed) and
// zero PRs score 100 on size; the volume dimensions start from 0. A
// developer with no data at all therefore lands on {100, 100, 100, 0, 0}.
func ScoreDimensions(m types.DeveloperMetrics) types.DimensionScores {
	reviewSpeed := 100.0
	if m.AvgReviewTimeHours != nil {
		reviewSpeed = inverseLinear(*m.AvgReviewTimeHours, reviewTimeBestHours, reviewTimeWorstHours)
	}

	cycleTime := 100.0
	if m.AvgCycleTimeHours != nil {
		cycleTime = inverseLinear(*m.AvgCycleTimeHours, cycleTimeBestHours, cycleTimeWorstHours)
	}

	prSize := 100.0
	if m.PRsOpened > 0 {
		avgLines := float64(m.LinesAdded+m.LinesDeleted) / float64(m.PRsOpened)
		prSize = inverseLinear(avgLines, prSizeBestLines, prSizeWorstLines)
	}

	reviewCoverage := math.Min(100, float64(m.ReviewsGiven)*pointsPerReview)
	commitFrequency := math.Min(100, float64(m.Commits)*pointsPerCommit)

	return types.DimensionScores{
		ReviewSpeed:     roundOne(reviewSpeed),
		CycleTime:       roundOne(cycleTime),
		PRSize:          roundOne(prSize),
		ReviewCoverage:  roundOne(reviewCoverage),
		CommitFrequency: roundOne(commitFrequency),
	}
}

// CompositeScore is the weighted sum of the dimension scores, so the
// stored pair stays mutually consistent.
func CompositeScore(d types.DimensionScores) float64 {
	composite := weightReviewSpeed*d.ReviewSpeed +
		weightCycleTime*d.CycleTime +
		weightPRSize*d.PRSize +
		weightReviewCoverage*d.ReviewCoverage +
		weightCommitFrequency*d.CommitFrequency

	return roundOne(composite)
}

// TeamDimensionScores averages each dimension across the developer set.
func TeamDimensionScores(developers []types.DeveloperMetrics) types.DimensionScores {
	if len(developers) == 0 {
		return types.DimensionScores{
			ReviewSpeed:     emptyTeamScore,
			CycleTime:       emptyTeamScore,
			PRSize:          emptyTeamScore,
			ReviewCoverage:  emptyTeamScore,
			CommitFrequency: emptyTeamScore,
		}
	}

	var sum types.DimensionScores
	for _, dev := range developers {
		sum.ReviewSpeed += dev.DimensionScores.ReviewSpeed
		sum.CycleTime += dev.DimensionScores.CycleTime
		sum.PRSize += dev.DimensionScores.PRSize
		sum.ReviewCoverage += dev.DimensionScores.ReviewCoverage
		sum.CommitFrequency += dev.DimensionScores.CommitFrequency
	}

	n := float64(len(developers))
	return types.DimensionScores{
		ReviewSpeed:     roundOne(sum.ReviewSpeed / n),
		CycleTime:       roundOne(sum.CycleTime / n),
		PRSize:          roundOne(sum.PRSize / n),
		ReviewCoverage:  roundOne(sum.ReviewCoverage / n),
		CommitFrequency: roundOne(sum.CommitFrequency / n),
	}
}

// Summarize derives team totals from the developer list alone.
func Summarize(developers []types.DeveloperMetrics) types.Summary {
	summary := types.Summary{DeveloperCount: len(developers)}

	var scoreSum float64
	for _, dev := range developers {
		summary.TotalCommits += dev.Commits
		summary.TotalPRs += dev.PRsOpened
		summary.TotalMerged += dev.PRsMerged
		summary.TotalReviews += dev.ReviewsGiven
		scoreSum += dev.DXIScore
	}

	if len(developers) > 0 {
		summary.AvgDXIScore = roundOne(scoreSum / float64(len(developers)))
	}
	return summary
}

// Package view narrows a stored sprint payload to a caller's visibility
// set without touching what is persisted.
package view

import (
	"github.com/opendxi/backend/internal/analysis"
	"github.com/opendxi/backend/internal/types"
)

// Filter restricts a payload to the logins a caller may see. visible and
// team each select a set of logins; when both are given only logins in
// both survive, when one is given it alone applies, and when neither is
// given the payload passes through untouched.
//
// The summary and team dimension scores are recomputed over the surviving
// developers so the returned document stays internally consistent. Daily
// activity is team-wide and not attributable to single developers, so it
// is passed through unchanged.
func Filter(payload types.Payload, visible, team []string) types.Payload {
	if len(visible) == 0 && len(team) == 0 {
		return payload
	}

	allowed := allowedSet(visible, team)

	filtered := make([]types.DeveloperMetrics, 0, len(payload.Developers))
	for _, dev := range payload.Developers {
		if allowed[dev.GitHubLogin] {
			filtered = append(filtered, dev)
		}
	}

	return types.Payload{
		Developers:          filtered,
		DailyActivity:       payload.DailyActivity,
		Summary:             analysis.Summarize(filtered),
		TeamDimensionScores: analysis.TeamDimensionScores(filtered),
	}
}

func allowedSet(visible, team []string) map[string]bool {
	if len(visible) == 0 {
		return toSet(team)
	}
	if len(team) == 0 {
		return toSet(visible)
	}

	teamSet := toSet(team)
	allowed := make(map[string]bool, len(visible))
	for _, login := range visible {
		if teamSet[login] {
			allowed[login] = true
		}
	}
	return allowed
}

func toSet(logins []string) map[string]bool {
	set := make(map[string]bool, len(logins))
	for _, login := range logins {
		set[login] = true
	}
	return set
}

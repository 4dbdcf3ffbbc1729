package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opendxi/backend/internal/types"
)

func samplePayload() types.Payload {
	developers := []types.DeveloperMetrics{
		{Developer: "alice", GitHubLogin: "alice", Commits: 10, PRsOpened: 2, DXIScore: 90.0},
		{Developer: "bob", GitHubLogin: "bob", Commits: 6, PRsOpened: 1, DXIScore: 80.0},
		{Developer: "carol", GitHubLogin: "carol", Commits: 2, PRsOpened: 1, DXIScore: 70.0},
	}
	return types.Payload{
		Developers: developers,
		DailyActivity: []types.DailyActivity{
			{Date: "2026-01-07", Commits: 18},
		},
		Summary: types.Summary{
			TotalCommits: 18, TotalPRs: 4, DeveloperCount: 3, AvgDXIScore: 80.0,
		},
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name     string
		visible  []string
		team     []string
		expected []string
	}{
		{name: "no filters passes everything through", expected: []string{"alice", "bob", "carol"}},
		{name: "visible only", visible: []string{"alice", "carol"}, expected: []string{"alice", "carol"}},
		{name: "team only", team: []string{"bob"}, expected: []string{"bob"}},
		{name: "both filters intersect", visible: []string{"alice", "bob"}, team: []string{"bob", "carol"}, expected: []string{"bob"}},
		{name: "disjoint filters leave nobody", visible: []string{"alice"}, team: []string{"carol"}, expected: []string{}},
		{name: "unknown logins are ignored", visible: []string{"mallory"}, expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filtered := Filter(samplePayload(), tt.visible, tt.team)

			logins := make([]string, 0, len(filtered.Developers))
			for _, dev := range filtered.Developers {
				logins = append(logins, dev.GitHubLogin)
			}
			assert.Equal(t, tt.expected, logins)
		})
	}
}

func TestFilter_RecomputesSummary(t *testing.T) {
	filtered := Filter(samplePayload(), []string{"alice", "bob"}, nil)

	require.Len(t, filtered.Developers, 2)
	assert.Equal(t, 16, filtered.Summary.TotalCommits)
	assert.Equal(t, 3, filtered.Summary.TotalPRs)
	assert.Equal(t, 2, filtered.Summary.DeveloperCount)
	assert.Equal(t, 85.0, filtered.Summary.AvgDXIScore)

	// Daily activity is team-wide and passes through untouched.
	assert.Equal(t, samplePayload().DailyActivity, filtered.DailyActivity)
}

func TestFilter_EmptyResult(t *testing.T) {
	filtered := Filter(samplePayload(), []string{"alice"}, []string{"carol"})

	assert.Empty(t, filtered.Developers)
	assert.Equal(t, types.Summary{}, filtered.Summary)
	assert.Equal(t, 50.0, filtered.TeamDimensionScores.ReviewSpeed)
}

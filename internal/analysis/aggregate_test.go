package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opendxi/backend/internal/types"
)

func testWindow(t *testing.T) types.SprintWindow {
	t.Helper()
	window, err := types.NewSprintWindow("2026-01-07", "2026-01-20")
	require.NoError(t, err)
	return window
}

func TestAccumulator_AddCommit(t *testing.T) {
	window := testWindow(t)

	tests := []struct {
		name          string
		commit        types.Commit
		expectedLogin string
		counted       bool
	}{
		{
			name: "commit inside window counts",
			commit: types.Commit{
				AuthorLogin: "alice", Date: "2026-01-10T09:00:00Z", Additions: 10, Deletions: 5,
			},
			expectedLogin: "alice",
			counted:       true,
		},
		{
			name: "commit on window boundary counts",
			commit: types.Commit{
				AuthorLogin: "alice", Date: "2026-01-20T23:59:00Z",
			},
			expectedLogin: "alice",
			counted:       true,
		},
		{
			name: "commit before window is dropped",
			commit: types.Commit{
				AuthorLogin: "alice", Date: "2026-01-06T23:00:00Z",
			},
			counted: false,
		},
		{
			name: "commit after window is dropped",
			commit: types.Commit{
				AuthorLogin: "alice", Date: "2026-01-21T00:00:00Z",
			},
			counted: false,
		},
		{
			name: "bot commit is dropped",
			commit: types.Commit{
				AuthorLogin: "dependabot[bot]", Date: "2026-01-10T09:00:00Z",
			},
			counted: false,
		},
		{
			name: "missing login falls back to git author name",
			commit: types.Commit{
				AuthorName: "Alice Example", Date: "2026-01-10T09:00:00Z",
			},
			expectedLogin: "Alice Example",
			counted:       true,
		},
		{
			name: "missing login and name is dropped",
			commit: types.Commit{
				Date: "2026-01-10T09:00:00Z",
			},
			counted: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := NewAccumulator(window)
			acc.AddCommit(tt.commit)

			if !tt.counted {
				assert.Empty(t, acc.Developers())
				return
			}
			require.Contains(t, acc.Developers(), tt.expectedLogin)
			stats := acc.Developers()[tt.expectedLogin]
			assert.Equal(t, 1, stats.Commits)
			assert.Equal(t, tt.commit.Additions, stats.LinesAdded)
			assert.Equal(t, tt.commit.Deletions, stats.LinesDeleted)
		})
	}
}

func TestAccumulator_AddPullRequest(t *testing.T) {
	window := testWindow(t)

	t.Run("merged PR records cycle time", func(t *testing.T) {
		acc := NewAccumulator(window)
		acc.AddPullRequest(types.PullRequest{
			AuthorLogin: "alice",
			CreatedAt:   "2026-01-10T08:00:00Z",
			MergedAt:    "2026-01-11T08:00:00Z",
			Additions:   100,
			Deletions:   40,
		})

		stats := acc.Developers()["alice"]
		require.NotNil(t, stats)
		assert.Equal(t, 1, stats.PRsOpened)
		assert.Equal(t, 1, stats.PRsMerged)
		assert.Equal(t, 100, stats.LinesAdded)
		assert.Equal(t, 40, stats.LinesDeleted)
		require.Len(t, stats.CycleTimes, 1)
		assert.InDelta(t, 24.0, stats.CycleTimes[0], 0.001)
	})

	t.Run("merge after window end does not count as merged", func(t *testing.T) {
		acc := NewAccumulator(window)
		acc.AddPullRequest(types.PullRequest{
			AuthorLogin: "alice",
			CreatedAt:   "2026-01-19T08:00:00Z",
			MergedAt:    "2026-01-22T08:00:00Z",
		})

		stats := acc.Developers()["alice"]
		require.NotNil(t, stats)
		assert.Equal(t, 1, stats.PRsOpened)
		assert.Equal(t, 0, stats.PRsMerged)
		assert.Empty(t, stats.CycleTimes)
	})

	t.Run("bot-authored PR keeps its human reviews", func(t *testing.T) {
		acc := NewAccumulator(window)
		acc.AddPullRequest(types.PullRequest{
			AuthorLogin: "renovate[bot]",
			CreatedAt:   "2026-01-10T08:00:00Z",
			Reviews: []types.Review{
				{AuthorLogin: "bob", SubmittedAt: "2026-01-10T12:00:00Z"},
			},
		})

		assert.NotContains(t, acc.Developers(), "renovate[bot]")
		require.Contains(t, acc.Developers(), "bob")
		assert.Equal(t, 1, acc.Developers()["bob"].ReviewsGiven)
	})

	t.Run("PR created before window still yields in-window reviews", func(t *testing.T) {
		acc := NewAccumulator(window)
		acc.AddPullRequest(types.PullRequest{
			AuthorLogin: "alice",
			CreatedAt:   "2026-01-02T08:00:00Z",
			Reviews: []types.Review{
				{AuthorLogin: "bob", SubmittedAt: "2026-01-08T12:00:00Z"},
			},
		})

		assert.NotContains(t, acc.Developers(), "alice")
		require.Contains(t, acc.Developers(), "bob")
	})
}

func TestAccumulator_Reviews(t *testing.T) {
	window := testWindow(t)

	tests := []struct {
		name           string
		review         types.Review
		counted        bool
		turnaroundKept bool
	}{
		{
			name:           "review inside window with positive turnaround",
			review:         types.Review{AuthorLogin: "bob", SubmittedAt: "2026-01-10T12:00:00Z"},
			counted:        true,
			turnaroundKept: true,
		},
		{
			name:    "review outside window is dropped",
			review:  types.Review{AuthorLogin: "bob", SubmittedAt: "2026-01-25T12:00:00Z"},
			counted: false,
		},
		{
			name:    "bot review is dropped",
			review:  types.Review{AuthorLogin: "codecov[bot]", SubmittedAt: "2026-01-10T12:00:00Z"},
			counted: false,
		},
		{
			name:    "review without timestamp is dropped",
			review:  types.Review{AuthorLogin: "bob"},
			counted: false,
		},
		{
			name:           "review predating the PR counts but contributes no sample",
			review:         types.Review{AuthorLogin: "bob", SubmittedAt: "2026-01-10T07:00:00Z"},
			counted:        true,
			turnaroundKept: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := NewAccumulator(window)
			acc.AddPullRequest(types.PullRequest{
				AuthorLogin: "alice",
				CreatedAt:   "2026-01-10T08:00:00Z",
				Reviews:     []types.Review{tt.review},
			})

			if !tt.counted {
				assert.NotContains(t, acc.Developers(), tt.review.AuthorLogin)
				return
			}
			stats := acc.Developers()[tt.review.AuthorLogin]
			require.NotNil(t, stats)
			assert.Equal(t, 1, stats.ReviewsGiven)
			if tt.turnaroundKept {
				assert.Len(t, stats.ReviewTimes, 1)
			} else {
				assert.Empty(t, stats.ReviewTimes)
			}
		})
	}
}

func TestAccumulator_DailyActivity(t *testing.T) {
	window := testWindow(t)
	acc := NewAccumulator(window)

	acc.AddCommit(types.Commit{AuthorLogin: "alice", Date: "2026-01-10T09:00:00Z"})
	acc.AddCommit(types.Commit{AuthorLogin: "bob", Date: "2026-01-10T15:00:00Z"})
	acc.AddPullRequest(types.PullRequest{
		AuthorLogin: "alice",
		CreatedAt:   "2026-01-12T08:00:00Z",
		MergedAt:    "2026-01-13T08:00:00Z",
		Reviews: []types.Review{
			{AuthorLogin: "bob", SubmittedAt: "2026-01-12T20:00:00Z"},
		},
	})

	daily := acc.DailyActivity()

	// One entry per calendar day, even for idle days.
	require.Len(t, daily, 14)
	assert.Equal(t, "2026-01-07", daily[0].Date)
	assert.Equal(t, "2026-01-20", daily[13].Date)

	assert.Equal(t, types.DailyActivity{Date: "2026-01-07"}, daily[0])
	assert.Equal(t, 2, daily[3].Commits)
	assert.Equal(t, 1, daily[5].PRsOpened)
	assert.Equal(t, 1, daily[5].ReviewsGiven)
	assert.Equal(t, 1, daily[6].PRsMerged)
}

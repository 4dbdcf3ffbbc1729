package sprint

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opendxi/backend/internal/apperrors"
	"github.com/opendxi/backend/internal/database"
	"github.com/opendxi/backend/internal/monitoring"
	"github.com/opendxi/backend/internal/types"
)

type fakeFetcher struct {
	mu    sync.Mutex
	calls int
	data  types.SprintData
	err   error
}

func (f *fakeFetcher) FetchWindow(ctx context.Context, window types.SprintWindow) (types.SprintData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return types.SprintData{}, f.err
	}
	return f.data, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeFetcher) set(data types.SprintData, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = data
	f.err = err
}

func newTestLoader(t *testing.T) (*Loader, *fakeFetcher, *database.Repository) {
	t.Helper()
	db, err := database.NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	fetcher := &fakeFetcher{
		data: types.SprintData{
			Commits: []types.Commit{
				{AuthorLogin: "alice", Date: "2026-01-10T09:00:00Z", Additions: 10},
			},
		},
	}
	repo := database.NewRepository(db)
	return NewLoader(repo, fetcher, monitoring.NewMetrics()), fetcher, repo
}

func testLoaderWindow() types.SprintWindow {
	return types.SprintWindow{StartDate: "2026-01-07", EndDate: "2026-01-20"}
}

func TestLoader_SecondLoadServesStore(t *testing.T) {
	loader, fetcher, _ := newTestLoader(t)
	window := testLoaderWindow()

	first, err := loader.Load(context.Background(), window, false)
	require.NoError(t, err)
	second, err := loader.Load(context.Background(), window, false)
	require.NoError(t, err)

	assert.Equal(t, 1, fetcher.callCount())
	assert.Equal(t, first.ID, second.ID)
	// Repeated reads must return the stored document byte for byte.
	assert.Equal(t, first.PayloadJSON, second.PayloadJSON)
}

func TestLoader_ForceRefreshRefetches(t *testing.T) {
	loader, fetcher, _ := newTestLoader(t)
	window := testLoaderWindow()

	first, err := loader.Load(context.Background(), window, false)
	require.NoError(t, err)

	fetcher.set(types.SprintData{
		Commits: []types.Commit{
			{AuthorLogin: "alice", Date: "2026-01-10T09:00:00Z", Additions: 10},
			{AuthorLogin: "bob", Date: "2026-01-11T09:00:00Z", Additions: 5},
		},
	}, nil)

	refreshed, err := loader.Load(context.Background(), window, true)
	require.NoError(t, err)

	assert.Equal(t, 2, fetcher.callCount())
	assert.Equal(t, first.ID, refreshed.ID)
	assert.NotEqual(t, first.ContentHash, refreshed.ContentHash)

	payload, err := refreshed.Payload()
	require.NoError(t, err)
	assert.Len(t, payload.Developers, 2)
}

func TestLoader_InvalidWindow(t *testing.T) {
	loader, fetcher, _ := newTestLoader(t)

	_, err := loader.Load(context.Background(), types.SprintWindow{
		StartDate: "2026-01-20", EndDate: "2026-01-07",
	}, false)

	require.Error(t, err)
	assert.Equal(t, apperrors.CategoryValidation, apperrors.CategoryOf(err))
	assert.Equal(t, 0, fetcher.callCount())
}

func TestLoader_FailedRefreshKeepsStoredRecord(t *testing.T) {
	loader, fetcher, repo := newTestLoader(t)
	window := testLoaderWindow()

	first, err := loader.Load(context.Background(), window, false)
	require.NoError(t, err)

	fetcher.set(types.SprintData{}, assert.AnError)
	_, err = loader.Load(context.Background(), window, true)
	require.Error(t, err)

	stored, err := repo.GetSprint(window)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, first.PayloadJSON, stored.PayloadJSON)
}

func TestLoader_ConcurrentLoads(t *testing.T) {
	loader, _, repo := newTestLoader(t)
	window := testLoaderWindow()

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	records := make([]*database.SprintRecord, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			records[i], errs[i] = loader.Load(context.Background(), window, false)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, records[i])
	}

	// Exactly one record exists and every caller observed it.
	list, err := repo.ListSprints()
	require.NoError(t, err)
	require.Len(t, list, 1)
	for i := 0; i < callers; i++ {
		assert.Equal(t, list[0].ID, records[i].ID)
	}
}

func TestLoader_TeamHistory(t *testing.T) {
	loader, fetcher, _ := newTestLoader(t)
	fetcher.set(types.SprintData{}, nil)

	cal, err := NewCalendar("2026-01-07", 14, fixedNow("2026-01-15T10:00:00Z"))
	require.NoError(t, err)

	entries, err := loader.TeamHistory(context.Background(), cal, 3)
	require.NoError(t, err)

	require.Len(t, entries, 3)
	// Oldest first.
	assert.Equal(t, "2025-12-10", entries[0].StartDate)
	assert.Equal(t, "2026-01-07", entries[2].StartDate)
	assert.Equal(t, "Jan 7-20", entries[2].SprintLabel)
	assert.Equal(t, 0, entries[2].DeveloperCount)
}

func TestLoader_DeveloperHistory(t *testing.T) {
	loader, _, _ := newTestLoader(t)

	cal, err := NewCalendar("2026-01-07", 14, fixedNow("2026-01-15T10:00:00Z"))
	require.NoError(t, err)

	// The fake fetcher only produces alice activity inside the current
	// sprint; the previous window has no matching events.
	history, err := loader.DeveloperHistory(context.Background(), cal, "alice", 2)
	require.NoError(t, err)

	assert.Equal(t, "alice", history.Developer)
	require.Len(t, history.Sprints, 1)
	assert.Equal(t, "2026-01-07", history.Sprints[0].StartDate)
	assert.Equal(t, 1, history.Sprints[0].Commits)
	require.Len(t, history.TeamHistory, 2)
	assert.Equal(t, "2025-12-24", history.TeamHistory[0].StartDate)
}

func TestLoader_DeveloperHistory_UnknownDeveloper(t *testing.T) {
	loader, _, _ := newTestLoader(t)

	cal, err := NewCalendar("2026-01-07", 14, fixedNow("2026-01-15T10:00:00Z"))
	require.NoError(t, err)

	_, err = loader.DeveloperHistory(context.Background(), cal, "mallory", 2)
	require.Error(t, err)
	assert.Equal(t, apperrors.CategoryNotFound, apperrors.CategoryOf(err))
}

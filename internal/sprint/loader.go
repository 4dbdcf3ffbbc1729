// Package sprint orchestrates the metrics pipeline: it answers sprint
// reads from the store and runs fetch, aggregation, and scoring when a
// window is missing or a refresh is forced.
package sprint

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/opendxi/backend/internal/analysis"
	"github.com/opendxi/backend/internal/apperrors"
	"github.com/opendxi/backend/internal/database"
	"github.com/opendxi/backend/internal/monitoring"
	"github.com/opendxi/backend/internal/types"
)

// Fetcher retrieves raw sprint events from the source API. The GitHub
// client is the production implementation; tests substitute a double.
type Fetcher interface {
	FetchWindow(ctx context.Context, window types.SprintWindow) (types.SprintData, error)
}

// Loader serves sprint records, populating the store on demand. The store
// is the source of truth: the source API is only queried when no record
// exists for the window or the caller forces a refresh.
type Loader struct {
	repo    *database.Repository
	fetcher Fetcher
	metrics *monitoring.Metrics
}

// NewLoader creates a loader over the given store and fetcher.
func NewLoader(repo *database.Repository, fetcher Fetcher, metrics *monitoring.Metrics) *Loader {
	return &Loader{repo: repo, fetcher: fetcher, metrics: metrics}
}

// Load returns the record for a window. Without force, an existing record
// is returned as-is and no network access occurs. The fetch runs outside
// any store transaction; only the final existence-check-and-write is
// transactional. When a concurrent caller wins the insert race, the
// winner's record is returned and the freshly computed payload discarded.
//
// Any fetch failure aborts the load and leaves a pre-existing record for
// the window untouched.
func (l *Loader) Load(ctx context.Context, window types.SprintWindow, force bool) (*database.SprintRecord, error) {
	if _, err := types.NewSprintWindow(window.StartDate, window.EndDate); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	if force {
		l.metrics.IncrementForceRefresh()
	} else {
		record, err := l.repo.GetSprint(window)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to read sprint store", err)
		}
		if record != nil {
			l.metrics.IncrementCacheHit()
			return record, nil
		}
	}
	l.metrics.IncrementCacheMiss()

	l.metrics.IncrementFetch()
	data, err := l.fetcher.FetchWindow(ctx, window)
	if err != nil {
		l.metrics.IncrementFetchError()
		return nil, err
	}

	payload := analysis.BuildPayload(data, window)
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode payload", err)
	}

	record, err := l.repo.SaveSprint(window, payloadJSON, force)
	if err != nil {
		if apperrors.IsConflict(err) {
			// Lost the first-population race; the winner's record is the
			// authoritative one for this window.
			slog.Info("concurrent sprint population detected, returning winner",
				"start", window.StartDate, "end", window.EndDate)
			winner, readErr := l.repo.GetSprint(window)
			if readErr == nil && winner != nil {
				return winner, nil
			}
		}
		return nil, apperrors.NewInternalError("failed to persist sprint", err)
	}

	slog.Info("sprint populated",
		"start", window.StartDate,
		"end", window.EndDate,
		"developers", len(payload.Developers),
		"force", force,
	)
	return record, nil
}

// LoadPayload is Load plus payload decoding, for callers that need the
// value object rather than the stored bytes.
func (l *Loader) LoadPayload(ctx context.Context, window types.SprintWindow, force bool) (types.Payload, error) {
	record, err := l.Load(ctx, window, force)
	if err != nil {
		return types.Payload{}, err
	}
	payload, err := record.Payload()
	if err != nil {
		return types.Payload{}, apperrors.NewInternalError("stored payload is unreadable", err)
	}
	return payload, nil
}

package sprint

import (
	"fmt"
	"time"

	"github.com/opendxi/backend/internal/types"
)

// Calendar derives sprint windows from a fixed cadence: a configured first
// sprint start date plus a fixed duration in days.
type Calendar struct {
	start    time.Time
	duration int
	now      func() time.Time
}

// NewCalendar parses the cadence settings. now is injectable for tests;
// pass nil for wall-clock time.
func NewCalendar(startDate string, durationDays int, now func() time.Time) (*Calendar, error) {
	start, err := time.Parse(types.DateLayout, startDate)
	if err != nil {
		return nil, fmt.Errorf("invalid sprint start date %q: %w", startDate, err)
	}
	if durationDays < 2 {
		return nil, fmt.Errorf("sprint duration must be at least 2 days, got %d", durationDays)
	}
	if now == nil {
		now = time.Now
	}
	return &Calendar{start: start, duration: durationDays, now: now}, nil
}

// WindowAt returns the sprint window at the given offset: 0 is the sprint
// containing today, -1 the previous one, and so on.
func (c *Calendar) WindowAt(index int) types.SprintWindow {
	daysSinceStart := int(c.now().Sub(c.start).Hours() / 24)
	currentSprint := daysSinceStart / c.duration
	target := currentSprint + index

	sprintStart := c.start.AddDate(0, 0, target*c.duration)
	sprintEnd := sprintStart.AddDate(0, 0, c.duration-1)

	return types.SprintWindow{
		StartDate: sprintStart.Format(types.DateLayout),
		EndDate:   sprintEnd.Format(types.DateLayout),
	}
}

// Info describes one sprint for the selector dropdown.
type Info struct {
	Label     string `json:"label"`
	Value     string `json:"value"`
	Start     string `json:"start"`
	End       string `json:"end"`
	IsCurrent bool   `json:"is_current"`
}

// ListSprints returns the current sprint and the limit-1 sprints before
// it, newest first.
func (c *Calendar) ListSprints(limit int) []Info {
	sprints := make([]Info, 0, limit)
	for i := 0; i > -limit; i-- {
		window := c.WindowAt(i)
		label := fmt.Sprintf("Sprint %s to %s", window.StartDate, window.EndDate)
		if i == 0 {
			label = "Current Sprint"
		}
		sprints = append(sprints, Info{
			Label:     label,
			Value:     fmt.Sprintf("%s|%s", window.StartDate, window.EndDate),
			Start:     window.StartDate,
			End:       window.EndDate,
			IsCurrent: i == 0,
		})
	}
	return sprints
}

// ShortLabel renders a compact range like "Jan 7-20" or "Jan 28-Feb 10"
// for trend charts.
func ShortLabel(window types.SprintWindow) string {
	start, err := time.Parse(types.DateLayout, window.StartDate)
	if err != nil {
		return window.StartDate
	}
	end, err := time.Parse(types.DateLayout, window.EndDate)
	if err != nil {
		return window.EndDate
	}

	if start.Month() == end.Month() {
		return fmt.Sprintf("%s %d-%d", start.Format("Jan"), start.Day(), end.Day())
	}
	return fmt.Sprintf("%s %d-%s %d", start.Format("Jan"), start.Day(), end.Format("Jan"), end.Day())
}

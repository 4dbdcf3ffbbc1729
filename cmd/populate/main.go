// Command populate pre-warms the sprint store so the first dashboard load
// after a deploy does not pay for a full fetch. It walks backwards from
// the current sprint and populates each window through the same loader
// the server uses.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"log/slog"

	"github.com/joho/godotenv"

	"github.com/opendxi/backend/internal/config"
	"github.com/opendxi/backend/internal/database"
	"github.com/opendxi/backend/internal/github"
	"github.com/opendxi/backend/internal/monitoring"
	"github.com/opendxi/backend/internal/sprint"
	"github.com/opendxi/backend/internal/types"
)

func main() {
	limit := flag.Int("limit", 6, "number of sprints to populate, counting back from the current one")
	force := flag.Bool("force", false, "refetch sprints that are already populated")
	workers := flag.Int("workers", 2, "concurrent sprint fetches")
	flag.Parse()

	_ = godotenv.Load()
	monitoring.SetupLogger(slog.LevelInfo)

	cfg := config.Load()
	if err := cfg.ValidateGitHub(); err != nil {
		slog.Error("GitHub is not configured", "error", err)
		os.Exit(1)
	}

	db, err := database.NewDB(cfg.DataDir)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := database.NewRepository(db)
	metrics := monitoring.NewMetrics()
	loader := sprint.NewLoader(repo, github.NewClient(cfg), metrics)

	calendar, err := sprint.NewCalendar(cfg.SprintStartDate, cfg.SprintDurationDays, nil)
	if err != nil {
		slog.Error("Invalid sprint cadence configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	windows := make(chan types.SprintWindow, *limit)
	for i := 0; i > -*limit; i-- {
		windows <- calendar.WindowAt(i)
	}
	close(windows)

	start := time.Now()
	var failed int64
	var mu sync.Mutex

	var wg sync.WaitGroup
	for w := 0; w < *workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for window := range windows {
				if ctx.Err() != nil {
					return
				}
				if _, err := loader.Load(ctx, window, *force); err != nil {
					slog.Error("Failed to populate sprint",
						"start", window.StartDate, "end", window.EndDate, "error", err)
					mu.Lock()
					failed++
					mu.Unlock()
					continue
				}
				slog.Info("Sprint populated", "start", window.StartDate, "end", window.EndDate)
			}
		}()
	}
	wg.Wait()

	slog.Info("Populate finished",
		"sprints", *limit,
		"failed", failed,
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
		"pipeline", metrics.Snapshot(),
	)
	if failed > 0 {
		os.Exit(1)
	}
}

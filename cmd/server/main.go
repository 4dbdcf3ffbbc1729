package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/opendxi/backend/internal/apperrors"
	"github.com/opendxi/backend/internal/config"
	"github.com/opendxi/backend/internal/database"
	"github.com/opendxi/backend/internal/github"
	"github.com/opendxi/backend/internal/identity"
	"github.com/opendxi/backend/internal/monitoring"
	"github.com/opendxi/backend/internal/sprint"
	"github.com/opendxi/backend/internal/types"
	"github.com/opendxi/backend/internal/view"
)

const version = "1.0.0"

const defaultHistorySprints = 6

func main() {
	// .env is optional; real deployments configure through the environment.
	_ = godotenv.Load()

	monitoring.SetupLogger(slog.LevelInfo)

	cfg := config.Load()

	db, err := database.NewDB(cfg.DataDir)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := database.NewRepository(db)
	client := github.NewClient(cfg)
	metrics := monitoring.NewMetrics()
	loader := sprint.NewLoader(repo, client, metrics)

	calendar, err := sprint.NewCalendar(cfg.SprintStartDate, cfg.SprintDurationDays, nil)
	if err != nil {
		slog.Error("Invalid sprint cadence configuration", "error", err)
		os.Exit(1)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}))

	registerRoutes(r, cfg, db, repo, client, loader, calendar, metrics)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		slog.Info("Starting server", "port", cfg.Port, "org", cfg.GitHubOrg)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("Server exited")
}

func registerRoutes(
	r *gin.Engine,
	cfg config.Settings,
	db *database.DB,
	repo *database.Repository,
	client *github.Client,
	loader *sprint.Loader,
	calendar *sprint.Calendar,
	metrics *monitoring.Metrics,
) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   version,
			"metrics":   metrics.Snapshot(),
		})
	})

	api := r.Group("/api")

	api.GET("/config", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"github_org":           cfg.GitHubOrg,
			"github_configured":    cfg.ValidateGitHub() == nil,
			"sprint_start_date":    cfg.SprintStartDate,
			"sprint_duration_days": cfg.SprintDurationDays,
		})
	})

	api.GET("/sprints", func(c *gin.Context) {
		limit := queryInt(c, "limit", defaultHistorySprints)
		c.JSON(http.StatusOK, gin.H{"sprints": calendar.ListSprints(limit)})
	})

	api.GET("/metrics/:start/:end", func(c *gin.Context) {
		window := types.SprintWindow{
			StartDate: c.Param("start"),
			EndDate:   c.Param("end"),
		}
		force := c.Query("force_refresh") == "true"

		record, err := loader.Load(c.Request.Context(), window, force)
		if err != nil {
			respondError(c, err)
			return
		}

		visible := queryList(c, "visible_logins")
		team := queryList(c, "team_logins")
		if len(visible) == 0 && len(team) == 0 {
			// Serve the stored document verbatim so repeated reads are
			// byte-identical.
			c.Data(http.StatusOK, "application/json", record.PayloadJSON)
			return
		}

		payload, err := record.Payload()
		if err != nil {
			respondError(c, apperrors.NewInternalError("stored payload is unreadable", err))
			return
		}
		c.JSON(http.StatusOK, view.Filter(payload, visible, team))
	})

	api.GET("/sprints/history", func(c *gin.Context) {
		count := queryInt(c, "count", defaultHistorySprints)
		entries, err := loader.TeamHistory(c.Request.Context(), calendar, count)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"sprints": entries})
	})

	api.GET("/developers/:login/history", func(c *gin.Context) {
		count := queryInt(c, "count", defaultHistorySprints)
		history, err := loader.DeveloperHistory(c.Request.Context(), calendar, c.Param("login"), count)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, history)
	})

	api.GET("/users/:login", func(c *gin.Context) {
		login := c.Param("login")
		user, err := client.LookupUser(c.Request.Context(), login)
		if err != nil {
			// Commit authors without a real account still need a stable
			// identity for the frontend.
			if apperrors.CategoryOf(err) == apperrors.CategoryNotFound {
				c.JSON(http.StatusOK, types.User{
					ID:    identity.PseudoID(login),
					Login: login,
					Name:  login,
				})
				return
			}
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	})

	api.GET("/stats", func(c *gin.Context) {
		storeStats, err := repo.GetStoreStats()
		if err != nil {
			respondError(c, apperrors.NewInternalError("failed to read store stats", err))
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"store":    storeStats,
			"database": db.GetPoolStats(),
			"pipeline": metrics.Snapshot(),
		})
	})
}

// respondError maps a pipeline error to its HTTP status and logs it with
// its category.
func respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatusOf(err)
	category := apperrors.CategoryOf(err)

	slog.Error("request failed",
		"path", c.Request.URL.Path,
		"category", string(category),
		"status", status,
		"error", err,
	)
	c.JSON(status, gin.H{
		"error":    err.Error(),
		"category": string(category),
	})
}

func queryInt(c *gin.Context, key string, defaultValue int) int {
	if raw := c.Query(key); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func queryList(c *gin.Context, key string) []string {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

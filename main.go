package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gmpdesk/gmp-dashboard/config"
	"github.com/gmpdesk/gmp-dashboard/handlers"
	"github.com/gmpdesk/gmp-dashboard/jobs"
	"github.com/gmpdesk/gmp-dashboard/services"
	"github.com/gmpdesk/gmp-dashboard/shared"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load config
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	level, _ := logrus.ParseLevel(cfg.LogLevel)
	logrus.SetLevel(level)

	// Initialize services
	formatService := services.NewFormatService()
	viewService := services.NewViewService(formatService)
	statsService := services.NewStatsService(formatService)

	retryPolicy := shared.RetryPolicy{
		MaxAttempts: cfg.RetryAttempts,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    8 * time.Second,
	}
	feedService := services.NewFeedService(cfg.FeedURL, cfg.HTTPTimeout(), cfg.RequestSpacing(), retryPolicy)

	var fallback services.RecordSource
	if cfg.ScrapeURL != "" {
		fallback = services.NewTableScrapeService(cfg.ScrapeURL, cfg.HTTPTimeout(), cfg.RequestSpacing())
	}

	snapshotService := services.NewSnapshotService(feedService, fallback, cfg.CacheTTL())

	log.Println("GMP dashboard services initialized:")
	log.Printf("  - Feed client (url: %s, timeout: %v, spacing: %v)", cfg.FeedURL, cfg.HTTPTimeout(), cfg.RequestSpacing())
	if fallback != nil {
		log.Printf("  - Table scraper fallback (url: %s)", cfg.ScrapeURL)
	} else {
		log.Println("  - Table scraper fallback disabled")
	}
	log.Printf("  - Snapshot cache (validity window: %v)", cfg.CacheTTL())

	// Start background refresh
	refreshJob := jobs.NewRefreshJob(snapshotService, cfg.CacheTTL(), cfg.HTTPTimeout()+5*time.Second)
	refreshJob.Start()

	// Initialize handlers
	dashboardHandler := handlers.NewDashboardHandler(snapshotService, viewService, statsService)
	wsHandler := handlers.NewWSHandler(snapshotService)

	// Setup Fiber
	app := fiber.New()

	// Middleware
	app.Use(logger.New())
	app.Use(cors.New())

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})

	// Routes
	api := app.Group("/api/v1")
	api.Get("/gmp", dashboardHandler.GetDashboard)
	api.Get("/gmp/stats", dashboardHandler.GetStats)
	api.Get("/gmp/status", dashboardHandler.GetStatus)
	api.Post("/gmp/refresh", dashboardHandler.ForceRefresh)

	// WebSocket push for dashboard repaints
	app.Use("/ws", wsHandler.Upgrade)
	app.Get("/ws/gmp", wsHandler.Stream())

	// Graceful shutdown on SIGINT/SIGTERM
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Println("Shutting down...")
		refreshJob.Stop()
		snapshotService.Close()
		if err := app.Shutdown(); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	log.Printf("Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

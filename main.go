package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"speedrun-league-system/handlers"
	"speedrun-league-system/middleware"
	"speedrun-league-system/models"
	"speedrun-league-system/services"
	"speedrun-league-system/storage"
	"speedrun-league-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024, // 1MB — JSON payloads only, evidence stays a URL
	})

	// 🔐 GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID, X-User-ID, X-User-Name, X-User-Roles",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Event{},
		&models.Participant{},
		&models.Submission{},
		&models.UserPoints{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	store := storage.NewGormStore(db)

	pointsService := services.NewPointsService(store, services.DefaultPointsConfig())
	eventService := services.NewEventService(store, store, store)
	submissionService := services.NewSubmissionService(store, store, store, pointsService)
	leaderboardService := services.NewLeaderboardService(store, submissionService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional change feed: re-derives leaderboards when the ledger moves.
	feed := workers.NewLeaderboardFeed(db, leaderboardService)
	go feed.Poll(ctx, 10*time.Second)

	pointsService.StartSeasonScheduler()

	// ✅ Setup routes — enforced Gateway auth on everything
	handlers.SetupCategoryRoutes(app)
	handlers.SetupEventRoutes(app, eventService, pointsService)
	handlers.SetupSubmissionRoutes(app, submissionService)
	handlers.SetupLeaderboardRoutes(app, leaderboardService)
	handlers.SetupPointsRoutes(app, pointsService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Leaderboard change feed running (every 10s)")
	log.Printf("✅ Season scheduler running (active season: %s)", pointsService.ActiveSeason())
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

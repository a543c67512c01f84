package main

import (
	"context"
	"log"
	"os"

	"github.com/ReuvenDagaga/CoinRun-sub000/internal/api"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/config"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/database"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/game"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/leaderboard"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/migrations"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/missions"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/redis"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/ws"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations on start if requested
	if os.Getenv("MIGRATE_ON_START") == "true" {
		log.Println("↗ Running DB migrations on startup...")
		if err := migrations.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	rdb, err := redis.Connect(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	hub := ws.NewHub()
	ms := missions.NewService(db)
	lb := leaderboard.NewService(rdb)
	mm := game.NewMatchmaker(db, rdb, cfg, hub)

	// Background pairing of wagered players
	go mm.Run(context.Background())

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	api.SetupRoutes(router, api.Deps{
		DB:          db,
		Cfg:         cfg,
		Matchmaker:  mm,
		Missions:    ms,
		Leaderboard: lb,
		Hub:         hub,
	})

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting CoinRun server on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

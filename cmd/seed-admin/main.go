package main

import (
	"log"
	"os"

	"github.com/ReuvenDagaga/CoinRun-sub000/internal/admin"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/config"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/database"
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

	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "admin@example.com"
		log.Printf("Using default admin email: %s", email)
	}

	adminToken := os.Getenv("ADMIN_TOKEN")
	if adminToken == "" {
		adminToken = "change-me-in-production"
		log.Printf("WARNING: Using default admin token. Set ADMIN_TOKEN env var in production!")
	}

	if err := admin.CreateAdminAccount(db, email, "Admin", adminToken, "super_admin"); err != nil {
		log.Fatalf("Failed to create admin account: %v", err)
	}

	log.Printf("✓ Admin account created/updated successfully")
	log.Printf("  Email: %s", email)
	log.Printf("  Token: %s", adminToken)
}

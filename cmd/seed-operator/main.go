package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/cueladder/backend/internal/config"
	"github.com/cueladder/backend/internal/database"
	"github.com/cueladder/backend/internal/operators"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	email := os.Getenv("OPERATOR_EMAIL")
	if email == "" {
		email = "operator@cueladder.local"
		log.Printf("Using default operator email: %s", email)
	}

	token := os.Getenv("OPERATOR_TOKEN")
	if token == "" {
		token = "change-me-in-production"
		log.Printf("WARNING: Using default operator token. Set OPERATOR_TOKEN env var in production!")
	}

	displayName := os.Getenv("OPERATOR_NAME")
	if displayName == "" {
		displayName = "League Operator"
	}
	roles := []string{operators.RoleLadderAdmin}

	if err := operators.CreateOperator(db, email, displayName, token, roles); err != nil {
		log.Fatalf("Failed to create operator account: %v", err)
	}

	log.Printf("✓ Operator account created/updated successfully")
	log.Printf("  Email: %s", email)
	log.Printf("  Display Name: %s", displayName)
	log.Printf("  Roles: %v", roles)
	log.Println("\nAuthenticate admin requests with:")
	log.Printf("  X-Operator-Email: %s", email)
	log.Printf("  X-Operator-Token: %s", token)
}

package main

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/gearflip/resaleapi/internal/config"
	"github.com/gearflip/resaleapi/internal/domain"
	"github.com/gearflip/resaleapi/internal/repository/postgres"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: go run cmd/create-user/main.go <user-name> <api-key> [ebay-auth-token]")
		fmt.Println("Example: go run cmd/create-user/main.go \"Garage Flips\" \"seller-api-key-12345\"")
		os.Exit(1)
	}

	name := os.Args[1]
	apiKey := os.Args[2]
	var ebayToken *string
	if len(os.Args) > 3 {
		token := os.Args[3]
		ebayToken = &token
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	// Connect to database
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// Hash the API key
	apiKeyHash, err := bcrypt.GenerateFromPassword([]byte(apiKey), 10)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash API key: %v\n", err)
		os.Exit(1)
	}

	// Create repositories
	repos := postgres.NewRepositories(db, logger)

	// Create user
	user := &domain.User{
		Name:          name,
		APIKeyHash:    string(apiKeyHash),
		EbayAuthToken: ebayToken,
		IsActive:      true,
	}

	err = repos.User.Create(context.Background(), user)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ User created successfully!\n\n")
	fmt.Printf("User ID: %s\n", user.ID.String())
	fmt.Printf("Name: %s\n", user.Name)
	fmt.Printf("API Key: %s\n", apiKey)
	fmt.Printf("\n⚠️  IMPORTANT: Save this API key securely! You won't be able to see it again.\n")
	fmt.Printf("\nUse this API key in the Authorization header:\n")
	fmt.Printf("Authorization: Bearer %s\n", apiKey)
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gearflip/resaleapi/internal/config"
	"github.com/gearflip/resaleapi/internal/reconcile"
	"github.com/gearflip/resaleapi/internal/repository/postgres"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: go run cmd/match-return/main.go <user-id> <ebay-return-id>")
		fmt.Println("Example: go run cmd/match-return/main.go 7a3c... 5123456789")
		os.Exit(1)
	}

	userID, err := uuid.Parse(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid user ID: %v\n", err)
		os.Exit(1)
	}
	ebayReturnID := os.Args[2]

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

	repos := postgres.NewRepositories(db, logger)
	ctx := context.Background()

	ret, err := repos.Return.GetByEbayReturnID(ctx, userID, ebayReturnID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load return: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("🔍 Matching return %s\n\n", ebayReturnID)
	fmt.Printf("Status: %s\n", ret.ReturnStatus)
	if ret.SKU != nil {
		fmt.Printf("SKU: %s\n", *ret.SKU)
	}
	if ret.OrderID != nil {
		fmt.Printf("Order ID: %s\n", *ret.OrderID)
	}
	if ret.ItemID != nil {
		fmt.Printf("Item ID: %s\n", *ret.ItemID)
	}
	if ret.BuyerLoginName != nil {
		fmt.Printf("Buyer: %s\n", *ret.BuyerLoginName)
	}
	if ret.InventoryItemID != nil {
		fmt.Printf("Currently linked to: %s\n", ret.InventoryItemID.String())
	}
	fmt.Println()

	matcher := reconcile.NewMatcher(repos.Inventory, logger)
	match, err := matcher.Match(ctx, userID, ret)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Match failed: %v\n", err)
		os.Exit(1)
	}
	if match == nil {
		fmt.Println("❌ No inventory item matched")
		os.Exit(0)
	}

	fmt.Printf("✅ Matched inventory item!\n\n")
	fmt.Printf("Item ID: %s\n", match.Item.ID.String())
	fmt.Printf("SKU: %s\n", match.Item.SKU)
	fmt.Printf("Title: %s\n", match.Item.Title)
	fmt.Printf("Strategy: %s\n", match.Strategy)
	fmt.Printf("Confidence: %d\n", match.Confidence)
}

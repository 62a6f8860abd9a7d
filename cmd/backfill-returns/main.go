package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gearflip/resaleapi/internal/config"
	"github.com/gearflip/resaleapi/internal/domain"
	"github.com/gearflip/resaleapi/internal/ebay"
	"github.com/gearflip/resaleapi/internal/reconcile"
	"github.com/gearflip/resaleapi/internal/repository"
	"github.com/gearflip/resaleapi/internal/repository/postgres"
	"github.com/gearflip/resaleapi/internal/service"
)

const pageSize = 200

func main() {
	dryRun := flag.Bool("dry-run", false, "report what would change without writing")
	userIDFlag := flag.String("user", "", "limit the backfill to one user ID")
	minConfidence := flag.Int("min-confidence", 0, "override AUTOPROCESS_MIN_CONFIDENCE (0 keeps the configured value)")
	flag.Parse()

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

	users, err := resolveUsers(ctx, repos, *userIDFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to resolve users: %v\n", err)
		os.Exit(1)
	}

	confidence := cfg.Jobs.MinConfidence
	if *minConfidence > 0 {
		confidence = *minConfidence
	}

	client := ebay.NewClient(cfg.Ebay, logger)
	matcher := reconcile.NewMatcher(repos.Inventory, logger)
	// The backfill runs unlocked by choice; take the worker down first.
	reconcileService := service.NewReconcileService(client, repos, nil, logger)

	for _, user := range users {
		fmt.Printf("User %s (%s)\n", user.Name, user.ID)

		relinked, err := relinkReturns(ctx, repos, matcher, user, *dryRun)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  re-link failed: %v\n", err)
			continue
		}
		fmt.Printf("  re-linked %d returns\n", relinked)

		result, err := reconcileService.ProcessReturns(ctx, user, service.ProcessOptions{
			DryRun:        *dryRun,
			MinConfidence: confidence,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "  processing failed: %v\n", err)
			continue
		}
		if result.FailedOAuth {
			fmt.Println("  skipped: platform authorization expired")
			continue
		}
		fmt.Printf("  total=%d processed=%d skipped=%d errors=%d dry_run=%v\n",
			result.Summary.Total, result.Summary.Processed, result.Summary.Skipped,
			result.Summary.Errors, result.Summary.DryRun)
	}
}

func resolveUsers(ctx context.Context, repos *repository.Repositories, userIDFlag string) ([]*domain.User, error) {
	if userIDFlag == "" {
		return repos.User.ListActive(ctx)
	}
	userID, err := uuid.Parse(userIDFlag)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID %q: %w", userIDFlag, err)
	}
	user, err := repos.User.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return []*domain.User{user}, nil
}

// relinkReturns retries matching for returns that never found an inventory
// item. Already linked returns are left alone.
func relinkReturns(ctx context.Context, repos *repository.Repositories, matcher *reconcile.Matcher, user *domain.User, dryRun bool) (int, error) {
	relinked := 0
	offset := 0
	for {
		page, err := repos.Return.ListByUser(ctx, user.ID, pageSize, offset)
		if err != nil {
			return relinked, err
		}
		if len(page) == 0 {
			return relinked, nil
		}
		for _, ret := range page {
			if ret.InventoryItemID != nil || ret.AutoProcessed {
				continue
			}
			match, err := matcher.Match(ctx, user.ID, ret)
			if err != nil {
				return relinked, err
			}
			if match == nil {
				continue
			}
			relinked++
			if dryRun {
				continue
			}
			ret.InventoryItemID = &match.Item.ID
			strategy := match.Strategy
			conf := match.Confidence
			ret.MatchStrategy = &strategy
			ret.MatchConfidence = &conf
			if err := repos.Return.Update(ctx, ret); err != nil {
				return relinked, err
			}
		}
		offset += pageSize
	}
}

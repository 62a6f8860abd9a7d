package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gearflip/resaleapi/internal/domain"
	"github.com/gearflip/resaleapi/internal/repository/memory"
)

func seedItem(t *testing.T, repo *memory.InventoryRepository, item *domain.InventoryItem) *domain.InventoryItem {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), item))
	return item
}

func soldItem(userID uuid.UUID, sku string, price float64, soldAt time.Time) *domain.InventoryItem {
	return &domain.InventoryItem{
		UserID:    userID,
		SKU:       sku,
		Title:     sku,
		Sold:      true,
		PriceSold: &price,
		DateSold:  &soldAt,
	}
}

func TestMatchExactSKUWinsOverOrderID(t *testing.T) {
	repo := memory.NewInventoryRepository()
	userID := uuid.New()

	bySKU := seedItem(t, repo, &domain.InventoryItem{UserID: userID, SKU: "DS-101"})
	byOrder := seedItem(t, repo, &domain.InventoryItem{
		UserID:  userID,
		SKU:     "DS-202",
		OrderID: strPtr("17-11111-22222"),
	})

	matcher := NewMatcher(repo, zap.NewNop())
	result, err := matcher.Match(context.Background(), userID, &domain.Return{
		SKU:     strPtr("DS-101"),
		OrderID: strPtr("17-11111-22222"),
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, bySKU.ID, result.Item.ID)
	assert.NotEqual(t, byOrder.ID, result.Item.ID)
	assert.Equal(t, domain.StrategyExactSKU, result.Strategy)
	assert.Equal(t, 100, result.Confidence)
}

func TestMatchExactOrderID(t *testing.T) {
	repo := memory.NewInventoryRepository()
	userID := uuid.New()
	item := seedItem(t, repo, &domain.InventoryItem{
		UserID:  userID,
		SKU:     "DS-202",
		OrderID: strPtr("17-11111-22222"),
	})

	matcher := NewMatcher(repo, zap.NewNop())
	result, err := matcher.Match(context.Background(), userID, &domain.Return{
		OrderID: strPtr("17-11111-22222"),
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, item.ID, result.Item.ID)
	assert.Equal(t, domain.StrategyExactOrder, result.Strategy)
	assert.Equal(t, 95, result.Confidence)
}

func TestMatchExactListingID(t *testing.T) {
	repo := memory.NewInventoryRepository()
	userID := uuid.New()
	item := seedItem(t, repo, &domain.InventoryItem{
		UserID: userID,
		SKU:    "DS-303",
		EbayID: strPtr("330012345"),
	})

	matcher := NewMatcher(repo, zap.NewNop())
	result, err := matcher.Match(context.Background(), userID, &domain.Return{
		ItemID: strPtr("330012345"),
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, item.ID, result.Item.ID)
	assert.Equal(t, domain.StrategyExactListing, result.Strategy)
	assert.Equal(t, 90, result.Confidence)
}

func TestMatchFuzzyAcceptsStrongCandidate(t *testing.T) {
	repo := memory.NewInventoryRepository()
	userID := uuid.New()
	creation := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	soldAt := creation.AddDate(0, 0, -10)

	item := seedItem(t, repo, &domain.InventoryItem{
		UserID:    userID,
		SKU:       "NDSL-01",
		Title:     "Nintendo DS Lite Blue Console",
		Sold:      true,
		PriceSold: f64Ptr(49.50),
		DateSold:  &soldAt,
		Buyer:     strPtr("collector_joe"),
	})

	matcher := NewMatcher(repo, zap.NewNop())
	result, err := matcher.Match(context.Background(), userID, &domain.Return{
		EbayReturnID:   "5002",
		RefundAmount:   f64Ptr(49.99),
		ItemTitle:      strPtr("Nintendo DS Lite Blue Console"),
		BuyerLoginName: strPtr("collector_joe"),
		CreationDate:   &creation,
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	// price 30 + title 25 + date 15 + buyer 25
	assert.Equal(t, item.ID, result.Item.ID)
	assert.Equal(t, domain.StrategyFuzzyMatch, result.Strategy)
	assert.Equal(t, 95, result.Confidence)
}

func TestMatchFuzzyTentativeBand(t *testing.T) {
	repo := memory.NewInventoryRepository()
	userID := uuid.New()
	creation := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	soldAt := creation.AddDate(0, 0, -10)

	item := seedItem(t, repo, &domain.InventoryItem{
		UserID:    userID,
		SKU:       "NDSL-02",
		Title:     "Nintendo DS Lite Blue Console",
		Sold:      true,
		PriceSold: f64Ptr(50),
		DateSold:  &soldAt,
	})

	matcher := NewMatcher(repo, zap.NewNop())
	result, err := matcher.Match(context.Background(), userID, &domain.Return{
		RefundAmount: f64Ptr(50),
		ItemTitle:    strPtr("Nintendo DS Lite Blue Console"),
		CreationDate: &creation,
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	// price 30 + title 25 + date 15 = 70: confident enough to suggest,
	// not enough to auto-link at full strength.
	assert.Equal(t, item.ID, result.Item.ID)
	assert.Equal(t, domain.StrategyFuzzyMatchLow, result.Strategy)
	assert.Equal(t, 70, result.Confidence)
}

func TestMatchFuzzyPicksGlobalMaximum(t *testing.T) {
	repo := memory.NewInventoryRepository()
	userID := uuid.New()
	creation := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	soldAt := creation.AddDate(0, 0, -5)

	// Both candidates sit inside the price window; only one agrees on
	// title and buyer.
	seedItem(t, repo, soldItem(userID, "GEN-01", 48, soldAt))
	strong := seedItem(t, repo, &domain.InventoryItem{
		UserID:    userID,
		SKU:       "GEN-02",
		Title:     "Sega Genesis Model 2 Console Bundle",
		Sold:      true,
		PriceSold: f64Ptr(50),
		DateSold:  &soldAt,
		Buyer:     strPtr("retro_hunter"),
	})

	matcher := NewMatcher(repo, zap.NewNop())
	result, err := matcher.Match(context.Background(), userID, &domain.Return{
		RefundAmount:   f64Ptr(50),
		ItemTitle:      strPtr("Sega Genesis Model 2 Console Bundle"),
		BuyerLoginName: strPtr("retro_hunter"),
		CreationDate:   &creation,
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, strong.ID, result.Item.ID)
}

func TestMatchFuzzyIgnoresSalesOutsideWindow(t *testing.T) {
	repo := memory.NewInventoryRepository()
	userID := uuid.New()
	creation := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	// Sold well before the 120-day lookback.
	staleSale := creation.AddDate(0, 0, -200)
	seedItem(t, repo, soldItem(userID, "OLD-01", 50, staleSale))

	matcher := NewMatcher(repo, zap.NewNop())
	result, err := matcher.Match(context.Background(), userID, &domain.Return{
		RefundAmount: f64Ptr(50),
		CreationDate: &creation,
	})
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestMatchBuyerFallback(t *testing.T) {
	repo := memory.NewInventoryRepository()
	userID := uuid.New()
	soldAt := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)

	item := seedItem(t, repo, &domain.InventoryItem{
		UserID:    userID,
		SKU:       "GBA-77",
		Title:     "Game Boy Advance SP Silver",
		Sold:      true,
		PriceSold: f64Ptr(65),
		DateSold:  &soldAt,
		Buyer:     strPtr("handheld_hoarder"),
	})

	matcher := NewMatcher(repo, zap.NewNop())

	// No refund amount, so the fuzzy tier is skipped entirely. Base 60 +
	// title 25 clears the acceptance threshold.
	result, err := matcher.Match(context.Background(), userID, &domain.Return{
		BuyerLoginName: strPtr("handheld_hoarder"),
		ItemTitle:      strPtr("Game Boy Advance SP Silver"),
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, item.ID, result.Item.ID)
	assert.Equal(t, domain.StrategyBuyerMatch, result.Strategy)
	assert.Equal(t, 85, result.Confidence)

	// Buyer name alone scores the base 60, under the tentative floor.
	result, err = matcher.Match(context.Background(), userID, &domain.Return{
		BuyerLoginName: strPtr("handheld_hoarder"),
	})
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestMatchNothingFound(t *testing.T) {
	repo := memory.NewInventoryRepository()
	matcher := NewMatcher(repo, zap.NewNop())

	result, err := matcher.Match(context.Background(), uuid.New(), &domain.Return{
		SKU:            strPtr("GHOST-1"),
		OrderID:        strPtr("00-00000-00000"),
		BuyerLoginName: strPtr("nobody"),
	})
	require.NoError(t, err)
	assert.Nil(t, result)
}

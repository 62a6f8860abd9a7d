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
	"github.com/gearflip/resaleapi/internal/ebay"
	"github.com/gearflip/resaleapi/internal/repository/memory"
)

type processorFixture struct {
	inventory *memory.InventoryRepository
	returns   *memory.ReturnRepository
	processor *Processor
	userID    uuid.UUID
}

func newProcessorFixture(t *testing.T) *processorFixture {
	t.Helper()
	inv := memory.NewInventoryRepository()
	rets := memory.NewReturnRepository()
	return &processorFixture{
		inventory: inv,
		returns:   rets,
		processor: NewProcessor(inv, rets, zap.NewNop()),
		userID:    uuid.New(),
	}
}

// seedSoldWithReturn creates a sold inventory item and a linked CLOSED
// return with no return shipping cost, the auto-waste shape.
func (f *processorFixture) seedSoldWithReturn(t *testing.T) (*domain.InventoryItem, *domain.Return) {
	t.Helper()
	soldAt := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	item := &domain.InventoryItem{
		UserID:    f.userID,
		SKU:       "PSP-3000",
		Title:     "Sony PSP 3000 Black",
		Status:    domain.ItemStatusCompleted,
		Sold:      true,
		Shipped:   true,
		PriceSold: f64Ptr(88),
		DateSold:  &soldAt,
		Buyer:     strPtr("psp_fan"),
		OrderID:   strPtr("17-33333-44444"),
		EbayFees:  f64Ptr(11.40),
	}
	require.NoError(t, f.inventory.Create(context.Background(), item))

	ret := &domain.Return{
		UserID:          f.userID,
		EbayReturnID:    "6001",
		InventoryItemID: &item.ID,
		ReturnStatus:    domain.ReturnStatusClosed,
		RefundAmount:    f64Ptr(88),
		OrderID:         strPtr("17-33333-44444"),
	}
	require.NoError(t, f.returns.Create(context.Background(), ret))
	return item, ret
}

func defaultOpts() ProcessorOptions {
	return ProcessorOptions{MinConfidence: 90, AutoRelist: true, AutoWaste: true}
}

func TestProcessorAppliesWaste(t *testing.T) {
	f := newProcessorFixture(t)
	item, ret := f.seedSoldWithReturn(t)

	summary, err := f.processor.Run(context.Background(), f.userID, nil, defaultOpts())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 0, summary.Errors)
	require.Len(t, summary.Outcomes, 1)
	assert.True(t, summary.Outcomes[0].Applied)
	assert.Equal(t, domain.ActionWaste, summary.Outcomes[0].Action)
	assert.Equal(t, 90, summary.Outcomes[0].Confidence)

	got, err := f.inventory.GetByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ItemStatusWaste, got.Status)
	assert.False(t, got.Sold)
	assert.False(t, got.Shipped)
	assert.False(t, got.Listed)
	assert.Nil(t, got.PriceSold)
	assert.Nil(t, got.Buyer)
	assert.Nil(t, got.OrderID)
	assert.Equal(t, 1, got.ReturnCount)
	assert.False(t, got.HasActiveReturn)
	require.NotNil(t, got.AutomaticReturn)
	assert.True(t, *got.AutomaticReturn)
	require.NotNil(t, got.LastReturnedOrder)
	assert.Equal(t, "17-33333-44444", *got.LastReturnedOrder)
	// No shipping cost on the return, so only the refund entry lands.
	require.Len(t, got.AdditionalCosts, 1)
	assert.Equal(t, domain.CostRefund, got.AdditionalCosts[0].Title)
	assert.Equal(t, 88.0, got.AdditionalCosts[0].Amount)

	gotRet, err := f.returns.GetByID(context.Background(), ret.ID)
	require.NoError(t, err)
	assert.True(t, gotRet.AutoProcessed)
}

func TestProcessorAppliesRelist(t *testing.T) {
	f := newProcessorFixture(t)
	item, ret := f.seedSoldWithReturn(t)
	ret.SKU = strPtr("PSP-3000")
	ret.ReturnShippingCost = f64Ptr(7.25)
	require.NoError(t, f.returns.Update(context.Background(), ret))

	listings := []ebay.Listing{{ItemID: "440011", SKU: "PSP-3000"}}
	summary, err := f.processor.Run(context.Background(), f.userID, listings, defaultOpts())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Processed)
	require.Len(t, summary.Outcomes, 1)
	assert.Equal(t, domain.ActionRelist, summary.Outcomes[0].Action)
	assert.Equal(t, 95, summary.Outcomes[0].Confidence)

	got, err := f.inventory.GetByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ItemStatusActive, got.Status)
	assert.True(t, got.Listed)
	assert.False(t, got.Sold)
	assert.Nil(t, got.Profit)
	require.Len(t, got.AdditionalCosts, 2)
	assert.Equal(t, domain.CostReturnShipping, got.AdditionalCosts[0].Title)
	assert.Equal(t, 7.25, got.AdditionalCosts[0].Amount)
	assert.Equal(t, domain.CostRefund, got.AdditionalCosts[1].Title)
}

func TestProcessorDryRunMutatesNothing(t *testing.T) {
	f := newProcessorFixture(t)
	item, ret := f.seedSoldWithReturn(t)

	opts := defaultOpts()
	opts.DryRun = true
	summary, err := f.processor.Run(context.Background(), f.userID, nil, opts)
	require.NoError(t, err)

	assert.True(t, summary.DryRun)
	assert.Equal(t, 1, summary.Processed)
	require.Len(t, summary.Outcomes, 1)
	assert.True(t, summary.Outcomes[0].Applied)

	got, err := f.inventory.GetByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ItemStatusCompleted, got.Status)
	assert.True(t, got.Sold)
	assert.Equal(t, 0, got.ReturnCount)
	assert.Empty(t, got.AdditionalCosts)

	gotRet, err := f.returns.GetByID(context.Background(), ret.ID)
	require.NoError(t, err)
	assert.False(t, gotRet.AutoProcessed)

	// A second dry run sees the same unprocessed return again.
	summary, err = f.processor.Run(context.Background(), f.userID, nil, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Processed)
}

func TestProcessorSkipsAlreadyProcessed(t *testing.T) {
	f := newProcessorFixture(t)
	item, _ := f.seedSoldWithReturn(t)

	// Mark the item with four processed indicators.
	auto := true
	now := time.Now()
	item.ReturnDate = &now
	item.ReturnCount = 1
	item.AutomaticReturn = &auto
	item.LastReturnedOrder = strPtr("17-33333-44444")
	require.NoError(t, f.inventory.Update(context.Background(), item))

	summary, err := f.processor.Run(context.Background(), f.userID, nil, defaultOpts())
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)
	require.Len(t, summary.Outcomes, 1)
	assert.False(t, summary.Outcomes[0].Applied)
	assert.Contains(t, summary.Outcomes[0].Reasoning, "Already processed against inventory")
}

func TestProcessorRespectsGates(t *testing.T) {
	t.Run("auto-waste disabled", func(t *testing.T) {
		f := newProcessorFixture(t)
		f.seedSoldWithReturn(t)

		opts := defaultOpts()
		opts.AutoWaste = false
		summary, err := f.processor.Run(context.Background(), f.userID, nil, opts)
		require.NoError(t, err)
		assert.Equal(t, 0, summary.Processed)
		assert.Equal(t, 1, summary.Skipped)
	})

	t.Run("confidence below minimum", func(t *testing.T) {
		f := newProcessorFixture(t)
		f.seedSoldWithReturn(t)

		opts := defaultOpts()
		opts.MinConfidence = 95 // waste branch scores 90
		summary, err := f.processor.Run(context.Background(), f.userID, nil, opts)
		require.NoError(t, err)
		assert.Equal(t, 0, summary.Processed)
		assert.Equal(t, 1, summary.Skipped)
	})
}

func TestProcessorSkipsUnlinkedReturn(t *testing.T) {
	f := newProcessorFixture(t)
	ret := &domain.Return{
		UserID:       f.userID,
		EbayReturnID: "6002",
		ReturnStatus: domain.ReturnStatusClosed,
		RefundAmount: f64Ptr(30),
	}
	require.NoError(t, f.returns.Create(context.Background(), ret))

	summary, err := f.processor.Run(context.Background(), f.userID, nil, defaultOpts())
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)
	require.Len(t, summary.Outcomes, 1)
	assert.Contains(t, summary.Outcomes[0].Reasoning, "No linked inventory item to apply to")
}

func TestProcessorContinuesPastBrokenLink(t *testing.T) {
	f := newProcessorFixture(t)

	// A return whose linked item was deleted behaves like an unlinked one.
	ghost := uuid.New()
	require.NoError(t, f.returns.Create(context.Background(), &domain.Return{
		UserID:          f.userID,
		EbayReturnID:    "6003",
		InventoryItemID: &ghost,
		ReturnStatus:    domain.ReturnStatusClosed,
	}))
	f.seedSoldWithReturn(t)

	summary, err := f.processor.Run(context.Background(), f.userID, nil, defaultOpts())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Errors)
}

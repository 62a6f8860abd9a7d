package reconcile

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gearflip/resaleapi/internal/domain"
	"github.com/gearflip/resaleapi/internal/ebay"
	"github.com/gearflip/resaleapi/internal/repository"
)

// ProcessorOptions controls one batch run
type ProcessorOptions struct {
	DryRun        bool
	MinConfidence int
	AutoRelist    bool
	AutoWaste     bool
}

// ItemOutcome records what happened to one return during a batch run
type ItemOutcome struct {
	EbayReturnID string
	Action       domain.DispositionAction
	Confidence   int
	Applied      bool
	Reasoning    []string
	Error        string
}

// Summary is the per-run accounting of a batch pass. In dry-run mode
// Processed counts what would have been applied; nothing is written.
type Summary struct {
	Total     int
	Processed int
	Skipped   int
	Errors    int
	DryRun    bool
	Outcomes  []ItemOutcome
}

type Processor struct {
	inventory repository.InventoryRepository
	returns   repository.ReturnRepository
	logger    *zap.Logger
	now       func() time.Time
}

// NewProcessor creates a new batch processor
func NewProcessor(inventory repository.InventoryRepository, returns repository.ReturnRepository, logger *zap.Logger) *Processor {
	return &Processor{
		inventory: inventory,
		returns:   returns,
		logger:    logger,
		now:       time.Now,
	}
}

// Run iterates all unprocessed returns for a user, classifies each against
// its linked inventory item, computes a recommendation, and applies it when
// every gate passes. Per-item errors are counted and skipped; the batch
// continues without rollback.
func (p *Processor) Run(ctx context.Context, userID uuid.UUID, listings []ebay.Listing, opts ProcessorOptions) (*Summary, error) {
	pending, err := p.returns.ListUnprocessed(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Total: len(pending), DryRun: opts.DryRun}

	for _, ret := range pending {
		outcome := p.processOne(ctx, ret, listings, opts)
		summary.Outcomes = append(summary.Outcomes, outcome)
		switch {
		case outcome.Error != "":
			summary.Errors++
		case outcome.Applied:
			summary.Processed++
		default:
			summary.Skipped++
		}
	}

	p.logger.Info("Batch return processing finished",
		zap.String("user_id", userID.String()),
		zap.Bool("dry_run", opts.DryRun),
		zap.Int("total", summary.Total),
		zap.Int("processed", summary.Processed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("errors", summary.Errors),
	)

	return summary, nil
}

func (p *Processor) processOne(ctx context.Context, ret *domain.Return, listings []ebay.Listing, opts ProcessorOptions) ItemOutcome {
	outcome := ItemOutcome{EbayReturnID: ret.EbayReturnID}

	var item *domain.InventoryItem
	if ret.InventoryItemID != nil {
		var err error
		item, err = p.inventory.GetByID(ctx, *ret.InventoryItemID)
		if err != nil && !isNotFound(err) {
			outcome.Error = err.Error()
			return outcome
		}
	}

	state := ClassifyProcessingState(ret, item)
	if state.Processed {
		outcome.Reasoning = append(outcome.Reasoning, "Already processed against inventory")
		return outcome
	}

	rec := Recommend(ret, listings)
	outcome.Action = rec.Action
	outcome.Confidence = rec.Confidence
	outcome.Reasoning = append(outcome.Reasoning, rec.Reasoning...)

	if !p.shouldApply(rec, opts) {
		return outcome
	}
	if item == nil {
		outcome.Reasoning = append(outcome.Reasoning, "No linked inventory item to apply to")
		return outcome
	}

	if opts.DryRun {
		// Dry-run mode reports what would be applied and mutates nothing,
		// including the autoProcessed flag.
		outcome.Applied = true
		return outcome
	}

	if err := p.apply(ctx, ret, item, rec.Action); err != nil {
		p.logger.Warn("Failed to apply disposition, continuing batch",
			zap.String("ebay_return_id", ret.EbayReturnID),
			zap.Error(err),
		)
		outcome.Error = err.Error()
		return outcome
	}

	outcome.Applied = true
	return outcome
}

func (p *Processor) shouldApply(rec Recommendation, opts ProcessorOptions) bool {
	if !rec.AutoProcessable || rec.Confidence < opts.MinConfidence {
		return false
	}
	switch rec.Action {
	case domain.ActionRelist:
		return opts.AutoRelist
	case domain.ActionWaste:
		return opts.AutoWaste
	default:
		return false
	}
}

func (p *Processor) apply(ctx context.Context, ret *domain.Return, item *domain.InventoryItem, action domain.DispositionAction) error {
	now := p.now()

	switch action {
	case domain.ActionWaste:
		ApplyWaste(item, ret, now)
	case domain.ActionRelist:
		ApplyRelist(item, ret, now)
	}

	// The item write is a single whole-record statement; a crash between it
	// and the return update leaves the return re-processable, not the item
	// half-mutated.
	if err := p.inventory.Update(ctx, item); err != nil {
		return err
	}

	ret.AutoProcessed = true
	ret.LastSync = now
	return p.returns.Update(ctx, ret)
}

// ApplyWaste writes a waste disposition to the item: the sale cycle is
// cleared, the item is pulled out of circulation, and the return's costs are
// appended.
func ApplyWaste(item *domain.InventoryItem, ret *domain.Return, at time.Time) {
	clearSaleFields(item)
	item.Status = domain.ItemStatusWaste
	item.Listed = false
	recordReturn(item, ret, at)
}

// ApplyRelist writes a relist disposition: the sale cycle is cleared and the
// item goes back to active listing state.
func ApplyRelist(item *domain.InventoryItem, ret *domain.Return, at time.Time) {
	clearSaleFields(item)
	item.Status = domain.ItemStatusActive
	item.Listed = true
	item.Profit = nil
	recordReturn(item, ret, at)
}

// clearSaleFields resets every field belonging to the completed sale cycle.
func clearSaleFields(item *domain.InventoryItem) {
	item.PriceSold = nil
	item.DateSold = nil
	item.EbayFees = nil
	item.TrackingNumber = nil
	item.Buyer = nil
	item.DaysListed = nil
	item.OrderID = nil
	item.ShippingCost = nil
	item.ROI = nil
	item.Sold = false
	item.Shipped = false
}

func recordReturn(item *domain.InventoryItem, ret *domain.Return, at time.Time) {
	returnDate := at
	if ret.CreationDate != nil {
		returnDate = *ret.CreationDate
	}
	item.ReturnDate = &returnDate
	item.ReturnCount++
	item.HasActiveReturn = false
	auto := true
	item.AutomaticReturn = &auto
	if ret.OrderID != nil {
		item.LastReturnedOrder = ret.OrderID
	}

	if cost := ret.ShippingCostValue(); cost > 0 {
		item.AdditionalCosts = append(item.AdditionalCosts, domain.AdditionalCost{
			Title:  domain.CostReturnShipping,
			Amount: cost,
		})
	}
	if ret.RefundAmount != nil && *ret.RefundAmount > 0 {
		item.AdditionalCosts = append(item.AdditionalCosts, domain.AdditionalCost{
			Title:  domain.CostRefund,
			Amount: *ret.RefundAmount,
		})
	}
}

package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gearflip/resaleapi/internal/domain"
	"github.com/gearflip/resaleapi/internal/ebay"
	"github.com/gearflip/resaleapi/internal/reconcile"
	"github.com/gearflip/resaleapi/internal/repository"
	"github.com/gearflip/resaleapi/pkg/errors"
)

// ManualLinkStrategy labels returns linked by hand rather than by the matcher.
const ManualLinkStrategy = "ManualLink"

// ListingsClient is the slice of the platform client the recommender needs
type ListingsClient interface {
	GetActiveListings(ctx context.Context, token string) (*ebay.ListingsResult, error)
}

// ProcessOptions controls one reconciliation pass
type ProcessOptions struct {
	DryRun        bool
	MinConfidence int
}

// ProcessResult wraps a batch summary with the failure modes the caller must
// distinguish: a rejected platform token and a concurrently running pass.
type ProcessResult struct {
	FailedOAuth bool
	Locked      bool
	Summary     *reconcile.Summary
}

// PendingReturn is one unprocessed return with its current recommendation,
// for manual-review display.
type PendingReturn struct {
	Return         *domain.Return
	Recommendation reconcile.Recommendation
	Processing     reconcile.ProcessingState
}

type reconcileService struct {
	client    ListingsClient
	repos     *repository.Repositories
	processor *reconcile.Processor
	lock      *RunLock
	logger    *zap.Logger
	now       func() time.Time
}

// NewReconcileService creates a new reconciliation service
func NewReconcileService(client ListingsClient, repos *repository.Repositories, lock *RunLock, logger *zap.Logger) *reconcileService {
	return &reconcileService{
		client:    client,
		repos:     repos,
		processor: reconcile.NewProcessor(repos.Inventory, repos.Return, logger),
		lock:      lock,
		logger:    logger,
		now:       time.Now,
	}
}

// ProcessReturns runs the batch processor over the user's unprocessed
// returns. Non-dry runs take the per-user run lock first.
func (s *reconcileService) ProcessReturns(ctx context.Context, user *domain.User, opts ProcessOptions) (*ProcessResult, error) {
	if !opts.DryRun {
		release, acquired, err := s.lock.Acquire(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		if !acquired {
			return &ProcessResult{Locked: true}, nil
		}
		defer release()
	}

	listings, failedOAuth, err := s.activeListings(ctx, user)
	if err != nil {
		return nil, err
	}
	if failedOAuth {
		return &ProcessResult{FailedOAuth: true}, nil
	}

	summary, err := s.processor.Run(ctx, user.ID, listings, reconcile.ProcessorOptions{
		DryRun:        opts.DryRun,
		MinConfidence: opts.MinConfidence,
		AutoRelist:    user.Settings.AutoRelistEnabled(),
		AutoWaste:     user.Settings.AutoWasteEnabled(),
	})
	if err != nil {
		return nil, err
	}

	return &ProcessResult{Summary: summary}, nil
}

// PendingReturns lists unprocessed returns with fresh recommendations for
// display; nothing is applied.
func (s *reconcileService) PendingReturns(ctx context.Context, user *domain.User) ([]PendingReturn, bool, error) {
	listings, failedOAuth, err := s.activeListings(ctx, user)
	if err != nil {
		return nil, false, err
	}
	if failedOAuth {
		return nil, true, nil
	}

	pending, err := s.repos.Return.ListUnprocessed(ctx, user.ID)
	if err != nil {
		return nil, false, err
	}

	out := make([]PendingReturn, 0, len(pending))
	for _, ret := range pending {
		var item *domain.InventoryItem
		if ret.InventoryItemID != nil {
			item, err = s.repos.Inventory.GetByID(ctx, *ret.InventoryItemID)
			if err != nil {
				if _, ok := err.(*errors.ErrNotFound); !ok {
					return nil, false, err
				}
				item = nil
			}
		}

		state := reconcile.ClassifyProcessingState(ret, item)
		if state.Processed {
			continue
		}

		out = append(out, PendingReturn{
			Return:         ret,
			Recommendation: reconcile.Recommend(ret, listings),
			Processing:     state,
		})
	}

	return out, false, nil
}

// LinkReturn manually binds an unmatched return to an inventory item.
func (s *reconcileService) LinkReturn(ctx context.Context, user *domain.User, returnID, itemID uuid.UUID) (*domain.Return, error) {
	ret, err := s.repos.Return.GetByID(ctx, returnID)
	if err != nil {
		return nil, err
	}
	if ret.UserID != user.ID {
		return nil, &errors.ErrNotFound{Resource: "return", ID: returnID.String()}
	}

	item, err := s.repos.Inventory.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.UserID != user.ID {
		return nil, &errors.ErrNotFound{Resource: "inventory item", ID: itemID.String()}
	}

	ret.InventoryItemID = &item.ID
	strategy := ManualLinkStrategy
	confidence := 100
	ret.MatchStrategy = &strategy
	ret.MatchConfidence = &confidence

	if err := s.repos.Return.Update(ctx, ret); err != nil {
		return nil, err
	}

	if !ret.ReturnStatus.IsTerminal() && !item.HasActiveReturn {
		item.HasActiveReturn = true
		if err := s.repos.Inventory.Update(ctx, item); err != nil {
			return nil, err
		}
	}

	return ret, nil
}

// ApplyDisposition applies a relist or waste outcome to a return's linked
// item on a reviewer's say-so, bypassing the confidence gates.
func (s *reconcileService) ApplyDisposition(ctx context.Context, user *domain.User, returnID uuid.UUID, action domain.DispositionAction) (*domain.InventoryItem, error) {
	if action != domain.ActionRelist && action != domain.ActionWaste {
		return nil, &errors.ErrInvalidStateTransition{From: domain.ActionManualReview, To: action}
	}

	ret, err := s.repos.Return.GetByID(ctx, returnID)
	if err != nil {
		return nil, err
	}
	if ret.UserID != user.ID {
		return nil, &errors.ErrNotFound{Resource: "return", ID: returnID.String()}
	}
	if ret.InventoryItemID == nil {
		return nil, &errors.ErrConflict{Resource: "return", Message: "no linked inventory item"}
	}

	item, err := s.repos.Inventory.GetByID(ctx, *ret.InventoryItemID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	switch action {
	case domain.ActionWaste:
		reconcile.ApplyWaste(item, ret, now)
	case domain.ActionRelist:
		reconcile.ApplyRelist(item, ret, now)
	}

	if err := s.repos.Inventory.Update(ctx, item); err != nil {
		return nil, err
	}

	ret.AutoProcessed = true
	ret.LastSync = now
	if err := s.repos.Return.Update(ctx, ret); err != nil {
		return nil, err
	}

	return item, nil
}

func (s *reconcileService) activeListings(ctx context.Context, user *domain.User) ([]ebay.Listing, bool, error) {
	result, err := s.client.GetActiveListings(ctx, tokenFor(user))
	if err != nil {
		return nil, false, err
	}
	if result.FailedOAuth {
		return nil, true, nil
	}
	return result.Listings, false, nil
}

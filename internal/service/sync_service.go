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

// ReturnsClient is the slice of the platform client the sync needs
type ReturnsClient interface {
	GetReturns(ctx context.Context, token string) (*ebay.ReturnsResult, error)
	GetReturnDetails(ctx context.Context, token, returnID string) (*ebay.ReturnDetailResult, error)
}

// SyncResult summarizes one sync pass. FailedOAuth means the platform
// rejected the user's token; the caller must re-authenticate out of band.
type SyncResult struct {
	Success     bool
	FailedOAuth bool
	Created     int
	Updated     int
	Unchanged   int
	Matched     int
	Skipped     int
}

type syncService struct {
	client        ReturnsClient
	repos         *repository.Repositories
	matcher       *reconcile.Matcher
	notifications *notificationService
	logger        *zap.Logger
	now           func() time.Time
}

// NewSyncService creates a new return-sync service
func NewSyncService(client ReturnsClient, repos *repository.Repositories, logger *zap.Logger) *syncService {
	return &syncService{
		client:        client,
		repos:         repos,
		matcher:       reconcile.NewMatcher(repos.Inventory, logger),
		notifications: NewNotificationService(repos, logger),
		logger:        logger,
		now:           time.Now,
	}
}

// SyncReturns pulls the user's return events from the platform, normalizes
// them, and upserts return records, linking new ones to inventory.
func (s *syncService) SyncReturns(ctx context.Context, user *domain.User) (*SyncResult, error) {
	token := tokenFor(user)

	listResult, err := s.client.GetReturns(ctx, token)
	if err != nil {
		return nil, err
	}
	if listResult.FailedOAuth {
		return &SyncResult{FailedOAuth: true}, nil
	}

	result := &SyncResult{Success: true}

	for _, payload := range listResult.Returns {
		outcome, err := s.syncOne(ctx, user, payload)
		if err != nil {
			s.logger.Warn("Failed to sync return, continuing",
				zap.String("ebay_return_id", payload.ReturnID),
				zap.Error(err),
			)
			result.Skipped++
			continue
		}
		if outcome.failedOAuth {
			result.Success = false
			result.FailedOAuth = true
			return result, nil
		}
		switch {
		case outcome.skipped:
			result.Skipped++
		case outcome.created:
			result.Created++
		case outcome.updated:
			result.Updated++
		default:
			result.Unchanged++
		}
		if outcome.matched {
			result.Matched++
		}
	}

	s.logger.Info("Return sync finished",
		zap.String("user_id", user.ID.String()),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("unchanged", result.Unchanged),
		zap.Int("matched", result.Matched),
		zap.Int("skipped", result.Skipped),
	)

	return result, nil
}

type syncOutcome struct {
	created     bool
	updated     bool
	skipped     bool
	matched     bool
	failedOAuth bool
}

func (s *syncService) syncOne(ctx context.Context, user *domain.User, payload ebay.ReturnPayload) (syncOutcome, error) {
	var out syncOutcome

	existing, err := s.repos.Return.GetByEbayReturnID(ctx, user.ID, payload.ReturnID)
	if err != nil {
		if _, ok := err.(*errors.ErrNotFound); !ok {
			return out, err
		}
		existing = nil
	}

	// A CLOSED record's content never changes again; touch the timestamp
	// and skip the detail fetch entirely.
	if existing != nil && existing.ReturnStatus.IsTerminal() {
		if err := s.repos.Return.TouchLastSync(ctx, existing.ID, s.now()); err != nil {
			return out, err
		}
		return out, nil
	}

	// Enrich the summary with the detail record before normalizing; most of
	// the tracking and refund fields only exist there.
	if payload.Detail == nil {
		detail, err := s.client.GetReturnDetails(ctx, tokenFor(user), payload.ReturnID)
		if err != nil {
			return out, err
		}
		if detail.FailedOAuth {
			out.failedOAuth = true
			return out, nil
		}
		payload.Detail = detail.Detail
	}

	incoming := reconcile.NormalizeReturn(payload)

	// An undefined status means the payload is inconsistent; leave the
	// stored record untouched rather than corrupt it.
	if string(incoming.ReturnStatus) == "" {
		s.logger.Warn("Return payload has no status, skipping update",
			zap.String("ebay_return_id", payload.ReturnID),
		)
		out.skipped = true
		return out, nil
	}

	if existing == nil {
		incoming.UserID = user.ID
		matched, err := s.linkToInventory(ctx, user.ID, incoming)
		if err != nil {
			return out, err
		}
		out.matched = matched

		if err := s.repos.Return.Create(ctx, incoming); err != nil {
			return out, err
		}
		out.created = true

		if isDelivered(incoming.TrackingStatus) {
			if err := s.notifications.NotifyReturnDelivered(ctx, user, incoming); err != nil {
				s.logger.Warn("Failed to create delivered notification", zap.Error(err))
			}
		}
		return out, nil
	}

	if !reconcile.HasReturnChanged(existing, incoming) {
		if err := s.repos.Return.TouchLastSync(ctx, existing.ID, s.now()); err != nil {
			return out, err
		}
		return out, nil
	}

	wasDelivered := isDelivered(existing.TrackingStatus)
	mergeReturn(existing, incoming)
	existing.LastSync = s.now()

	if existing.InventoryItemID == nil {
		matched, err := s.linkToInventory(ctx, user.ID, existing)
		if err != nil {
			return out, err
		}
		out.matched = matched
	}

	if err := s.repos.Return.Update(ctx, existing); err != nil {
		return out, err
	}
	out.updated = true

	if !wasDelivered && isDelivered(existing.TrackingStatus) {
		if err := s.notifications.NotifyReturnDelivered(ctx, user, existing); err != nil {
			s.logger.Warn("Failed to create delivered notification", zap.Error(err))
		}
	}

	return out, nil
}

// linkToInventory runs the matcher and records the link plus audit fields.
// No match is not an error; the return stays unlinked for manual review.
func (s *syncService) linkToInventory(ctx context.Context, userID uuid.UUID, ret *domain.Return) (bool, error) {
	match, err := s.matcher.Match(ctx, userID, ret)
	if err != nil {
		return false, err
	}
	if match == nil {
		return false, nil
	}

	ret.InventoryItemID = &match.Item.ID
	strategy := match.Strategy
	confidence := match.Confidence
	ret.MatchStrategy = &strategy
	ret.MatchConfidence = &confidence

	if !ret.ReturnStatus.IsTerminal() && !match.Item.HasActiveReturn {
		match.Item.HasActiveReturn = true
		if err := s.repos.Inventory.Update(ctx, match.Item); err != nil {
			return true, err
		}
	}

	return true, nil
}

// mergeReturn copies synced content fields from the incoming normalized
// record onto the stored one, preserving identity, linkage, and audit state.
func mergeReturn(existing, incoming *domain.Return) {
	existing.ReturnStatus = incoming.ReturnStatus
	existing.TrackingStatus = incoming.TrackingStatus
	existing.RefundStatus = incoming.RefundStatus
	existing.ReturnReason = incoming.ReturnReason
	existing.RefundAmount = incoming.RefundAmount
	existing.RefundCurrency = incoming.RefundCurrency
	existing.ReturnShippingCost = incoming.ReturnShippingCost
	existing.SellerRefundAmount = incoming.SellerRefundAmount
	existing.BuyerComments = incoming.BuyerComments
	existing.TrackingNumber = incoming.TrackingNumber
	existing.Carrier = incoming.Carrier
	existing.ShipDate = incoming.ShipDate
	existing.DeliveryDate = incoming.DeliveryDate
	if incoming.CreationDate != nil {
		existing.CreationDate = incoming.CreationDate
	}
	if incoming.OrderID != nil {
		existing.OrderID = incoming.OrderID
	}
	if incoming.ItemID != nil {
		existing.ItemID = incoming.ItemID
	}
	if incoming.ItemTitle != nil {
		existing.ItemTitle = incoming.ItemTitle
	}
	if incoming.SKU != nil {
		existing.SKU = incoming.SKU
	}
	if incoming.BuyerLoginName != nil {
		existing.BuyerLoginName = incoming.BuyerLoginName
	}
	if len(incoming.StatusHistory) > 0 {
		existing.StatusHistory = incoming.StatusHistory
	}
}

func isDelivered(status *string) bool {
	return status != nil && *status == domain.TrackingDelivered
}

func tokenFor(user *domain.User) string {
	if user.EbayAuthToken != nil {
		return *user.EbayAuthToken
	}
	return ""
}

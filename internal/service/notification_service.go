package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/gearflip/resaleapi/internal/domain"
	"github.com/gearflip/resaleapi/internal/repository"
)

type notificationService struct {
	repos  *repository.Repositories
	logger *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(repos *repository.Repositories, logger *zap.Logger) *notificationService {
	return &notificationService{
		repos:  repos,
		logger: logger,
	}
}

// NotifyReturnDelivered records a one-time alert that a returned item arrived
// back at the seller. Gated by the user's automatic-returns setting; the
// storage layer's unique constraint makes repeat calls no-ops.
func (s *notificationService) NotifyReturnDelivered(ctx context.Context, user *domain.User, ret *domain.Return) error {
	if !user.Settings.AutomaticReturnsEnabled() {
		return nil
	}

	data := map[string]interface{}{
		"ebay_return_id": ret.EbayReturnID,
	}
	if ret.SKU != nil {
		data["sku"] = *ret.SKU
	}
	if ret.TrackingNumber != nil {
		data["tracking_number"] = *ret.TrackingNumber
	}

	created, err := s.repos.Notification.Create(ctx, &domain.Notification{
		UserID:     user.ID,
		Type:       domain.NotificationReturnDelivered,
		ExternalID: ret.EbayReturnID,
		Data:       data,
	})
	if err != nil {
		return err
	}

	if created {
		s.logger.Info("Delivered-return notification created",
			zap.String("user_id", user.ID.String()),
			zap.String("ebay_return_id", ret.EbayReturnID),
		)
	}

	return nil
}

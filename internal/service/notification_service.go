package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/nurpe/fireops-orders/internal/model"
)

type NotificationService struct {
	store Store
	log   zerolog.Logger
}

func NewNotificationService(store Store, log zerolog.Logger) *NotificationService {
	return &NotificationService{store: store, log: log}
}

// List returns the caller's most recent notifications.
func (s *NotificationService) List(ctx context.Context, principal model.Principal, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.ListNotifications(ctx, principal.UserID, limit)
}

package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/fireops-orders/internal/model"
)

func TestListNotificationsClampsLimit(t *testing.T) {
	f := newFakeStore()
	svc := NewNotificationService(f, zerolog.Nop())

	principal := clientPrincipal()
	for i := 0; i < 60; i++ {
		related := uuid.New()
		f.notifications = append(f.notifications, &model.Notification{
			ID:        uuid.New(),
			UserID:    principal.UserID,
			Type:      model.NotifyWorkOrderReminder,
			RelatedID: &related,
			CreatedAt: testNow,
		})
	}

	got, err := svc.List(context.Background(), principal, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 50 {
		t.Fatalf("len = %d, want default limit 50", len(got))
	}

	got, err = svc.List(context.Background(), principal, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("len = %d, want 10", len(got))
	}
}

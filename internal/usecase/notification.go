package usecase

import (
	"context"
	"time"

	"github.com/totegamma/repoindex/internal/domain"
)

type NotificationUsecase struct {
	store NotificationStore
}

func NewNotificationUsecase(store NotificationStore) *NotificationUsecase {
	return &NotificationUsecase{store: store}
}

func (uc *NotificationUsecase) List(ctx context.Context, did string, limit int, before *string) ([]domain.Notification, error) {
	return uc.store.ListNotifications(ctx, did, limit, before)
}

func (uc *NotificationUsecase) CountUnread(ctx context.Context, did string) (int64, error) {
	return uc.store.CountUnreadNotifications(ctx, did)
}

// MarkSeen marks everything up to seenAt as read. A zero seenAt means now.
func (uc *NotificationUsecase) MarkSeen(ctx context.Context, did string, seenAt time.Time) error {
	if seenAt.IsZero() {
		seenAt = time.Now()
	}
	return uc.store.UpdateNotificationsSeen(ctx, did, seenAt)
}

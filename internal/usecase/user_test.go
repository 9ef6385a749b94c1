package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/totegamma/repoindex/internal/domain"
)

func TestUserUsecaseAuthenticate(t *testing.T) {
	store := &mockUserStore{dids: map[string]string{}}
	uc := NewUserUsecase(store)

	_, err := uc.Register(context.Background(), domain.RegisterUserInput{
		Did: "did:plc:alice", Username: "alice", Email: "alice@example.test", Password: "pw",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	did, err := uc.Authenticate(context.Background(), "alice", "pw")
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if did != "did:plc:alice" {
		t.Fatalf("unexpected did %s", did)
	}

	if _, err := uc.Authenticate(context.Background(), "alice", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestUserUsecaseRegisterRequiresFields(t *testing.T) {
	uc := NewUserUsecase(&mockUserStore{dids: map[string]string{}})
	if _, err := uc.Register(context.Background(), domain.RegisterUserInput{Did: "did:plc:alice"}); !errors.Is(err, domain.ErrContractViolation) {
		t.Fatalf("expected contract violation for empty input, got %v", err)
	}
}

type mockNotificationStore struct {
	seenAt time.Time
}

func (m *mockNotificationStore) ListNotifications(ctx context.Context, did string, limit int, before *string) ([]domain.Notification, error) {
	return nil, nil
}

func (m *mockNotificationStore) CountUnreadNotifications(ctx context.Context, did string) (int64, error) {
	return 0, nil
}

func (m *mockNotificationStore) UpdateNotificationsSeen(ctx context.Context, did string, seenAt time.Time) error {
	m.seenAt = seenAt
	return nil
}

func TestNotificationUsecaseMarkSeenDefaultsToNow(t *testing.T) {
	store := &mockNotificationStore{}
	uc := NewNotificationUsecase(store)

	before := time.Now()
	if err := uc.MarkSeen(context.Background(), "did:plc:alice", time.Time{}); err != nil {
		t.Fatalf("mark seen failed: %v", err)
	}
	if store.seenAt.Before(before) {
		t.Fatalf("seenAt %v not defaulted to now", store.seenAt)
	}
}

package usecase

import (
	"context"
	"time"

	"github.com/totegamma/repoindex"
	"github.com/totegamma/repoindex/internal/domain"
)

// RecordStore is the record side of the database.
type RecordStore interface {
	ValidateRecord(collection string, obj map[string]any) domain.ValidationResult
	CanIndexRecord(collection string, obj map[string]any) (bool, error)
	IndexRecord(ctx context.Context, uri repoindex.RecordURI, obj map[string]any) error
	DeleteRecord(ctx context.Context, uri repoindex.RecordURI) error
	GetRecord(ctx context.Context, uri repoindex.RecordURI) (map[string]any, error)
	ListCollectionsForDid(ctx context.Context, did string) ([]string, error)
	ListRecordsForCollection(ctx context.Context, q domain.ListRecordsQuery) ([]domain.RecordEntry, error)
	GetRepoRoot(ctx context.Context, did string) (string, error)
	UpdateRepoRoot(ctx context.Context, did, root string) error
}

// UserStore resolves and authenticates accounts.
type UserStore interface {
	RegisterUser(ctx context.Context, input domain.RegisterUserInput) error
	GetUser(ctx context.Context, handleOrDid string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserDid(ctx context.Context, handleOrDid string) (string, error)
	UpdateUserPassword(ctx context.Context, did, password string) error
	VerifyUserPassword(ctx context.Context, username, password string) (bool, error)
}

type NotificationStore interface {
	ListNotifications(ctx context.Context, did string, limit int, before *string) ([]domain.Notification, error)
	CountUnreadNotifications(ctx context.Context, did string) (int64, error)
	UpdateNotificationsSeen(ctx context.Context, did string, seenAt time.Time) error
}

type FeedStore interface {
	GetFeedRows(ctx context.Context, q domain.FeedQuery) ([]domain.FeedRow, error)
}

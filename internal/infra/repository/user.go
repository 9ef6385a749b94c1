package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/totegamma/repoindex"
	"github.com/totegamma/repoindex/internal/domain"
	"github.com/totegamma/repoindex/internal/infra/database/models"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	return r.db.WithContext(ctx).Create(&models.User{
		Did:            user.Did,
		Username:       user.Username,
		Email:          user.Email,
		Password:       user.Password,
		CreatedAt:      user.CreatedAt,
		LastSeenNotifs: user.LastSeenNotifs,
	}).Error
}

// Get resolves a did directly, anything else as a username ignoring ASCII case.
func (r *UserRepository) Get(ctx context.Context, handleOrDid string) (*domain.User, error) {
	if repoindex.IsDID(handleOrDid) {
		return r.take(ctx, "did = ?", handleOrDid)
	}
	return r.take(ctx, r.foldColumn("username")+" = ?", FoldASCII(handleOrDid))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.take(ctx, r.foldColumn("email")+" = ?", FoldASCII(email))
}

const (
	upperASCII = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerASCII = "abcdefghijklmnopqrstuvwxyz"
)

// foldColumn is the SQL counterpart of FoldASCII. postgres LOWER follows the
// database locale, sqlite LOWER only knows A-Z.
func (r *UserRepository) foldColumn(column string) string {
	if r.db.Dialector.Name() == "postgres" {
		return "TRANSLATE(" + column + ", '" + upperASCII + "', '" + lowerASCII + "')"
	}
	return "LOWER(" + column + ")"
}

func (r *UserRepository) UpdatePassword(ctx context.Context, did, hash string) error {
	return r.update(ctx, did, "password", hash)
}

func (r *UserRepository) UpdateLastSeenNotifs(ctx context.Context, did, seenAt string) error {
	return r.update(ctx, did, "last_seen_notifs", seenAt)
}

func (r *UserRepository) update(ctx context.Context, did, column, value string) error {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("did = ?", did).
		Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "user"}
	}
	return nil
}

func (r *UserRepository) take(ctx context.Context, cond string, arg string) (*domain.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where(cond, arg).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFoundError{Resource: "user"}
	}
	if err != nil {
		return nil, err
	}
	return &domain.User{
		Did:            user.Did,
		Username:       user.Username,
		Email:          user.Email,
		Password:       user.Password,
		CreatedAt:      user.CreatedAt,
		LastSeenNotifs: user.LastSeenNotifs,
	}, nil
}

// FoldASCII lower-cases A-Z only and leaves every other rune as is.
func FoldASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}

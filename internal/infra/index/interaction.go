package index

import (
	"context"

	"gorm.io/gorm"

	"github.com/totegamma/repoindex"
	"github.com/totegamma/repoindex/internal/domain"
	"github.com/totegamma/repoindex/internal/infra/database/models"
)

type subjectRecord struct {
	Subject   string `json:"subject"`
	CreatedAt string `json:"createdAt"`
}

type LikePlugin struct {
	base
}

func NewLikePlugin(v SchemaValidator) *LikePlugin {
	return &LikePlugin{base{collection: domain.CollectionLike, validator: v}}
}

func (p *LikePlugin) Tables() []any {
	return []any{&models.Like{}}
}

func (p *LikePlugin) Insert(ctx context.Context, tx *gorm.DB, uri repoindex.RecordURI, obj map[string]any, indexedAt string) error {
	record, err := decode[subjectRecord](obj)
	if err != nil {
		return err
	}
	return tx.WithContext(ctx).Create(&models.Like{
		URI:       uri.String(),
		Creator:   uri.Did,
		Subject:   record.Subject,
		CreatedAt: record.CreatedAt,
		IndexedAt: indexedAt,
	}).Error
}

func (p *LikePlugin) Delete(ctx context.Context, tx *gorm.DB, uri repoindex.RecordURI) error {
	return tx.WithContext(ctx).Where("uri = ?", uri.String()).Delete(&models.Like{}).Error
}

func (p *LikePlugin) NotifsForRecord(uri repoindex.RecordURI, obj map[string]any, indexedAt string) []domain.NotificationEvent {
	return subjectAuthorNotif(uri, obj, domain.ReasonLike, indexedAt)
}

type RepostPlugin struct {
	base
}

func NewRepostPlugin(v SchemaValidator) *RepostPlugin {
	return &RepostPlugin{base{collection: domain.CollectionRepost, validator: v}}
}

func (p *RepostPlugin) Tables() []any {
	return []any{&models.Repost{}}
}

func (p *RepostPlugin) Insert(ctx context.Context, tx *gorm.DB, uri repoindex.RecordURI, obj map[string]any, indexedAt string) error {
	record, err := decode[subjectRecord](obj)
	if err != nil {
		return err
	}
	return tx.WithContext(ctx).Create(&models.Repost{
		URI:       uri.String(),
		Creator:   uri.Did,
		Subject:   record.Subject,
		CreatedAt: record.CreatedAt,
		IndexedAt: indexedAt,
	}).Error
}

func (p *RepostPlugin) Delete(ctx context.Context, tx *gorm.DB, uri repoindex.RecordURI) error {
	return tx.WithContext(ctx).Where("uri = ?", uri.String()).Delete(&models.Repost{}).Error
}

func (p *RepostPlugin) NotifsForRecord(uri repoindex.RecordURI, obj map[string]any, indexedAt string) []domain.NotificationEvent {
	return subjectAuthorNotif(uri, obj, domain.ReasonRepost, indexedAt)
}

type FollowPlugin struct {
	base
}

func NewFollowPlugin(v SchemaValidator) *FollowPlugin {
	return &FollowPlugin{base{collection: domain.CollectionFollow, validator: v}}
}

func (p *FollowPlugin) Tables() []any {
	return []any{&models.Follow{}}
}

func (p *FollowPlugin) Insert(ctx context.Context, tx *gorm.DB, uri repoindex.RecordURI, obj map[string]any, indexedAt string) error {
	record, err := decode[subjectRecord](obj)
	if err != nil {
		return err
	}
	return tx.WithContext(ctx).Create(&models.Follow{
		URI:       uri.String(),
		Creator:   uri.Did,
		Subject:   record.Subject,
		CreatedAt: record.CreatedAt,
		IndexedAt: indexedAt,
	}).Error
}

func (p *FollowPlugin) Delete(ctx context.Context, tx *gorm.DB, uri repoindex.RecordURI) error {
	return tx.WithContext(ctx).Where("uri = ?", uri.String()).Delete(&models.Follow{}).Error
}

func (p *FollowPlugin) NotifsForRecord(uri repoindex.RecordURI, obj map[string]any, indexedAt string) []domain.NotificationEvent {
	record, err := decode[subjectRecord](obj)
	if err != nil || !repoindex.IsDID(record.Subject) {
		return nil
	}
	return []domain.NotificationEvent{
		notification(record.Subject, uri, domain.ReasonFollow, nil, indexedAt),
	}
}

// subjectAuthorNotif notifies the author of the record a like or repost points at.
func subjectAuthorNotif(uri repoindex.RecordURI, obj map[string]any, reason domain.NotificationReason, indexedAt string) []domain.NotificationEvent {
	record, err := decode[subjectRecord](obj)
	if err != nil {
		return nil
	}
	recipient := authorOf(record.Subject)
	if recipient == "" {
		return nil
	}
	subject := record.Subject
	return []domain.NotificationEvent{
		notification(recipient, uri, reason, &subject, indexedAt),
	}
}

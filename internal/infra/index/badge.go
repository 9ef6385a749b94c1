package index

import (
	"context"

	"gorm.io/gorm"

	"github.com/totegamma/repoindex"
	"github.com/totegamma/repoindex/internal/domain"
	"github.com/totegamma/repoindex/internal/infra/database/models"
)

type badgeRecord struct {
	Assertion struct {
		Type string  `json:"type"`
		Tag  *string `json:"tag,omitempty"`
	} `json:"assertion"`
	Subject   string `json:"subject"`
	CreatedAt string `json:"createdAt"`
}

type BadgePlugin struct {
	base
}

func NewBadgePlugin(v SchemaValidator) *BadgePlugin {
	return &BadgePlugin{base{collection: domain.CollectionBadge, validator: v}}
}

func (p *BadgePlugin) Tables() []any {
	return []any{&models.Badge{}}
}

func (p *BadgePlugin) Insert(ctx context.Context, tx *gorm.DB, uri repoindex.RecordURI, obj map[string]any, indexedAt string) error {
	record, err := decode[badgeRecord](obj)
	if err != nil {
		return err
	}
	return tx.WithContext(ctx).Create(&models.Badge{
		URI:           uri.String(),
		Creator:       uri.Did,
		Subject:       record.Subject,
		AssertionType: record.Assertion.Type,
		AssertionTag:  record.Assertion.Tag,
		CreatedAt:     record.CreatedAt,
		IndexedAt:     indexedAt,
	}).Error
}

func (p *BadgePlugin) Delete(ctx context.Context, tx *gorm.DB, uri repoindex.RecordURI) error {
	return tx.WithContext(ctx).Where("uri = ?", uri.String()).Delete(&models.Badge{}).Error
}

func (p *BadgePlugin) NotifsForRecord(uri repoindex.RecordURI, obj map[string]any, indexedAt string) []domain.NotificationEvent {
	record, err := decode[badgeRecord](obj)
	if err != nil || !repoindex.IsDID(record.Subject) {
		return nil
	}
	return []domain.NotificationEvent{
		notification(record.Subject, uri, domain.ReasonBadge, nil, indexedAt),
	}
}

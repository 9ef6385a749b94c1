package index

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/totegamma/repoindex"
	"github.com/totegamma/repoindex/internal/domain"
	"github.com/totegamma/repoindex/internal/infra/database/models"
)

type profileRecord struct {
	DisplayName string  `json:"displayName"`
	Description *string `json:"description,omitempty"`
	Badges      []struct {
		URI string `json:"uri"`
	} `json:"badges,omitempty"`
}

type ProfilePlugin struct {
	base
}

func NewProfilePlugin(v SchemaValidator) *ProfilePlugin {
	return &ProfilePlugin{base{collection: domain.CollectionProfile, validator: v}}
}

func (p *ProfilePlugin) Tables() []any {
	return []any{&models.Profile{}, &models.ProfileBadge{}}
}

func (p *ProfilePlugin) Insert(ctx context.Context, tx *gorm.DB, uri repoindex.RecordURI, obj map[string]any, indexedAt string) error {
	record, err := decode[profileRecord](obj)
	if err != nil {
		return err
	}

	profile := models.Profile{
		URI:         uri.String(),
		Creator:     uri.Did,
		DisplayName: record.DisplayName,
		Description: record.Description,
		IndexedAt:   indexedAt,
	}
	if err := tx.WithContext(ctx).Create(&profile).Error; err != nil {
		return err
	}

	if len(record.Badges) == 0 {
		return nil
	}

	badges := make([]models.ProfileBadge, 0, len(record.Badges))
	for _, b := range record.Badges {
		badges = append(badges, models.ProfileBadge{ProfileURI: profile.URI, BadgeURI: b.URI})
	}
	return tx.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&badges).Error
}

func (p *ProfilePlugin) Delete(ctx context.Context, tx *gorm.DB, uri repoindex.RecordURI) error {
	if err := tx.WithContext(ctx).Where("profile_uri = ?", uri.String()).Delete(&models.ProfileBadge{}).Error; err != nil {
		return err
	}
	return tx.WithContext(ctx).Where("uri = ?", uri.String()).Delete(&models.Profile{}).Error
}

func (p *ProfilePlugin) NotifsForRecord(uri repoindex.RecordURI, obj map[string]any, indexedAt string) []domain.NotificationEvent {
	return nil
}

package repository

import (
	"context"
	"strconv"

	"gorm.io/gorm"

	"github.com/totegamma/repoindex/internal/domain"
	"github.com/totegamma/repoindex/internal/infra/database/models"
)

// NotificationRow is a stored notification with the raw payload of the record
// that caused it. RecordRaw is nil once that record is gone.
type NotificationRow struct {
	models.Notification `gorm:"embedded"`
	RecordRaw           *string `gorm:"column:record_raw"`
}

// NotificationRepository is the notification sink.
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) WithTx(tx *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: tx}
}

func (r *NotificationRepository) Process(ctx context.Context, events []domain.NotificationEvent) error {
	if len(events) == 0 {
		return nil
	}

	rows := make([]models.Notification, 0, len(events))
	for _, e := range events {
		rows = append(rows, models.Notification{
			UserDid:       e.UserDid,
			RecordURI:     e.RecordURI,
			Author:        e.Author,
			Reason:        string(e.Reason),
			ReasonSubject: e.ReasonSubject,
			IndexedAt:     e.IndexedAt,
		})
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *NotificationRepository) DeleteForRecord(ctx context.Context, uri string) error {
	return r.db.WithContext(ctx).Where("record_uri = ?", uri).Delete(&models.Notification{}).Error
}

// List returns the newest notifications of did first. before is a cursor from
// NotificationCursor; a bare indexed_at is an exclusive bound on time alone.
func (r *NotificationRepository) List(ctx context.Context, did string, limit int, before *string) ([]NotificationRow, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := r.db.WithContext(ctx).
		Table("notifications").
		Select("notifications.*, records.raw AS record_raw").
		Joins("LEFT JOIN records ON records.uri = notifications.record_uri").
		Where("notifications.user_did = ?", did)

	if before != nil {
		at, key := domain.SplitCursor(*before)
		if key == "" {
			query = query.Where("notifications.indexed_at < ?", at)
		} else {
			id, err := strconv.ParseInt(key, 10, 64)
			if err != nil {
				return nil, domain.ContractViolationError{Reason: "malformed notification cursor"}
			}
			query = query.Where(
				"(notifications.indexed_at < ? OR (notifications.indexed_at = ? AND notifications.id < ?))",
				at, at, id,
			)
		}
	}

	var rows []NotificationRow
	err := query.
		Order("notifications.indexed_at DESC").
		Order("notifications.id DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// CountSince counts notifications of did indexed after since.
func (r *NotificationRepository) CountSince(ctx context.Context, did, since string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_did = ? AND indexed_at > ?", did, since).
		Count(&count).Error
	return count, err
}

// NotificationCursor is the paging cursor of a stored notification.
func NotificationCursor(n models.Notification) string {
	return domain.JoinCursor(n.IndexedAt, strconv.FormatInt(n.ID, 10))
}

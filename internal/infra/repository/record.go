package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/totegamma/repoindex/internal/domain"
	"github.com/totegamma/repoindex/internal/infra/database/models"
)

const defaultListLimit = 50

// RecordRepository is the generic record log.
type RecordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *RecordRepository) WithTx(tx *gorm.DB) *RecordRepository {
	return &RecordRepository{db: tx}
}

func (r *RecordRepository) Insert(ctx context.Context, record domain.RawRecord) error {
	return r.db.WithContext(ctx).Create(&models.Record{
		URI:        record.URI.String(),
		Did:        record.URI.Did,
		Collection: record.URI.Collection,
		RecordKey:  record.URI.RecordKey,
		Raw:        record.Raw,
		IndexedAt:  record.IndexedAt,
		ReceivedAt: record.ReceivedAt,
	}).Error
}

func (r *RecordRepository) Delete(ctx context.Context, uri string) error {
	return r.db.WithContext(ctx).Where("uri = ?", uri).Delete(&models.Record{}).Error
}

func (r *RecordRepository) Get(ctx context.Context, uri string) (*models.Record, error) {
	var record models.Record
	err := r.db.WithContext(ctx).
		Where("uri = ?", uri).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFoundError{Resource: "record"}
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListCollections returns the collection of every record owned by did,
// one entry per record.
func (r *RecordRepository) ListCollections(ctx context.Context, did string) ([]string, error) {
	var collections []string
	err := r.db.WithContext(ctx).
		Model(&models.Record{}).
		Where("did = ?", did).
		Order("collection ASC").
		Pluck("collection", &collections).Error
	return collections, err
}

func (r *RecordRepository) List(ctx context.Context, q domain.ListRecordsQuery) ([]models.Record, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := r.db.WithContext(ctx).
		Where("did = ? AND collection = ?", q.Did, q.Collection)

	if q.Before != nil {
		query = query.Where("record_key < ?", *q.Before)
	}
	if q.After != nil {
		query = query.Where("record_key > ?", *q.After)
	}

	if q.Reverse {
		query = query.Order("record_key DESC")
	} else {
		query = query.Order("record_key ASC")
	}

	var records []models.Record
	err := query.Limit(limit).Find(&records).Error
	return records, err
}

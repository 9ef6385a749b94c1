package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/totegamma/repoindex/internal/infra/database/models"
)

type RepoRootRepository struct {
	db *gorm.DB
}

func NewRepoRootRepository(db *gorm.DB) *RepoRootRepository {
	return &RepoRootRepository{db: db}
}

// Get returns "" when did has no root yet.
func (r *RepoRootRepository) Get(ctx context.Context, did string) (string, error) {
	var root models.RepoRoot
	err := r.db.WithContext(ctx).
		Where("did = ?", did).
		Take(&root).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return root.Root, nil
}

// Upsert overwrites whatever root did had before.
func (r *RepoRootRepository) Upsert(ctx context.Context, did, root, indexedAt string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "did"}},
		DoUpdates: clause.AssignmentColumns([]string{"root", "indexed_at"}),
	}).Create(&models.RepoRoot{
		Did:       did,
		Root:      root,
		IndexedAt: indexedAt,
	}).Error
}

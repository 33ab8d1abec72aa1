package settings

import (
	"context"

	"github.com/angelmondragon/warung-pos/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository reads and writes keyed settings rows.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Find loads the row stored under key or returns gorm.ErrRecordNotFound.
func (r *Repository) Find(ctx context.Context, key string) (*models.StoreSettings, error) {
	var row models.StoreSettings
	if err := r.db.WithContext(ctx).First(&row, "key = ?", key).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Upsert replaces every column of the row keyed by row.Key.
func (r *Repository) Upsert(ctx context.Context, row *models.StoreSettings) (*models.StoreSettings, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			UpdateAll: true,
		}).
		Create(row).Error
	if err != nil {
		return nil, err
	}
	return row, nil
}

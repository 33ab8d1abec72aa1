package transactions

import (
	"context"
	"time"

	"github.com/angelmondragon/warung-pos/pkg/db/models"
	"github.com/angelmondragon/warung-pos/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists completed sales.
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

// Create inserts a transaction row.
func (r *Repository) Create(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		return nil, err
	}
	return tx, nil
}

// FindByID loads a transaction or returns gorm.ErrRecordNotFound.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var row models.Transaction
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindByInvoice loads a transaction by its printed invoice number.
func (r *Repository) FindByInvoice(ctx context.Context, invoiceNo string) (*models.Transaction, error) {
	var row models.Transaction
	if err := r.db.WithContext(ctx).First(&row, "invoice_no = ?", invoiceNo).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ListFilter narrows the history. From/To bound created_at as a half-open
// range; Cursor resumes after the last row of a previous page.
type ListFilter struct {
	From   *time.Time
	To     *time.Time
	Cursor *pagination.Cursor
	Limit  int
}

// List returns the newest transactions first, fetching one row past the
// normalized limit so the caller can tell whether another page exists.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Transaction, error) {
	q := r.db.WithContext(ctx).Model(&models.Transaction{})
	if filter.From != nil {
		q = q.Where("created_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		q = q.Where("created_at < ?", filter.To.UTC())
	}
	if c := filter.Cursor; c != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", c.CreatedAt.UTC(), c.CreatedAt.UTC(), c.ID)
	}
	var rows []models.Transaction
	err := q.Order("created_at DESC, id DESC").Limit(pagination.LimitWithBuffer(filter.Limit)).Find(&rows).Error
	return rows, err
}

package product

import (
	"time"

	"github.com/angelmondragon/warung-pos/pkg/db/models"
	"github.com/angelmondragon/warung-pos/pkg/money"
	"github.com/google/uuid"
)

// ProductDTO is the menu item payload returned to clients.
type ProductDTO struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Price          int64     `json:"price"`
	PriceFormatted string    `json:"price_formatted"`
	Category       string    `json:"category"`
	ImageRef       *string   `json:"image_ref,omitempty"`
	IsAvailable    bool      `json:"is_available"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// FromModel maps a product row to its DTO.
func FromModel(m *models.Product) *ProductDTO {
	if m == nil {
		return nil
	}
	return &ProductDTO{
		ID:             m.ID,
		Name:           m.Name,
		Price:          m.Price,
		PriceFormatted: money.FormatRupiah(m.Price),
		Category:       m.Category,
		ImageRef:       m.ImageRef,
		IsAvailable:    m.IsAvailable,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/warung-pos/internal/events"
	"github.com/angelmondragon/warung-pos/internal/pricing"
	"github.com/angelmondragon/warung-pos/pkg/db/models"
	pkgerrors "github.com/angelmondragon/warung-pos/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Stall categories offered by the menu form. Any other non-empty value is accepted.
const (
	CategoryFood   = "Makanan"
	CategoryDrink  = "Minuman"
	CategoryExtras = "Tambahan"
)

// Service exposes menu management operations.
type Service interface {
	List(ctx context.Context, input ListInput) ([]ProductDTO, error)
	Categories(ctx context.Context) ([]string, error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	Create(ctx context.Context, input CreateInput) (*ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ListInput carries the search box and category chip of the POS screen.
type ListInput struct {
	Search        string
	Category      string
	AvailableOnly bool
}

// CreateInput holds the menu form. Price accepts numbers or formatted strings.
type CreateInput struct {
	Name        string
	Price       any
	Category    string
	ImageRef    *string
	IsAvailable *bool
}

// UpdateInput holds optional changes; nil fields are left untouched.
type UpdateInput struct {
	Name        *string
	Price       any
	Category    *string
	ImageRef    *string
	IsAvailable *bool
}

type repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, filter ListFilter) ([]models.Product, error)
	Categories(ctx context.Context) ([]string, error)
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type emitter interface {
	Emit(ctx context.Context, typ, subjectID string, payload any)
}

type service struct {
	repo repository
	feed emitter
}

// NewService builds the product service. feed may be nil.
func NewService(repo repository, feed emitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo, feed: feed}, nil
}

func (s *service) List(ctx context.Context, input ListInput) ([]ProductDTO, error) {
	rows, err := s.repo.List(ctx, ListFilter(input))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Categories(ctx context.Context) ([]string, error) {
	cats, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	if cats == nil {
		cats = []string{}
	}
	return cats, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(product), nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	price, err := parsePrice(input.Price)
	if err != nil {
		return nil, err
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = CategoryFood
	}

	product := &models.Product{
		Name:        name,
		Price:       price,
		Category:    category,
		ImageRef:    normalizeImage(input.ImageRef),
		IsAvailable: input.IsAvailable == nil || *input.IsAvailable,
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}

	dto := FromModel(created)
	s.emit(ctx, events.TypeProductChanged, dto)
	return dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*ProductDTO, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		product.Name = name
	}
	if input.Price != nil {
		price, err := parsePrice(input.Price)
		if err != nil {
			return nil, err
		}
		product.Price = price
	}
	if input.Category != nil {
		category := strings.TrimSpace(*input.Category)
		if category == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category cannot be empty")
		}
		product.Category = category
	}
	if input.ImageRef != nil {
		product.ImageRef = normalizeImage(input.ImageRef)
	}
	if input.IsAvailable != nil {
		product.IsAvailable = *input.IsAvailable
	}

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}

	dto := FromModel(updated)
	s.emit(ctx, events.TypeProductChanged, dto)
	return dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if s.feed != nil {
		s.feed.Emit(ctx, events.TypeProductDeleted, id.String(), map[string]string{"id": id.String()})
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) emit(ctx context.Context, typ string, dto *ProductDTO) {
	if s.feed == nil || dto == nil {
		return
	}
	s.feed.Emit(ctx, typ, dto.ID.String(), dto)
}

// parsePrice runs form input through the price normalizer. Inputs without any
// digits are rejected rather than silently stored as 0.
func parsePrice(raw any) (int64, error) {
	res := pricing.Parse(raw)
	if !res.OK {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "price must be a number").
			WithDetails(map[string]any{"reason": string(res.Reason)})
	}
	if res.Value < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	return res.Value, nil
}

func normalizeImage(ref *string) *string {
	if ref == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*ref)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

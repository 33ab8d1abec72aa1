// Package cart aggregates the items a cashier is ringing up for one session.
package cart

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/angelmondragon/warung-pos/internal/pricing"
	"github.com/angelmondragon/warung-pos/pkg/logger"
)

// LineItem is one product in the cart. UnitPrice is always normalized.
type LineItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	Category  string `json:"category,omitempty"`
	ImageRef  string `json:"image_ref,omitempty"`
}

// LineTotal is quantity times unit price.
func (l LineItem) LineTotal() int64 {
	return int64(l.Quantity) * l.UnitPrice
}

// Product is the catalog record handed to Add. Price may be any shape the
// price normalizer accepts.
type Product struct {
	ID       string
	Name     string
	Price    any
	Category string
	ImageRef string
}

// Store is a session-scoped cart. All methods are safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	items   []LineItem
	storage Storage
	logg    *logger.Logger
}

// NewStore builds an empty cart persisted through storage. A nil storage keeps
// the cart in memory only.
func NewStore(storage Storage, logg *logger.Logger) *Store {
	return &Store{storage: storage, logg: logg}
}

// Load restores the cart from storage. A missing slot yields an empty cart; an
// unreadable slot also yields an empty cart and the error is returned.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	if s.storage == nil {
		return nil
	}
	raw, err := s.storage.Load(ctx)
	if errors.Is(err, ErrSlotEmpty) {
		return nil
	}
	if err != nil {
		return err
	}
	items, err := decodeItems(raw)
	if err != nil {
		return err
	}
	s.items = items
	return nil
}

// Save flushes the current cart to storage.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx)
}

// Add puts one unit of product into the cart. An existing line is incremented
// and its price refreshed from the product; a new line is appended.
func (s *Store) Add(ctx context.Context, product Product) LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	price := pricing.Normalize(product.Price)
	id := strings.TrimSpace(product.ID)

	var line LineItem
	if idx := s.indexLocked(id); idx >= 0 {
		s.items[idx].Quantity++
		s.items[idx].UnitPrice = price
		line = s.items[idx]
	} else {
		line = LineItem{
			ProductID: id,
			Name:      product.Name,
			UnitPrice: price,
			Quantity:  1,
			Category:  product.Category,
			ImageRef:  product.ImageRef,
		}
		s.items = append(s.items, line)
	}
	s.persistLocked(ctx)
	return line
}

// Decrease removes one unit of productID; a line at quantity 1 is removed.
// Unknown ids are a no-op.
func (s *Store) Decrease(ctx context.Context, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(productID)
	if idx < 0 {
		return
	}
	if s.items[idx].Quantity > 1 {
		s.items[idx].Quantity--
	} else {
		s.items = append(s.items[:idx], s.items[idx+1:]...)
	}
	s.persistLocked(ctx)
}

// Remove drops the line for productID regardless of quantity.
func (s *Store) Remove(ctx context.Context, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(productID)
	if idx < 0 {
		return
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.persistLocked(ctx)
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.persistLocked(ctx)
}

// Commit hands a copy of the lines to fn while holding the cart lock. The
// cart is cleared only when fn succeeds, so a failed checkout leaves it intact
// and no mutation can slip in between the snapshot and the clear.
func (s *Store) Commit(ctx context.Context, fn func(items []LineItem) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(s.copyLocked()); err != nil {
		return err
	}
	s.items = nil
	s.persistLocked(ctx)
	return nil
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// Snapshot is an alias of Items used by checkout to freeze the cart.
func (s *Store) Snapshot() []LineItem {
	return s.Items()
}

// TotalItemCount sums quantities across lines.
func (s *Store) TotalItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, it := range s.items {
		total += it.Quantity
	}
	return total
}

// TotalAmount sums quantity times unit price across lines.
func (s *Store) TotalAmount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, it := range s.items {
		total += it.LineTotal()
	}
	return total
}

func (s *Store) indexLocked(productID string) int {
	productID = strings.TrimSpace(productID)
	for i, it := range s.items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) copyLocked() []LineItem {
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) saveLocked(ctx context.Context) error {
	if s.storage == nil {
		return nil
	}
	raw, err := encodeItems(s.items)
	if err != nil {
		return err
	}
	return s.storage.Save(ctx, raw)
}

// persistLocked writes through to storage; a failure never rolls back the
// in-memory mutation.
func (s *Store) persistLocked(ctx context.Context) {
	if err := s.saveLocked(ctx); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart persistence failed")
	}
}

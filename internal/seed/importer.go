// Package seed loads the stall's menu board and store info into a fresh database.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	product "github.com/angelmondragon/warung-pos/internal/products"
	"github.com/angelmondragon/warung-pos/internal/settings"
	"github.com/angelmondragon/warung-pos/pkg/db/models"
	"github.com/angelmondragon/warung-pos/pkg/logger"
	"gorm.io/gorm"
)

// Result reports what an import wrote.
type Result struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Importer writes menu items and store info in a single database transaction.
type Importer struct {
	db   txRunner
	logg *logger.Logger
}

func NewImporter(db txRunner, logg *logger.Logger) (*Importer, error) {
	if db == nil {
		return nil, fmt.Errorf("database client required")
	}
	return &Importer{db: db, logg: logg}, nil
}

// Import creates every menu item whose name is not already on the menu and
// replaces the store info. Any failure rolls the whole batch back.
func (i *Importer) Import(ctx context.Context, menu []MenuItem, info *settings.StoreInfo) (Result, error) {
	parsed := make([]models.Product, 0, len(menu))
	for _, item := range menu {
		price, err := ParseShorthand(item.Price)
		if err != nil {
			return Result{}, fmt.Errorf("menu item %q: %w", item.Name, err)
		}
		name := strings.TrimSpace(item.Name)
		if name == "" {
			return Result{}, fmt.Errorf("menu item with price %q has no name", item.Price)
		}
		category := strings.TrimSpace(item.Category)
		if category == "" {
			category = product.CategoryFood
		}
		parsed = append(parsed, models.Product{Name: name, Price: price, Category: category, IsAvailable: true})
	}

	var result Result
	err := i.db.WithTx(ctx, func(tx *gorm.DB) error {
		products := product.NewRepository(tx)
		for idx := range parsed {
			_, err := products.FindByName(ctx, parsed[idx].Name)
			if err == nil {
				result.Skipped++
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("lookup %q: %w", parsed[idx].Name, err)
			}
			if _, err := products.Create(ctx, &parsed[idx]); err != nil {
				return fmt.Errorf("create %q: %w", parsed[idx].Name, err)
			}
			result.Created++
		}

		if info != nil {
			if _, err := settings.NewRepository(tx).Upsert(ctx, settings.ToModel(*info)); err != nil {
				return fmt.Errorf("store info: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if i.logg != nil {
		ctx = i.logg.WithFields(ctx, map[string]any{"created": result.Created, "skipped": result.Skipped})
		i.logg.Info(ctx, "seed import complete")
	}
	return result, nil
}

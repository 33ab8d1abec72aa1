package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/warung-pos/api/responses"
	"github.com/angelmondragon/warung-pos/api/validators"
	"github.com/angelmondragon/warung-pos/internal/cart"
	product "github.com/angelmondragon/warung-pos/internal/products"
	pkgerrors "github.com/angelmondragon/warung-pos/pkg/errors"
	"github.com/angelmondragon/warung-pos/pkg/logger"
	"github.com/angelmondragon/warung-pos/pkg/money"
)

// CartRegistry resolves the cart for a session.
type CartRegistry interface {
	Get(ctx context.Context, sessionID string) *cart.Store
}

// ProductLookup loads the catalog record added to a cart.
type ProductLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*product.ProductDTO, error)
}

type cartLine struct {
	cart.LineItem
	LineTotal int64 `json:"line_total"`
}

type cartView struct {
	Items          []cartLine `json:"items"`
	TotalItems     int        `json:"total_items"`
	TotalAmount    int64      `json:"total_amount"`
	TotalFormatted string     `json:"total_formatted"`
}

func newCartView(items []cart.LineItem) cartView {
	view := cartView{Items: make([]cartLine, 0, len(items))}
	for _, it := range items {
		view.Items = append(view.Items, cartLine{LineItem: it, LineTotal: it.LineTotal()})
		view.TotalItems += it.Quantity
		view.TotalAmount += it.LineTotal()
	}
	view.TotalFormatted = money.FormatRupiah(view.TotalAmount)
	return view
}

func CartFetch(carts CartRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store := carts.Get(r.Context(), sessionID(r))
		responses.WriteSuccess(w, newCartView(store.Items()))
	}
}

type addCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
}

// CartAdd puts one unit of a catalog product in the cart, refreshing its price.
func CartAdd(carts CartRegistry, products ProductLookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := uuid.Parse(payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}
		item, err := products.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !item.IsAvailable {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeConflict, "product is not available"))
			return
		}

		imageRef := ""
		if item.ImageRef != nil {
			imageRef = *item.ImageRef
		}
		store := carts.Get(r.Context(), sessionID(r))
		store.Add(r.Context(), cart.Product{
			ID:       item.ID.String(),
			Name:     item.Name,
			Price:    item.Price,
			Category: item.Category,
			ImageRef: imageRef,
		})
		responses.WriteSuccess(w, newCartView(store.Items()))
	}
}

func CartDecrease(carts CartRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID := strings.TrimSpace(chi.URLParam(r, "productId"))
		if productID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}
		store := carts.Get(r.Context(), sessionID(r))
		store.Decrease(r.Context(), productID)
		responses.WriteSuccess(w, newCartView(store.Items()))
	}
}

func CartRemove(carts CartRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID := strings.TrimSpace(chi.URLParam(r, "productId"))
		if productID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}
		store := carts.Get(r.Context(), sessionID(r))
		store.Remove(r.Context(), productID)
		responses.WriteSuccess(w, newCartView(store.Items()))
	}
}

func CartClear(carts CartRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store := carts.Get(r.Context(), sessionID(r))
		store.Clear(r.Context())
		responses.WriteSuccess(w, newCartView(nil))
	}
}

package controllers

import (
	"net/http"

	"github.com/angelmondragon/warung-pos/api/responses"
	"github.com/angelmondragon/warung-pos/api/validators"
	product "github.com/angelmondragon/warung-pos/internal/products"
	pkgerrors "github.com/angelmondragon/warung-pos/pkg/errors"
	"github.com/angelmondragon/warung-pos/pkg/logger"
)

// ProductList serves the POS grid and the menu admin table.
func ProductList(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		availableOnly, err := validators.ParseQueryBool(r, "available", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.List(r.Context(), product.ListInput{
			Search:        validators.SanitizeString(r.URL.Query().Get("search"), 120),
			Category:      validators.SanitizeString(r.URL.Query().Get("category"), 60),
			AvailableOnly: availableOnly,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func ProductCategories(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cats, err := svc.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cats)
	}
}

func ProductGet(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "productId", "product")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

type createProductRequest struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Price       any     `json:"price"`
	Category    string  `json:"category" validate:"omitempty,max=60"`
	ImageRef    *string `json:"image_ref,omitempty" validate:"omitempty,max=2048"`
	IsAvailable *bool   `json:"is_available,omitempty"`
}

func (p createProductRequest) toInput() (product.CreateInput, error) {
	if p.Price == nil {
		return product.CreateInput{}, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"price": "is required"})
	}
	return product.CreateInput{
		Name:        p.Name,
		Price:       p.Price,
		Category:    p.Category,
		ImageRef:    p.ImageRef,
		IsAvailable: p.IsAvailable,
	}, nil
}

func ProductCreate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(logg.WithProductID(r.Context(), dto.ID.String()), "product created")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

type updateProductRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=120"`
	Price       any     `json:"price,omitempty"`
	Category    *string `json:"category,omitempty" validate:"omitempty,max=60"`
	ImageRef    *string `json:"image_ref,omitempty" validate:"omitempty,max=2048"`
	IsAvailable *bool   `json:"is_available,omitempty"`
}

func ProductUpdate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "productId", "product")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Update(r.Context(), id, product.UpdateInput{
			Name:        payload.Name,
			Price:       payload.Price,
			Category:    payload.Category,
			ImageRef:    payload.ImageRef,
			IsAvailable: payload.IsAvailable,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func ProductDelete(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "productId", "product")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

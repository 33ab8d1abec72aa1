package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	product "github.com/angelmondragon/warung-pos/internal/products"
	pkgerrors "github.com/angelmondragon/warung-pos/pkg/errors"
)

type stubProductService struct {
	listInput   product.ListInput
	created     *product.CreateInput
	updated     *product.UpdateInput
	deleted     uuid.UUID
	items       map[uuid.UUID]*product.ProductDTO
	createError error
}

func (s *stubProductService) List(_ context.Context, input product.ListInput) ([]product.ProductDTO, error) {
	s.listInput = input
	out := []product.ProductDTO{}
	for _, p := range s.items {
		out = append(out, *p)
	}
	return out, nil
}

func (s *stubProductService) Categories(context.Context) ([]string, error) {
	return []string{"Makanan", "Minuman"}, nil
}

func (s *stubProductService) Get(_ context.Context, id uuid.UUID) (*product.ProductDTO, error) {
	if p, ok := s.items[id]; ok {
		return p, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func (s *stubProductService) Create(_ context.Context, input product.CreateInput) (*product.ProductDTO, error) {
	if s.createError != nil {
		return nil, s.createError
	}
	s.created = &input
	return &product.ProductDTO{ID: uuid.New(), Name: input.Name, Price: 15000}, nil
}

func (s *stubProductService) Update(_ context.Context, id uuid.UUID, input product.UpdateInput) (*product.ProductDTO, error) {
	s.updated = &input
	return &product.ProductDTO{ID: id}, nil
}

func (s *stubProductService) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.items[id]; !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	s.deleted = id
	return nil
}

func TestProductListPassesFilters(t *testing.T) {
	svc := &stubProductService{}
	rec := serve(ProductList(svc, testLogger()), newRequest(http.MethodGet, "/api/v1/products?search=+nasi+&category=Makanan&available=true", "", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, product.ListInput{Search: "nasi", Category: "Makanan", AvailableOnly: true}, svc.listInput)

	bad := serve(ProductList(svc, testLogger()), newRequest(http.MethodGet, "/api/v1/products?available=maybe", "", nil))
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestProductCreate(t *testing.T) {
	svc := &stubProductService{}
	rec := serve(ProductCreate(svc, testLogger()), newRequest(http.MethodPost, "/api/v1/products", `{"name":"Nasi Goreng","price":"15.000","category":"Makanan"}`, nil))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.created)
	assert.Equal(t, "15.000", svc.created.Price)

	var dto product.ProductDTO
	decode(t, rec, &dto)
	assert.Equal(t, "Nasi Goreng", dto.Name)
}

func TestProductCreateValidation(t *testing.T) {
	svc := &stubProductService{}

	missingPrice := serve(ProductCreate(svc, testLogger()), newRequest(http.MethodPost, "/api/v1/products", `{"name":"Es Teh"}`, nil))
	assert.Equal(t, http.StatusBadRequest, missingPrice.Code)
	env := decode(t, missingPrice, nil)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Details, "price")

	missingName := serve(ProductCreate(svc, testLogger()), newRequest(http.MethodPost, "/api/v1/products", `{"price":5000}`, nil))
	assert.Equal(t, http.StatusBadRequest, missingName.Code)

	unknownField := serve(ProductCreate(svc, testLogger()), newRequest(http.MethodPost, "/api/v1/products", `{"name":"x","price":1,"stock":3}`, nil))
	assert.Equal(t, http.StatusBadRequest, unknownField.Code)
	assert.Nil(t, svc.created)
}

func TestProductUpdatePartial(t *testing.T) {
	svc := &stubProductService{}
	id := uuid.New()
	rec := serve(ProductUpdate(svc, testLogger()), newRequest(http.MethodPatch, "/api/v1/products/"+id.String(), `{"is_available":false}`, map[string]string{"productId": id.String()}))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.updated)
	require.NotNil(t, svc.updated.IsAvailable)
	assert.False(t, *svc.updated.IsAvailable)
	assert.Nil(t, svc.updated.Name)
	assert.Nil(t, svc.updated.Price)
}

func TestProductDelete(t *testing.T) {
	id := uuid.New()
	svc := &stubProductService{items: map[uuid.UUID]*product.ProductDTO{id: {ID: id}}}

	invalid := serve(ProductDelete(svc, testLogger()), newRequest(http.MethodDelete, "/api/v1/products/nope", "", map[string]string{"productId": "nope"}))
	assert.Equal(t, http.StatusBadRequest, invalid.Code)

	missing := uuid.New()
	notFound := serve(ProductDelete(svc, testLogger()), newRequest(http.MethodDelete, "/api/v1/products/"+missing.String(), "", map[string]string{"productId": missing.String()}))
	assert.Equal(t, http.StatusNotFound, notFound.Code)

	ok := serve(ProductDelete(svc, testLogger()), newRequest(http.MethodDelete, "/api/v1/products/"+id.String(), "", map[string]string{"productId": id.String()}))
	assert.Equal(t, http.StatusNoContent, ok.Code)
	assert.Equal(t, id, svc.deleted)
}

package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tradepost-labs/tradepost-backend/api/middleware"
	"github.com/tradepost-labs/tradepost-backend/internal/products"
	"github.com/tradepost-labs/tradepost-backend/pkg/enums"
	pkgerrors "github.com/tradepost-labs/tradepost-backend/pkg/errors"
	"github.com/tradepost-labs/tradepost-backend/pkg/pagination"
)

type stubProductService struct {
	createFn  func(ctx context.Context, principal products.Principal, input products.CreateProductInput) (*products.ProductDTO, error)
	deleteFn  func(ctx context.Context, principal products.Principal, id int64) error
	byStoreFn func(ctx context.Context, storeID int64) ([]products.ProductDTO, error)
}

func (s *stubProductService) Create(ctx context.Context, principal products.Principal, input products.CreateProductInput) (*products.ProductDTO, error) {
	return s.createFn(ctx, principal, input)
}

func (s *stubProductService) Update(context.Context, products.Principal, int64, products.UpdateProductInput) (*products.ProductDTO, error) {
	return nil, nil
}

func (s *stubProductService) Delete(ctx context.Context, principal products.Principal, id int64) error {
	return s.deleteFn(ctx, principal, id)
}

func (s *stubProductService) GetByID(context.Context, int64) (*products.ProductDTO, error) {
	return nil, nil
}

func (s *stubProductService) List(context.Context, pagination.Params) ([]products.ProductDTO, string, error) {
	return nil, "", nil
}

func (s *stubProductService) ListByStore(ctx context.Context, storeID int64) ([]products.ProductDTO, error) {
	return s.byStoreFn(ctx, storeID)
}

func TestProductCreateForwardsPrincipal(t *testing.T) {
	svc := &stubProductService{
		createFn: func(_ context.Context, principal products.Principal, input products.CreateProductInput) (*products.ProductDTO, error) {
			if principal.UserID != 42 {
				t.Fatalf("expected user 42 got %d", principal.UserID)
			}
			if principal.Role != enums.UserRoleSubUser {
				t.Fatalf("expected subuser role got %s", principal.Role)
			}
			if input.StoreID != 9001 {
				t.Fatalf("expected store 9001 got %d", input.StoreID)
			}
			return &products.ProductDTO{ID: 1, Name: input.Name, StoreID: input.StoreID}, nil
		},
	}

	body := strings.NewReader(`{"name":"Widget","category":"tools","description":"A very useful widget","available_quantity":10,"store_id":"9001"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", body)
	ctx := middleware.WithUserID(req.Context(), 42)
	ctx = middleware.WithRole(ctx, string(enums.UserRoleSubUser))
	resp := httptest.NewRecorder()
	ProductCreate(svc, nil)(resp, req.WithContext(ctx))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", resp.Code, resp.Body.String())
	}
}

func TestProductDeletePropagatesForbidden(t *testing.T) {
	svc := &stubProductService{
		deleteFn: func(_ context.Context, _ products.Principal, _ int64) error {
			return pkgerrors.New(pkgerrors.CodeForbidden, "you do not own this store")
		},
	}

	req := authedRequest(http.MethodDelete, "/api/v1/products/5", 42, nil)
	req = withURLParam(req, "productId", "5")
	resp := httptest.NewRecorder()
	ProductDelete(svc, nil)(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "you do not own this store") {
		t.Fatalf("expected ownership message, got %s", resp.Body.String())
	}
}

func TestStoreProductsParsesStoreID(t *testing.T) {
	svc := &stubProductService{
		byStoreFn: func(_ context.Context, storeID int64) ([]products.ProductDTO, error) {
			if storeID != 9001 {
				t.Fatalf("expected store 9001 got %d", storeID)
			}
			return []products.ProductDTO{{ID: 1, StoreID: storeID}}, nil
		},
	}

	req := authedRequest(http.MethodGet, "/api/v1/stores/9001/products", 42, nil)
	req = withURLParam(req, "storeId", "9001")
	resp := httptest.NewRecorder()
	StoreProducts(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

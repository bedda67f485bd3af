package products

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tradepost-labs/tradepost-backend/pkg/config"
	"github.com/tradepost-labs/tradepost-backend/pkg/db/models"
	"github.com/tradepost-labs/tradepost-backend/pkg/enums"
	pkgerrors "github.com/tradepost-labs/tradepost-backend/pkg/errors"
	"github.com/tradepost-labs/tradepost-backend/pkg/pagination"
)

type productRepository interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id int64) (*models.Product, error)
	List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Product, error)
	ListByStore(ctx context.Context, storeID int64) ([]models.Product, error)
	UpdateActive(ctx context.Context, id int64, updates map[string]any) (int64, error)
	SoftDelete(ctx context.Context, id, actorID int64, now time.Time) (int64, error)
}

type storeReader interface {
	FindByID(ctx context.Context, id int64) (*models.Store, error)
}

type idGenerator interface {
	NextID() int64
}

// Principal identifies the caller for ownership checks.
type Principal struct {
	UserID int64
	Role   enums.UserRole
}

// Service exposes the product ledger.
type Service interface {
	Create(ctx context.Context, principal Principal, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, principal Principal, id int64, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, principal Principal, id int64) error
	GetByID(ctx context.Context, id int64) (*ProductDTO, error)
	List(ctx context.Context, params pagination.Params) ([]ProductDTO, string, error)
	ListByStore(ctx context.Context, storeID int64) ([]ProductDTO, error)
}

type service struct {
	repo   productRepository
	stores storeReader
	ids    idGenerator
	cfg    config.ValidationConfig
}

// NewService builds the product service with the provided collaborators.
func NewService(repo productRepository, stores storeReader, ids idGenerator, cfg config.ValidationConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store reader required")
	}
	if ids == nil {
		return nil, fmt.Errorf("id generator required")
	}
	return &service{
		repo:   repo,
		stores: stores,
		ids:    ids,
		cfg:    cfg,
	}, nil
}

func (s *service) Create(ctx context.Context, principal Principal, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	category := strings.TrimSpace(input.Category)
	description := strings.TrimSpace(input.Description)

	if name == "" || category == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and category are required")
	}
	if err := s.validateDescription(description); err != nil {
		return nil, err
	}
	if err := s.validateQuantity(input.AvailableQuantity); err != nil {
		return nil, err
	}

	if err := s.authorizeStore(ctx, principal, input.StoreID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product := &models.Product{
		ID:                s.ids.NextID(),
		Name:              name,
		Category:          category,
		Description:       description,
		AvailableQuantity: input.AvailableQuantity,
		StoreID:           input.StoreID,
		CreatedOn:         now,
		CreatedBy:         principal.UserID,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist product")
	}
	return FromModel(product), nil
}

func (s *service) Update(ctx context.Context, principal Principal, id int64, input UpdateProductInput) (*ProductDTO, error) {
	if input.Name == nil && input.Category == nil && input.Description == nil && input.AvailableQuantity == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Provide at least one value to update")
	}

	product, err := s.loadProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeStore(ctx, principal, product.StoreID); err != nil {
		return nil, err
	}

	updates := map[string]any{
		"updated_on": time.Now().UTC(),
		"updated_by": principal.UserID,
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		updates["name"] = name
	}
	if input.Category != nil {
		category := strings.TrimSpace(*input.Category)
		if category == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category must not be empty")
		}
		updates["category"] = category
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if err := s.validateDescription(description); err != nil {
			return nil, err
		}
		updates["description"] = description
	}
	if input.AvailableQuantity != nil {
		if err := s.validateQuantity(*input.AvailableQuantity); err != nil {
			return nil, err
		}
		updates["available_quantity"] = *input.AvailableQuantity
	}

	affected, err := s.repo.UpdateActive(ctx, id, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	if affected == 0 {
		return nil, notFoundProduct(id)
	}

	return s.GetByID(ctx, id)
}

func (s *service) Delete(ctx context.Context, principal Principal, id int64) error {
	product, err := s.loadProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeStore(ctx, principal, product.StoreID); err != nil {
		return err
	}

	now := time.Now().UTC()
	affected, err := s.repo.SoftDelete(ctx, id, principal.UserID, now)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	if affected == 0 {
		return notFoundProduct(id)
	}
	return nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*ProductDTO, error) {
	product, err := s.loadProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(product), nil
}

func (s *service) List(ctx context.Context, params pagination.Params) ([]ProductDTO, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.List(ctx, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	nextCursor := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedOn: last.CreatedOn, ID: last.ID})
	}

	dtos := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return dtos, nextCursor, nil
}

func (s *service) ListByStore(ctx context.Context, storeID int64) ([]ProductDTO, error) {
	rows, err := s.repo.ListByStore(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products by store")
	}
	dtos := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return dtos, nil
}

func (s *service) loadProduct(ctx context.Context, id int64) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundProduct(id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

// authorizeStore lets admins touch any store's products; everyone else
// must own the store the product belongs to.
func (s *service) authorizeStore(ctx context.Context, principal Principal, storeID int64) error {
	if principal.Role == enums.UserRoleAdmin {
		return nil
	}

	store, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound,
				fmt.Sprintf("store not found against storeId: %d", storeID))
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	if store.StoreOwnerID != principal.UserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "you do not own this store")
	}
	return nil
}

func (s *service) validateDescription(description string) error {
	min := s.cfg.ProductDescMin
	max := s.cfg.ProductDescMax
	if min <= 0 {
		min = 10
	}
	if max <= 0 {
		max = 1000
	}
	if len(description) < min || len(description) > max {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("description must be between %d and %d characters long", min, max))
	}
	return nil
}

func (s *service) validateQuantity(quantity int) error {
	min := s.cfg.ProductQtyMin
	max := s.cfg.ProductQtyMax
	if max <= 0 {
		max = 99999
	}
	if quantity < min || quantity > max {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("availableQuantity must be between %d and %d", min, max))
	}
	return nil
}

func notFoundProduct(id int64) error {
	return pkgerrors.New(pkgerrors.CodeNotFound,
		fmt.Sprintf("product not found against productId: %d", id))
}

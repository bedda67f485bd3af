package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tradepost-labs/tradepost-backend/pkg/config"
	"github.com/tradepost-labs/tradepost-backend/pkg/db"
	"github.com/tradepost-labs/tradepost-backend/pkg/db/models"
	pkgerrors "github.com/tradepost-labs/tradepost-backend/pkg/errors"
	"github.com/tradepost-labs/tradepost-backend/pkg/logger"
	"github.com/tradepost-labs/tradepost-backend/pkg/pagination"
)

const (
	ownerActiveConstraint = "ux_stores_owner_active"
	phoneActiveConstraint = "ux_stores_phone_active"
)

type storeRepository interface {
	Create(ctx context.Context, store *models.Store) error
	FindByID(ctx context.Context, id int64) (*models.Store, error)
	FindActiveByOwner(ctx context.Context, ownerID int64) (*models.Store, error)
	FindActiveByPhone(ctx context.Context, phone string) (*models.Store, error)
	List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Store, error)
	UpdateActive(ctx context.Context, id int64, updates map[string]any) (int64, error)
	DeleteCascade(ctx context.Context, id, adminID int64, now time.Time) error
}

type userStoreRefWriter interface {
	SetStoreRef(ctx context.Context, userID, storeID int64) error
}

type idGenerator interface {
	NextID() int64
}

// Service exposes the admin store registry.
type Service interface {
	Create(ctx context.Context, adminID int64, input CreateStoreInput) (*StoreDTO, error)
	Update(ctx context.Context, adminID, id int64, input UpdateStoreInput) (*StoreDTO, error)
	Delete(ctx context.Context, adminID, id int64) error
	GetByID(ctx context.Context, id int64) (*StoreDTO, error)
	List(ctx context.Context, params pagination.Params) ([]StoreDTO, string, error)
}

type service struct {
	repo  storeRepository
	users userStoreRefWriter
	ids   idGenerator
	cfg   config.ValidationConfig
	logg  *logger.Logger
}

// NewService builds the store service with the provided collaborators.
func NewService(repo storeRepository, users userStoreRefWriter, ids idGenerator, cfg config.ValidationConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("user store ref writer required")
	}
	if ids == nil {
		return nil, fmt.Errorf("id generator required")
	}
	return &service{
		repo:  repo,
		users: users,
		ids:   ids,
		cfg:   cfg,
		logg:  logg,
	}, nil
}

func (s *service) Create(ctx context.Context, adminID int64, input CreateStoreInput) (*StoreDTO, error) {
	name := strings.TrimSpace(input.Name)
	location := strings.TrimSpace(input.Location)
	phone := strings.TrimSpace(input.Phone)

	if name == "" || location == "" || phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name, location and phone are required")
	}
	if input.StoreOwnerID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "storeOwnerId is required")
	}
	if err := s.validatePhone(phone); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindActiveByOwner(ctx, input.StoreOwnerID)
	switch {
	case err == nil:
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("user already has a store: %s", existing.Name))
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup store by owner")
	}

	if err := s.checkPhoneFree(ctx, phone, 0); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	store := &models.Store{
		ID:           s.ids.NextID(),
		Name:         name,
		Location:     location,
		Phone:        phone,
		StoreOwnerID: input.StoreOwnerID,
		CreatedOn:    now,
		CreatedBy:    adminID,
	}
	if err := s.repo.Create(ctx, store); err != nil {
		return nil, s.mapCreateError(err)
	}

	// Weak back-reference on the owner. The store row is already
	// authoritative, so a failed pointer write is logged, not surfaced.
	if err := s.users.SetStoreRef(ctx, store.StoreOwnerID, store.ID); err != nil && s.logg != nil {
		fields := map[string]any{"store_id": store.ID, "user_id": store.StoreOwnerID}
		s.logg.Error(s.logg.WithFields(ctx, fields), "store.backref_set_failed", err)
	}

	return FromModel(store), nil
}

func (s *service) Update(ctx context.Context, adminID, id int64, input UpdateStoreInput) (*StoreDTO, error) {
	if input.Name == nil && input.Location == nil && input.Phone == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Provide at least one value to update")
	}

	updates := map[string]any{
		"updated_on": time.Now().UTC(),
		"updated_by": adminID,
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		updates["name"] = name
	}
	if input.Location != nil {
		location := strings.TrimSpace(*input.Location)
		if location == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "location must not be empty")
		}
		updates["location"] = location
	}
	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		if err := s.validatePhone(phone); err != nil {
			return nil, err
		}
		if err := s.checkPhoneFree(ctx, phone, id); err != nil {
			return nil, err
		}
		updates["phone"] = phone
	}

	affected, err := s.repo.UpdateActive(ctx, id, updates)
	if err != nil {
		return nil, s.mapCreateError(err)
	}
	if affected == 0 {
		return nil, notFoundStore(id)
	}

	return s.GetByID(ctx, id)
}

func (s *service) Delete(ctx context.Context, adminID, id int64) error {
	now := time.Now().UTC()
	if err := s.repo.DeleteCascade(ctx, id, adminID, now); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundStore(id)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete store")
	}
	return nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*StoreDTO, error) {
	store, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundStore(id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return FromModel(store), nil
}

func (s *service) List(ctx context.Context, params pagination.Params) ([]StoreDTO, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.List(ctx, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stores")
	}

	nextCursor := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedOn: last.CreatedOn, ID: last.ID})
	}

	dtos := make([]StoreDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return dtos, nextCursor, nil
}

// checkPhoneFree enforces phone exclusivity among live stores. The store
// identified by excludeID may keep its own phone.
func (s *service) checkPhoneFree(ctx context.Context, phone string, excludeID int64) error {
	holder, err := s.repo.FindActiveByPhone(ctx, phone)
	switch {
	case err == nil:
		if holder.ID != excludeID {
			return pkgerrors.New(pkgerrors.CodeConflict, "store exists with same phone")
		}
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup store by phone")
	}
}

// mapCreateError folds unique index violations from the write race
// window back into the same conflict answers the precondition checks give.
func (s *service) mapCreateError(err error) error {
	switch {
	case db.IsUniqueViolation(err, ownerActiveConstraint):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "user already has a store")
	case db.IsUniqueViolation(err, phoneActiveConstraint):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "store exists with same phone")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist store")
	}
}

func (s *service) validatePhone(phone string) error {
	length := s.cfg.PhoneLength
	if length <= 0 {
		length = 10
	}
	if len(phone) != length || !isDigits(phone) {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("phone must be a %d-digit number", length))
	}
	return nil
}

func notFoundStore(id int64) error {
	return pkgerrors.New(pkgerrors.CodeNotFound,
		fmt.Sprintf("store not found against storeId: %d", id))
}

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

package categories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tradepost-labs/tradepost-backend/pkg/db"
	"github.com/tradepost-labs/tradepost-backend/pkg/db/models"
	pkgerrors "github.com/tradepost-labs/tradepost-backend/pkg/errors"
)

const nameConstraint = "ux_categories_name"

type categoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	FindByID(ctx context.Context, id int64) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	SoftDelete(ctx context.Context, id, actorID int64, now time.Time) (int64, error)
}

type idGenerator interface {
	NextID() int64
}

// Service exposes the category catalog.
type Service interface {
	List(ctx context.Context) ([]CategoryDTO, error)
	GetByID(ctx context.Context, id int64) (*CategoryDTO, error)
	Create(ctx context.Context, adminID int64, name string) (*CategoryDTO, error)
	Delete(ctx context.Context, adminID, id int64) error
}

type service struct {
	repo categoryRepository
	ids  idGenerator
}

// NewService builds the category service with the provided collaborators.
func NewService(repo categoryRepository, ids idGenerator) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	if ids == nil {
		return nil, fmt.Errorf("id generator required")
	}
	return &service{repo: repo, ids: ids}, nil
}

func (s *service) List(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	dtos := make([]CategoryDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return dtos, nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*CategoryDTO, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound,
				fmt.Sprintf("category not found against categoryId: %d", id))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	return FromModel(category), nil
}

func (s *service) Create(ctx context.Context, adminID int64, name string) (*CategoryDTO, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	category := &models.Category{
		ID:        s.ids.NextID(),
		Name:      name,
		CreatedOn: time.Now().UTC(),
		CreatedBy: adminID,
	}
	if err := s.repo.Create(ctx, category); err != nil {
		if db.IsUniqueViolation(err, nameConstraint) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "category exists with same name")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist category")
	}
	return FromModel(category), nil
}

func (s *service) Delete(ctx context.Context, adminID, id int64) error {
	now := time.Now().UTC()
	affected, err := s.repo.SoftDelete(ctx, id, adminID, now)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound,
			fmt.Sprintf("category not found against categoryId: %d", id))
	}
	return nil
}

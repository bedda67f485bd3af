package users

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
	"github.com/tradepost-labs/tradepost-backend/pkg/enums"
	pkgerrors "github.com/tradepost-labs/tradepost-backend/pkg/errors"
	"github.com/tradepost-labs/tradepost-backend/pkg/pagination"
)

const emailConstraint = "ux_users_email"

type userRepository interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.User, error)
	UpdateActive(ctx context.Context, id int64, updates map[string]any) (int64, error)
	DeleteCascade(ctx context.Context, id, adminID int64, now time.Time) error
}

// Service exposes the admin user surface.
type Service interface {
	List(ctx context.Context, params pagination.Params) ([]UserDTO, string, error)
	GetByID(ctx context.Context, id int64) (*UserDTO, error)
	Update(ctx context.Context, adminID, id int64, input UpdateUserInput) (*UserDTO, error)
	UpdateRole(ctx context.Context, adminID, id int64, role enums.UserRole) (*UserDTO, error)
	Delete(ctx context.Context, adminID, id int64) error
}

type service struct {
	repo userRepository
	cfg  config.ValidationConfig
}

// NewService builds the user service with the provided repository.
func NewService(repo userRepository, cfg config.ValidationConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{repo: repo, cfg: cfg}, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) ([]UserDTO, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.List(ctx, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}

	nextCursor := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedOn: last.CreatedOn, ID: last.ID})
	}

	dtos := make([]UserDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return dtos, nextCursor, nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundUser(id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return FromModel(user), nil
}

func (s *service) Update(ctx context.Context, adminID, id int64, input UpdateUserInput) (*UserDTO, error) {
	if input.Name == nil && input.Email == nil {
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
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if !strings.Contains(email, "@") {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email")
		}
		updates["email"] = email
	}

	affected, err := s.repo.UpdateActive(ctx, id, updates)
	if err != nil {
		if db.IsUniqueViolation(err, emailConstraint) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "user exists with same email")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}
	if affected == 0 {
		return nil, notFoundUser(id)
	}

	return s.GetByID(ctx, id)
}

func (s *service) UpdateRole(ctx context.Context, adminID, id int64, role enums.UserRole) (*UserDTO, error) {
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("invalid role: %s, must be one of ['admin', 'subuser']", role))
	}

	affected, err := s.repo.UpdateActive(ctx, id, map[string]any{
		"role":       role,
		"updated_on": time.Now().UTC(),
		"updated_by": adminID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user role")
	}
	if affected == 0 {
		return nil, notFoundUser(id)
	}

	return s.GetByID(ctx, id)
}

func (s *service) Delete(ctx context.Context, adminID, id int64) error {
	now := time.Now().UTC()
	if err := s.repo.DeleteCascade(ctx, id, adminID, now); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundUser(id)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
	}
	return nil
}

func notFoundUser(id int64) error {
	return pkgerrors.New(pkgerrors.CodeNotFound,
		fmt.Sprintf("user not found against userId: %d", id))
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tradepost-labs/tradepost-backend/internal/users"
	pkgAuth "github.com/tradepost-labs/tradepost-backend/pkg/auth"
	"github.com/tradepost-labs/tradepost-backend/pkg/config"
	"github.com/tradepost-labs/tradepost-backend/pkg/db"
	"github.com/tradepost-labs/tradepost-backend/pkg/db/models"
	"github.com/tradepost-labs/tradepost-backend/pkg/enums"
	pkgerrors "github.com/tradepost-labs/tradepost-backend/pkg/errors"
	"github.com/tradepost-labs/tradepost-backend/pkg/security"
)

const (
	invalidCredentialsMessage = "invalid credentials"
	emailConstraint           = "ux_users_email"
)

type userRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type idGenerator interface {
	NextID() int64
}

// Service defines the behavior needed by the auth controller.
type Service interface {
	Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
}

type service struct {
	users         userRepository
	ids           idGenerator
	jwtCfg        config.JWTConfig
	passwordCfg   config.PasswordConfig
	validationCfg config.ValidationConfig
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo         userRepository
	IDGenerator      idGenerator
	JWTConfig        config.JWTConfig
	PasswordConfig   config.PasswordConfig
	ValidationConfig config.ValidationConfig
}

// NewService constructs an auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.IDGenerator == nil {
		return nil, fmt.Errorf("id generator is required")
	}
	return &service{
		users:         params.UserRepo,
		ids:           params.IDGenerator,
		jwtCfg:        params.JWTConfig,
		passwordCfg:   params.PasswordConfig,
		validationCfg: params.ValidationConfig,
	}, nil
}

func (s *service) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email")
	}
	minLen := s.validationCfg.PasswordMinLength
	if minLen <= 0 {
		minLen = 8
	}
	if len(req.Password) < minLen {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("password must be at least %d characters long", minLen))
	}
	if req.Password != req.ConfirmPassword {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "passwords do not match")
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           s.ids.NextID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         enums.UserRoleSubUser,
		CreatedOn:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, emailConstraint) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "user exists with same email")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	return s.issueToken(now, user)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := security.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	return s.issueToken(time.Now().UTC(), user)
}

func (s *service) issueToken(now time.Time, user *models.User) (*AuthResponse, error) {
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID:  user.ID,
		Role:    user.Role,
		StoreID: user.StoreID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &AuthResponse{
		AccessToken: token,
		User:        users.FromModel(user),
	}, nil
}

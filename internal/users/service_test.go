package users

import (
	"context"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tradepost-labs/tradepost-backend/pkg/config"
	"github.com/tradepost-labs/tradepost-backend/pkg/db/models"
	"github.com/tradepost-labs/tradepost-backend/pkg/enums"
	pkgerrors "github.com/tradepost-labs/tradepost-backend/pkg/errors"
	"github.com/tradepost-labs/tradepost-backend/pkg/pagination"
)

func TestNewServiceRequiresRepo(t *testing.T) {
	if _, err := NewService(nil, config.ValidationConfig{}); err == nil {
		t.Fatal("expected error without repo")
	}
}

func TestUpdateRequiresAtLeastOneField(t *testing.T) {
	svc := newTestService(t, &stubUserRepo{})

	_, err := svc.Update(context.Background(), 1, 7, UpdateUserInput{})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestUpdateRejectsBadEmail(t *testing.T) {
	svc := newTestService(t, &stubUserRepo{})

	_, err := svc.Update(context.Background(), 1, 7, UpdateUserInput{Email: stringPtr("not-an-email")})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestUpdateMapsEmailConflict(t *testing.T) {
	repo := &stubUserRepo{updateErr: errDuplicateEmail{}}
	svc := newTestService(t, repo, withUser(baseUser(7)))

	_, err := svc.Update(context.Background(), 1, 7, UpdateUserInput{Email: stringPtr("taken@test.local")})
	assertCode(t, err, pkgerrors.CodeConflict)
	if !strings.Contains(err.Error(), "user exists with same email") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestUpdateMissedFilterReturnsNotFound(t *testing.T) {
	repo := &stubUserRepo{updateAffected: 0}
	svc := newTestService(t, repo)

	_, err := svc.Update(context.Background(), 1, 7, UpdateUserInput{Name: stringPtr("New Name")})
	assertCode(t, err, pkgerrors.CodeNotFound)
	if !strings.Contains(err.Error(), "userId: 7") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestUpdateRoleRejectsUnknownRole(t *testing.T) {
	svc := newTestService(t, &stubUserRepo{})

	_, err := svc.UpdateRole(context.Background(), 1, 7, enums.UserRole("owner"))
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestUpdateRoleSuccess(t *testing.T) {
	promoted := baseUser(7)
	promoted.Role = enums.UserRoleAdmin
	repo := &stubUserRepo{updateAffected: 1, byID: promoted}
	svc := newTestService(t, repo)

	dto, err := svc.UpdateRole(context.Background(), 1, 7, enums.UserRoleAdmin)
	if err != nil {
		t.Fatalf("update role: %v", err)
	}
	if dto.Role != enums.UserRoleAdmin {
		t.Fatalf("expected admin role, got %s", dto.Role)
	}
	if repo.lastUpdates["role"] != enums.UserRoleAdmin {
		t.Fatalf("expected role in update map, got %v", repo.lastUpdates)
	}
}

func TestDeleteNotFound(t *testing.T) {
	repo := &stubUserRepo{deleteErr: gorm.ErrRecordNotFound}
	svc := newTestService(t, repo)

	err := svc.Delete(context.Background(), 1, 7)
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestDeleteCascades(t *testing.T) {
	repo := &stubUserRepo{}
	svc := newTestService(t, repo)

	if err := svc.Delete(context.Background(), 1, 7); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(repo.deleteCalls) != 1 || repo.deleteCalls[0] != 7 {
		t.Fatalf("expected cascade for user 7, got %v", repo.deleteCalls)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo := &stubUserRepo{byIDErr: gorm.ErrRecordNotFound}
	svc := newTestService(t, repo)

	_, err := svc.GetByID(context.Background(), 7)
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestListReturnsNextCursorWhenPageFull(t *testing.T) {
	rows := make([]models.User, 0, pagination.DefaultLimit+1)
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < pagination.DefaultLimit+1; i++ {
		user := *baseUser(int64(1000 - i))
		user.CreatedOn = base.Add(-time.Duration(i) * time.Minute)
		rows = append(rows, user)
	}
	repo := &stubUserRepo{listRows: rows}
	svc := newTestService(t, repo)

	dtos, next, err := svc.List(context.Background(), pagination.Params{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(dtos) != pagination.DefaultLimit {
		t.Fatalf("expected %d rows, got %d", pagination.DefaultLimit, len(dtos))
	}
	if next == "" {
		t.Fatal("expected next cursor")
	}
}

type serviceOption func(*stubUserRepo)

func withUser(user *models.User) serviceOption {
	return func(repo *stubUserRepo) {
		repo.byID = user
	}
}

func newTestService(t *testing.T, repo *stubUserRepo, opts ...serviceOption) Service {
	t.Helper()
	for _, opt := range opts {
		opt(repo)
	}
	svc, err := NewService(repo, config.ValidationConfig{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func baseUser(id int64) *models.User {
	return &models.User{
		ID:           id,
		Name:         "Sam Vendor",
		Email:        "sam@test.local",
		PasswordHash: "x",
		Role:         enums.UserRoleSubUser,
		CreatedOn:    time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
	}
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected code %s, got %v", code, err)
	}
}

func stringPtr(value string) *string {
	return &value
}

// errDuplicateEmail mimics the driver error for the users email index.
type errDuplicateEmail struct{}

func (errDuplicateEmail) Error() string {
	return `duplicate key value violates unique constraint "ux_users_email"`
}

type stubUserRepo struct {
	byID    *models.User
	byIDErr error

	listRows []models.User
	listErr  error

	updateAffected int64
	updateErr      error
	lastUpdates    map[string]any

	deleteErr   error
	deleteCalls []int64
}

func (s *stubUserRepo) FindByID(context.Context, int64) (*models.User, error) {
	if s.byIDErr != nil {
		return nil, s.byIDErr
	}
	if s.byID == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.byID, nil
}

func (s *stubUserRepo) List(context.Context, *pagination.Cursor, int) ([]models.User, error) {
	return s.listRows, s.listErr
}

func (s *stubUserRepo) UpdateActive(_ context.Context, _ int64, updates map[string]any) (int64, error) {
	s.lastUpdates = updates
	if s.updateErr != nil {
		return 0, s.updateErr
	}
	return s.updateAffected, nil
}

func (s *stubUserRepo) DeleteCascade(_ context.Context, id, _ int64, _ time.Time) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleteCalls = append(s.deleteCalls, id)
	return nil
}

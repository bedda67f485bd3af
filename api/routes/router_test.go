package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tradepost-labs/tradepost-backend/internal/storerequests"
	pkgAuth "github.com/tradepost-labs/tradepost-backend/pkg/auth"
	"github.com/tradepost-labs/tradepost-backend/pkg/config"
	"github.com/tradepost-labs/tradepost-backend/pkg/enums"
	"github.com/tradepost-labs/tradepost-backend/pkg/pagination"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubStoreRequestService struct{}

func (stubStoreRequestService) Create(context.Context, int64, storerequests.CreateStoreRequestInput) (*storerequests.StoreRequestDTO, error) {
	return &storerequests.StoreRequestDTO{ID: 1}, nil
}

func (stubStoreRequestService) Update(context.Context, int64, int64, storerequests.UpdateStoreRequestInput) (*storerequests.StoreRequestDTO, error) {
	return &storerequests.StoreRequestDTO{ID: 1}, nil
}

func (stubStoreRequestService) Approve(context.Context, int64, int64) (*storerequests.StoreRequestDTO, error) {
	return &storerequests.StoreRequestDTO{ID: 1}, nil
}

func (stubStoreRequestService) Reject(context.Context, int64, int64, string) (*storerequests.StoreRequestDTO, error) {
	return &storerequests.StoreRequestDTO{ID: 1}, nil
}

func (stubStoreRequestService) Delete(context.Context, int64, int64) error { return nil }

func (stubStoreRequestService) List(context.Context, pagination.Params) ([]storerequests.StoreRequestDTO, string, error) {
	return nil, "", nil
}

func (stubStoreRequestService) GetByID(context.Context, int64) (*storerequests.StoreRequestDTO, error) {
	return &storerequests.StoreRequestDTO{ID: 1}, nil
}

func (stubStoreRequestService) ListByRequestor(context.Context, int64) ([]storerequests.StoreRequestDTO, error) {
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "dev", Port: "8080"},
		JWT: config.JWTConfig{Secret: "test-secret", Issuer: "tradepost-test", ExpirationMinutes: 15},
	}
}

func testRouter() http.Handler {
	return NewRouter(testConfig(), nil, Dependencies{DB: stubPinger{}}, Services{
		StoreRequests: stubStoreRequestService{},
	})
}

func mintToken(t *testing.T, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testConfig().JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: 42,
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthEndpointsArePublic(t *testing.T) {
	router := testRouter()

	for _, path := range []string{"/health/live", "/health/ready", "/api/public/ping"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestReadyReportsDependencyFailure(t *testing.T) {
	router := NewRouter(testConfig(), nil, Dependencies{DB: stubPinger{err: context.DeadlineExceeded}}, Services{})

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code == http.StatusOK {
		t.Fatalf("expected failure status, got 200")
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/store-requests/by-store-requestor", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAdminRoutesRejectSubusers(t *testing.T) {
	router := testRouter()

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/store-requests"},
		{http.MethodPost, "/api/v1/store-requests/1/approve"},
		{http.MethodGet, "/api/v1/users"},
	}
	token := mintToken(t, enums.UserRoleSubUser)
	for _, tt := range paths {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusForbidden {
			t.Fatalf("%s %s: expected 403 got %d", tt.method, tt.path, resp.Code)
		}
	}
}

func TestAdminCanListStoreRequests(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/store-requests", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.UserRoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", resp.Code, resp.Body.String())
	}
}

func TestSubuserCanReadOwnRequests(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/store-requests/by-store-requestor", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.UserRoleSubUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", resp.Code, resp.Body.String())
	}
}

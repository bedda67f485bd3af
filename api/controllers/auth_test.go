package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tradepost-labs/tradepost-backend/internal/auth"
	"github.com/tradepost-labs/tradepost-backend/internal/users"
	pkgerrors "github.com/tradepost-labs/tradepost-backend/pkg/errors"
)

type stubAuthService struct {
	signupFn func(ctx context.Context, req auth.SignupRequest) (*auth.AuthResponse, error)
	loginFn  func(ctx context.Context, req auth.LoginRequest) (*auth.AuthResponse, error)
}

func (s *stubAuthService) Signup(ctx context.Context, req auth.SignupRequest) (*auth.AuthResponse, error) {
	return s.signupFn(ctx, req)
}

func (s *stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.AuthResponse, error) {
	return s.loginFn(ctx, req)
}

func TestSignupReturnsCreated(t *testing.T) {
	svc := &stubAuthService{
		signupFn: func(_ context.Context, req auth.SignupRequest) (*auth.AuthResponse, error) {
			if req.Email != "ada@example.com" {
				t.Fatalf("unexpected email %s", req.Email)
			}
			return &auth.AuthResponse{
				AccessToken: "token",
				User:        &users.UserDTO{ID: 1, Email: req.Email},
			}, nil
		},
	}

	body := strings.NewReader(`{"name":"Ada","email":"ada@example.com","password":"correct-horse","confirm_password":"correct-horse"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", body)
	resp := httptest.NewRecorder()
	Signup(svc, nil)(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", resp.Code, resp.Body.String())
	}
	var payload struct {
		Data auth.AuthResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if payload.Data.AccessToken != "token" {
		t.Fatalf("expected access token in response, got %+v", payload.Data)
	}
}

func TestSignupRejectsInvalidBody(t *testing.T) {
	svc := &stubAuthService{}
	body := strings.NewReader(`{"name":"Ada","email":"not-an-email","password":"pw","confirm_password":"pw"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", body)
	resp := httptest.NewRecorder()
	Signup(svc, nil)(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestLoginPropagatesUnauthorized(t *testing.T) {
	svc := &stubAuthService{
		loginFn: func(_ context.Context, _ auth.LoginRequest) (*auth.AuthResponse, error) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		},
	}

	body := strings.NewReader(`{"email":"ada@example.com","password":"wrong"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
	resp := httptest.NewRecorder()
	Login(svc, nil)(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "invalid credentials") {
		t.Fatalf("expected invalid credentials message, got %s", resp.Body.String())
	}
}

func TestLoginReturnsToken(t *testing.T) {
	svc := &stubAuthService{
		loginFn: func(_ context.Context, req auth.LoginRequest) (*auth.AuthResponse, error) {
			return &auth.AuthResponse{AccessToken: "token", User: &users.UserDTO{ID: 1, Email: req.Email}}, nil
		},
	}

	body := strings.NewReader(`{"email":"ada@example.com","password":"correct-horse"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
	resp := httptest.NewRecorder()
	Login(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

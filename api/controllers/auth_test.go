package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/cliqstr/cliqstr-backend/internal/auth"
	"github.com/cliqstr/cliqstr-backend/internal/users"
	pkgAuth "github.com/cliqstr/cliqstr-backend/pkg/auth"
	"github.com/cliqstr/cliqstr-backend/pkg/enums"
	pkgerrors "github.com/cliqstr/cliqstr-backend/pkg/errors"
)

type stubAuthService struct {
	resp       *auth.LoginResponse
	pair       *auth.TokenPair
	err        error
	logoutIDs  []string
	lastLogin  auth.LoginRequest
	loginCalls int
}

func (s *stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	s.lastLogin = req
	s.loginCalls++
	return s.resp, s.err
}

func (s *stubAuthService) Refresh(ctx context.Context, claims *pkgAuth.AccessTokenClaims, refreshToken string) (*auth.TokenPair, error) {
	return s.pair, s.err
}

func (s *stubAuthService) Logout(ctx context.Context, accessTokenID string) error {
	s.logoutIDs = append(s.logoutIDs, accessTokenID)
	return s.err
}

func TestAuthLoginSuccess(t *testing.T) {
	svc := &stubAuthService{resp: &auth.LoginResponse{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		Role:         enums.AccountRoleParent,
		User:         &users.UserDTO{ID: uuid.New(), Email: "parent@example.com", IsParent: true},
	}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader([]byte(`{"identifier":"parent@example.com","password":"Secret#1"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	AuthLogin(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastLogin.Identifier != "parent@example.com" {
		t.Fatalf("unexpected identifier %q", svc.lastLogin.Identifier)
	}

	var envelope struct {
		OK   bool `json:"ok"`
		Data struct {
			AccessToken  string         `json:"access_token"`
			RefreshToken string         `json:"refresh_token"`
			Role         string         `json:"role"`
			User         *users.UserDTO `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if !envelope.OK {
		t.Fatal("expected ok=true")
	}
	if envelope.Data.AccessToken != "access-token" {
		t.Fatalf("unexpected access token %q", envelope.Data.AccessToken)
	}
	if envelope.Data.Role != "parent" {
		t.Fatalf("unexpected role %q", envelope.Data.Role)
	}
}

func TestAuthLoginRejectsMissingFields(t *testing.T) {
	svc := &stubAuthService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader([]byte(`{"identifier":"kid"}`)))
	resp := httptest.NewRecorder()

	AuthLogin(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.loginCalls != 0 {
		t.Fatal("service should not be called on validation failure")
	}
}

func TestAuthLoginMapsUnauthorized(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader([]byte(`{"identifier":"kid","password":"nope"}`)))
	resp := httptest.NewRecorder()

	AuthLogin(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}

	var envelope struct {
		OK      bool   `json:"ok"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.OK {
		t.Fatal("expected ok=false")
	}
	if envelope.Message != "invalid credentials" {
		t.Fatalf("unexpected message %q", envelope.Message)
	}
}

package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/cliqstr/cliqstr-backend/api/middleware"
	"github.com/cliqstr/cliqstr-backend/internal/consent"
	pkgerrors "github.com/cliqstr/cliqstr-backend/pkg/errors"
)

type stubConsentService struct {
	result        *consent.Result
	err           error
	lastInput     consent.CreateChildInput
	declined      []string
	createCalls   int
	declineReturn error
}

func (s *stubConsentService) CreateChildAccount(ctx context.Context, input consent.CreateChildInput) (*consent.Result, error) {
	s.lastInput = input
	s.createCalls++
	return s.result, s.err
}

func (s *stubConsentService) Decline(ctx context.Context, token string) error {
	s.declined = append(s.declined, token)
	return s.declineReturn
}

func authenticatedRequest(method, target, body string, userID uuid.UUID, role string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, role)
	return req.WithContext(ctx)
}

func TestConsentChildCreatesAccount(t *testing.T) {
	parentID := uuid.New()
	childID := uuid.New()
	svc := &stubConsentService{result: &consent.Result{
		ChildUserID: childID,
		ProfileID:   uuid.New(),
		Username:    "kiddo1",
	}}

	body := `{"code":"A1B2C3D4E5F60718","username":"kiddo1","password":"Secret#1","child_first_name":"Robin","child_last_name":"Day","child_birthdate":"2015-06-01T00:00:00Z","accept_safety_agreement":true}`
	req := authenticatedRequest(http.MethodPost, "/api/v1/consent/child", body, parentID, "parent")
	resp := httptest.NewRecorder()

	ConsentChild(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastInput.ParentUserID != parentID {
		t.Fatalf("expected parent %s got %s", parentID, svc.lastInput.ParentUserID)
	}
	if svc.lastInput.Code != "A1B2C3D4E5F60718" {
		t.Fatalf("unexpected code %q", svc.lastInput.Code)
	}
	// No explicit grid in the body means the default preset applies.
	if !svc.lastInput.Permissions.IsMonitored {
		t.Fatal("expected default preset to be monitored")
	}

	var envelope struct {
		Data consent.Result `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Data.ChildUserID != childID {
		t.Fatalf("expected child %s got %s", childID, envelope.Data.ChildUserID)
	}
}

func TestConsentChildRequiresAuthContext(t *testing.T) {
	svc := &stubConsentService{}
	body := `{"code":"A1B2C3D4E5F60718","username":"kiddo1","password":"Secret#1","child_first_name":"Robin","child_last_name":"Day","child_birthdate":"2015-06-01T00:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/consent/child", bytes.NewReader([]byte(body)))
	resp := httptest.NewRecorder()

	ConsentChild(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if svc.createCalls != 0 {
		t.Fatal("service should not run without a user context")
	}
}

func TestConsentChildSurfacesConflict(t *testing.T) {
	svc := &stubConsentService{err: pkgerrors.New(pkgerrors.CodeConflict, "username is taken").WithReason(pkgerrors.ReasonUsernameTaken)}
	body := `{"code":"A1B2C3D4E5F60718","username":"kiddo1","password":"Secret#1","child_first_name":"Robin","child_last_name":"Day","child_birthdate":"2015-06-01T00:00:00Z"}`
	req := authenticatedRequest(http.MethodPost, "/api/v1/consent/child", body, uuid.New(), "parent")
	resp := httptest.NewRecorder()

	ConsentChild(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}

	var envelope struct {
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Reason != string(pkgerrors.ReasonUsernameTaken) {
		t.Fatalf("expected reason username_taken got %q", envelope.Reason)
	}
}

func TestConsentDeclineByToken(t *testing.T) {
	svc := &stubConsentService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/consent/decline", bytes.NewReader([]byte(`{"approval_token":"tok-123"}`)))
	resp := httptest.NewRecorder()

	ConsentDecline(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if len(svc.declined) != 1 || svc.declined[0] != "tok-123" {
		t.Fatalf("expected decline with tok-123, got %v", svc.declined)
	}
}

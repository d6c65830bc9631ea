package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/cliqstr/cliqstr-backend/internal/auth"
	"github.com/cliqstr/cliqstr-backend/internal/childsettings"
	"github.com/cliqstr/cliqstr-backend/pkg/enums"
)

type stubUpgradeService struct {
	result *auth.UpgradeResult
	err    error
	lastID uuid.UUID
}

func (s *stubUpgradeService) UpgradeToParent(ctx context.Context, userID uuid.UUID) (*auth.UpgradeResult, error) {
	s.lastID = userID
	return s.result, s.err
}

func TestParentsUpgrade(t *testing.T) {
	userID := uuid.New()
	svc := &stubUpgradeService{result: &auth.UpgradeResult{Role: enums.AccountRoleParent}}

	req := authenticatedRequestNoBody(http.MethodPost, "/api/v1/parents/upgrade", userID, "adult")
	resp := httptest.NewRecorder()

	ParentsUpgrade(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastID != userID {
		t.Fatalf("expected user %s got %s", userID, svc.lastID)
	}

	var envelope struct {
		Data auth.UpgradeResult `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Data.Role != enums.AccountRoleParent {
		t.Fatalf("expected role parent got %s", envelope.Data.Role)
	}
}

func TestParentsUpgradeRequiresAuthContext(t *testing.T) {
	svc := &stubUpgradeService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/parents/upgrade", nil)
	resp := httptest.NewRecorder()

	ParentsUpgrade(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestParentsChildren(t *testing.T) {
	parentID := uuid.New()
	childUserID := uuid.New()
	svc := &stubChildSettingsService{children: []childsettings.ChildSummary{
		{
			ProfileID:   uuid.New(),
			UserID:      childUserID,
			Username:    "kiddo",
			Permissions: childsettings.RegularPreset(),
		},
	}}

	req := authenticatedRequestNoBody(http.MethodGet, "/api/v1/parents/children", parentID, "parent")
	resp := httptest.NewRecorder()

	ParentsChildren(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastParent != parentID {
		t.Fatalf("expected parent %s got %s", parentID, svc.lastParent)
	}

	var envelope struct {
		Data struct {
			Items []childsettings.ChildSummary `json:"items"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if len(envelope.Data.Items) != 1 {
		t.Fatalf("expected one child got %d", len(envelope.Data.Items))
	}
	if envelope.Data.Items[0].Username != "kiddo" {
		t.Fatalf("expected username kiddo got %q", envelope.Data.Items[0].Username)
	}
}

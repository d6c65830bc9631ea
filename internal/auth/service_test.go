package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/cliqstr/cliqstr-backend/pkg/auth"
	"github.com/cliqstr/cliqstr-backend/pkg/config"
	"github.com/cliqstr/cliqstr-backend/pkg/db/models"
	"github.com/cliqstr/cliqstr-backend/pkg/enums"
	pkgerrors "github.com/cliqstr/cliqstr-backend/pkg/errors"
	"github.com/cliqstr/cliqstr-backend/pkg/security"
)

type stubUserRepo struct {
	byEmail map[string]*models.User
	byID    map[uuid.UUID]*models.User
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := s.byID[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return nil
}

type stubAccounts struct {
	accounts map[uuid.UUID]*models.Account
}

func (s *stubAccounts) FindAccountByUserID(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	if account, ok := s.accounts[userID]; ok {
		return account, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubProfiles struct {
	byUserID   map[uuid.UUID]*models.Profile
	byUsername map[string]*models.Profile
}

func (s *stubProfiles) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	if profile, ok := s.byUserID[userID]; ok {
		return profile, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProfiles) FindByUsername(ctx context.Context, username string) (*models.Profile, error) {
	if profile, ok := s.byUsername[username]; ok {
		return profile, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubSessions struct {
	generated string
	revoked   []string
	rotateErr error
}

func (s *stubSessions) Generate(ctx context.Context, accessID string) (string, error) {
	s.generated = accessID
	return "refresh-" + accessID, nil
}

func (s *stubSessions) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if s.rotateErr != nil {
		return "", "", s.rotateErr
	}
	newID := "rotated-" + oldAccessID
	return newID, "refresh-" + newID, nil
}

func (s *stubSessions) Revoke(ctx context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "cliqstr",
		ExpirationMinutes: 30,
	}
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hashed, err := security.HashPassword(password, config.PasswordConfig{MinLength: 8})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hashed
}

type loginFixture struct {
	users    *stubUserRepo
	accounts *stubAccounts
	profiles *stubProfiles
	sessions *stubSessions
	svc      Service
}

func newLoginFixture(t *testing.T) *loginFixture {
	t.Helper()
	f := &loginFixture{
		users:    &stubUserRepo{byEmail: map[string]*models.User{}, byID: map[uuid.UUID]*models.User{}},
		accounts: &stubAccounts{accounts: map[uuid.UUID]*models.Account{}},
		profiles: &stubProfiles{byUserID: map[uuid.UUID]*models.Profile{}, byUsername: map[string]*models.Profile{}},
		sessions: &stubSessions{},
	}
	svc, err := NewService(ServiceParams{
		UserRepo:       f.users,
		AccountsRepo:   f.accounts,
		ProfilesRepo:   f.profiles,
		SessionManager: f.sessions,
		JWTConfig:      testJWTConfig(),
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	f.svc = svc
	return f
}

func (f *loginFixture) seedUser(t *testing.T, email, password string, role enums.AccountRole) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: mustHashPassword(t, password),
		IsParent:     role == enums.AccountRoleParent,
	}
	f.users.byEmail[email] = user
	f.users.byID[user.ID] = user
	f.accounts.accounts[user.ID] = &models.Account{
		ID:     uuid.New(),
		UserID: user.ID,
		Role:   role,
	}
	return user
}

func TestLoginWithEmail(t *testing.T) {
	f := newLoginFixture(t)
	user := f.seedUser(t, "parent@example.com", "Secur3!!", enums.AccountRoleParent)

	resp, err := f.svc.Login(context.Background(), LoginRequest{
		Identifier: "  Parent@Example.COM ",
		Password:   "Secur3!!",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected user id claim %s, got %s", user.ID, claims.UserID)
	}
	if claims.Role != enums.AccountRoleParent || !claims.IsParent {
		t.Fatalf("expected parent claims, got role=%s is_parent=%v", claims.Role, claims.IsParent)
	}
	if resp.RefreshToken == "" {
		t.Fatalf("expected refresh token to be set")
	}
}

func TestLoginWithChildUsername(t *testing.T) {
	f := newLoginFixture(t)
	user := f.seedUser(t, "kiddo1@children.cliqstr.app", "Secur3!!", enums.AccountRoleChild)
	profile := &models.Profile{ID: uuid.New(), UserID: user.ID, Username: "kiddo1"}
	f.profiles.byUserID[user.ID] = profile
	f.profiles.byUsername["kiddo1"] = profile

	resp, err := f.svc.Login(context.Background(), LoginRequest{
		Identifier: "Kiddo1",
		Password:   "Secur3!!",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Role != enums.AccountRoleChild {
		t.Fatalf("expected child role claim, got %s", claims.Role)
	}
	if claims.ProfileID == nil || *claims.ProfileID != profile.ID {
		t.Fatalf("expected profile id claim")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	f := newLoginFixture(t)
	f.seedUser(t, "parent@example.com", "Secur3!!", enums.AccountRoleParent)

	_, err := f.svc.Login(context.Background(), LoginRequest{
		Identifier: "parent@example.com",
		Password:   "wrong-password",
	})
	if err == nil {
		t.Fatalf("expected login failure")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %s", pkgerrors.As(err).Code())
	}
	if pkgerrors.As(err).Message() != invalidCredentialsMessage {
		t.Fatalf("credential failures must not leak which part was wrong")
	}
}

func TestLoginUnknownUsername(t *testing.T) {
	f := newLoginFixture(t)

	_, err := f.svc.Login(context.Background(), LoginRequest{
		Identifier: "nobody",
		Password:   "Secur3!!",
	})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for unknown username, got %v", err)
	}
}

func TestLoginSuspendedAccount(t *testing.T) {
	f := newLoginFixture(t)
	user := f.seedUser(t, "parent@example.com", "Secur3!!", enums.AccountRoleParent)
	f.accounts.accounts[user.ID].Suspended = true

	_, err := f.svc.Login(context.Background(), LoginRequest{
		Identifier: "parent@example.com",
		Password:   "Secur3!!",
	})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for suspended account, got %v", err)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	f := newLoginFixture(t)
	userID := uuid.New()

	claims := &pkgAuth.AccessTokenClaims{
		UserID:   userID,
		Role:     enums.AccountRoleParent,
		IsParent: true,
	}
	claims.ID = "old-access-id"

	pair, err := f.svc.Refresh(context.Background(), claims, "refresh-old-access-id")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	parsed, err := pkgAuth.ParseAccessToken(testJWTConfig(), pair.AccessToken)
	if err != nil {
		t.Fatalf("parse rotated token: %v", err)
	}
	if parsed.UserID != userID {
		t.Fatalf("rotated token lost the user id")
	}
	if parsed.ID == "old-access-id" {
		t.Fatalf("rotation must issue a new access id")
	}
	if pair.RefreshToken != "refresh-rotated-old-access-id" {
		t.Fatalf("unexpected refresh token %q", pair.RefreshToken)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	f := newLoginFixture(t)

	if err := f.svc.Logout(context.Background(), "access-id"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(f.sessions.revoked) != 1 || f.sessions.revoked[0] != "access-id" {
		t.Fatalf("expected session revoked, got %v", f.sessions.revoked)
	}
}

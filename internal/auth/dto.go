package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/cliqstr/cliqstr-backend/internal/users"
	"github.com/cliqstr/cliqstr-backend/pkg/enums"
)

// LoginRequest captures the credentials sent to the login endpoint. Adults
// and parents sign in with their email; children sign in with their username.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// LoginResponse contains the tokens and user produced by a successful login.
type LoginResponse struct {
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
	Role         enums.AccountRole `json:"role"`
	User         *users.UserDTO    `json:"user"`
}

// RegisterRequest is the payload for adult and parent self-signup. Children
// never self-register; their accounts are created through the consent flow.
type RegisterRequest struct {
	Email      string    `json:"email" validate:"required,email"`
	Password   string    `json:"password" validate:"required"`
	Birthdate  time.Time `json:"birthdate" validate:"required"`
	InviteCode *string   `json:"invite_code,omitempty"`
	AcceptTOS  bool      `json:"accept_tos"`
}

// RegisterResult reports the account minted by signup and whether an invite
// code was attached to it.
type RegisterResult struct {
	UserID         uuid.UUID         `json:"user_id"`
	Role           enums.AccountRole `json:"role"`
	InviteAccepted bool              `json:"invite_accepted"`
	JoinedCliqID   *uuid.UUID        `json:"joined_cliq_id,omitempty"`
}

// RefreshRequest rotates a refresh token into a fresh token pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenPair is the result of a refresh rotation.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UpgradeResult reports the outcome of an adult-to-parent role upgrade.
type UpgradeResult struct {
	Role          enums.AccountRole `json:"role"`
	AlreadyParent bool              `json:"already_parent"`
}

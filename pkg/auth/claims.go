package auth

import (
	"github.com/cliqstr/cliqstr-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID    uuid.UUID
	ProfileID *uuid.UUID
	Role      enums.AccountRole
	IsParent  bool
	JTI       string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID    uuid.UUID         `json:"user_id"`
	ProfileID *uuid.UUID        `json:"profile_id,omitempty"`
	Role      enums.AccountRole `json:"role"`
	IsParent  bool              `json:"is_parent"`
	jwt.RegisteredClaims
}

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cliqstr/cliqstr-backend/internal/users"
	"github.com/cliqstr/cliqstr-backend/pkg/enums"
	pkgerrors "github.com/cliqstr/cliqstr-backend/pkg/errors"
)

// UpgradeService promotes an adult account to parent. The transition is
// idempotent: repeating it for an existing parent succeeds without touching
// the row again, which lets the consent flow retry it freely.
type UpgradeService interface {
	UpgradeToParent(ctx context.Context, userID uuid.UUID) (*UpgradeResult, error)
}

// UpgradeServiceParams bundles dependencies for the upgrade flow.
type UpgradeServiceParams struct {
	Tx    txRunner
	Users *users.Repository
}

type upgradeService struct {
	tx    txRunner
	users *users.Repository
}

// NewUpgradeService constructs the service.
func NewUpgradeService(params UpgradeServiceParams) (UpgradeService, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &upgradeService{tx: params.Tx, users: params.Users}, nil
}

func (s *upgradeService) UpgradeToParent(ctx context.Context, userID uuid.UUID) (*UpgradeResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	account, err := s.users.FindAccountByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup account")
	}

	switch account.Role {
	case enums.AccountRoleChild:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "child accounts cannot become parents")
	case enums.AccountRoleParent:
		return &UpgradeResult{Role: enums.AccountRoleParent, AlreadyParent: true}, nil
	case enums.AccountRoleAdmin:
		return &UpgradeResult{Role: enums.AccountRoleAdmin, AlreadyParent: true}, nil
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		usersTx := s.users.WithTx(tx)
		if err := usersTx.SetParentFlag(ctx, userID, true); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set parent flag")
		}
		if err := usersTx.UpdateAccountRole(ctx, userID, enums.AccountRoleParent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update account role")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &UpgradeResult{Role: enums.AccountRoleParent}, nil
}

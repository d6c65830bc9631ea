package users

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cliqstr/cliqstr-backend/pkg/db/models"
	"github.com/cliqstr/cliqstr-backend/pkg/enums"
)

// CreateAccountDTO holds the data required to persist the account facet.
type CreateAccountDTO struct {
	UserID     uuid.UUID
	Role       enums.AccountRole
	Birthdate  time.Time
	IsApproved bool
	Plan       *string
}

func (c CreateAccountDTO) ToModel() *models.Account {
	return &models.Account{
		ID:         uuid.New(),
		UserID:     c.UserID,
		Role:       c.Role,
		Birthdate:  c.Birthdate,
		IsApproved: c.IsApproved,
		Plan:       c.Plan,
	}
}

// CreateAccount inserts the account row for a user.
func (r *Repository) CreateAccount(ctx context.Context, dto CreateAccountDTO) (*models.Account, error) {
	account := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

// FindAccountByUserID loads the account facet for a user.
func (r *Repository) FindAccountByUserID(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// UpdateAccountRole transitions the account role, used by the adult to parent
// upgrade.
func (r *Repository) UpdateAccountRole(ctx context.Context, userID uuid.UUID, role enums.AccountRole) error {
	return r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("user_id = ?", userID).
		UpdateColumn("role", role).Error
}

// SetAccountApproved flips the approval marker once consent completes.
func (r *Repository) SetAccountApproved(ctx context.Context, userID uuid.UUID, approved bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("user_id = ?", userID).
		UpdateColumn("is_approved", approved).Error
}

// SetAccountSuspended toggles the suspension flag.
func (r *Repository) SetAccountSuspended(ctx context.Context, userID uuid.UUID, suspended bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("user_id = ?", userID).
		UpdateColumn("suspended", suspended).Error
}

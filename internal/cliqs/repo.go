package cliqs

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cliqstr/cliqstr-backend/pkg/db/models"
	"github.com/cliqstr/cliqstr-backend/pkg/enums"
)

// Repository exposes cliq and membership persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, cliq *models.Cliq) (*models.Cliq, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Cliq, error)
	CreateMembership(ctx context.Context, membership *models.CliqMembership) (*models.CliqMembership, error)
	IsMember(ctx context.Context, cliqID, userID uuid.UUID) (bool, error)
	UserHasRole(ctx context.Context, cliqID, userID uuid.UUID, roles ...enums.CliqMemberRole) (bool, error)
	ShareCliq(ctx context.Context, a, b uuid.UUID) (bool, error)
	ListByMember(ctx context.Context, userID uuid.UUID) ([]models.Cliq, error)
	ListMembers(ctx context.Context, cliqID uuid.UUID) ([]models.CliqMembership, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository constructs a cliq repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts a new cliq row.
func (r *repository) Create(ctx context.Context, cliq *models.Cliq) (*models.Cliq, error) {
	if err := r.db.WithContext(ctx).Create(cliq).Error; err != nil {
		return nil, err
	}
	return cliq, nil
}

// FindByID loads a cliq by primary key.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Cliq, error) {
	var cliq models.Cliq
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&cliq).Error; err != nil {
		return nil, err
	}
	return &cliq, nil
}

// CreateMembership inserts a membership row. The composite unique index on
// (cliq_id, user_id) makes a repeat join a constraint error, not a duplicate.
func (r *repository) CreateMembership(ctx context.Context, membership *models.CliqMembership) (*models.CliqMembership, error) {
	if err := r.db.WithContext(ctx).Create(membership).Error; err != nil {
		return nil, err
	}
	return membership, nil
}

// IsMember reports whether the user belongs to the cliq.
func (r *repository) IsMember(ctx context.Context, cliqID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CliqMembership{}).
		Where("cliq_id = ? AND user_id = ?", cliqID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UserHasRole reports whether the user holds one of the given roles in the cliq.
func (r *repository) UserHasRole(ctx context.Context, cliqID, userID uuid.UUID, roles ...enums.CliqMemberRole) (bool, error) {
	if len(roles) == 0 {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CliqMembership{}).
		Where("cliq_id = ? AND user_id = ? AND role IN ?", cliqID, userID, roles).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ShareCliq reports whether two users belong to at least one common cliq.
func (r *repository) ShareCliq(ctx context.Context, a, b uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CliqMembership{}).
		Where("user_id = ? AND cliq_id IN (?)",
			a,
			r.db.Model(&models.CliqMembership{}).Select("cliq_id").Where("user_id = ?", b),
		).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByMember returns every cliq the user belongs to.
func (r *repository) ListByMember(ctx context.Context, userID uuid.UUID) ([]models.Cliq, error) {
	var rows []models.Cliq
	err := r.db.WithContext(ctx).
		Joins("JOIN cliq_memberships ON cliq_memberships.cliq_id = cliqs.id").
		Where("cliq_memberships.user_id = ?", userID).
		Order("cliqs.created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListMembers returns the membership roster for a cliq, oldest member first.
func (r *repository) ListMembers(ctx context.Context, cliqID uuid.UUID) ([]models.CliqMembership, error) {
	var rows []models.CliqMembership
	err := r.db.WithContext(ctx).
		Where("cliq_id = ?", cliqID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// NewOwnerMembership is the membership row minted for a cliq creator.
func NewOwnerMembership(cliqID, userID uuid.UUID) *models.CliqMembership {
	return &models.CliqMembership{
		ID:     uuid.New(),
		CliqID: cliqID,
		UserID: userID,
		Role:   enums.CliqMemberRoleOwner,
	}
}

// NewInviteMembership is the membership row minted when an invite completes.
func NewInviteMembership(cliqID, userID, inviteID uuid.UUID) *models.CliqMembership {
	return &models.CliqMembership{
		ID:              uuid.New(),
		CliqID:          cliqID,
		UserID:          userID,
		Role:            enums.CliqMemberRoleMember,
		JoinedViaInvite: &inviteID,
	}
}

package invites

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cliqstr/cliqstr-backend/pkg/db/models"
	"github.com/cliqstr/cliqstr-backend/pkg/enums"
)

// Repository exposes invite persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, invite *models.Invite) (*models.Invite, error)
	FindByCode(ctx context.Context, code string) (*models.Invite, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Invite, error)
	List(ctx context.Context, opts listQuery) ([]models.Invite, error)
	MarkAccepted(ctx context.Context, id uuid.UUID) (int64, error)
	MarkConsumed(ctx context.Context, id, usedByUserID uuid.UUID, now time.Time) (int64, error)
	Cancel(ctx context.Context, id, inviterUserID uuid.UUID) (int64, error)
	FindDueForExpiry(ctx context.Context, now time.Time, limit int) ([]models.Invite, error)
	MarkExpired(ctx context.Context, id uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository constructs an invite repo bound to the provided GORM DB.
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

// Create inserts a new invite row.
func (r *repository) Create(ctx context.Context, invite *models.Invite) (*models.Invite, error) {
	if err := r.db.WithContext(ctx).Create(invite).Error; err != nil {
		return nil, err
	}
	return invite, nil
}

// FindByCode loads an invite by its shareable code.
func (r *repository) FindByCode(ctx context.Context, code string) (*models.Invite, error) {
	var invite models.Invite
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&invite).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

// FindByID loads an invite by primary key.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Invite, error) {
	var invite models.Invite
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&invite).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

// List returns one page of invites for an inviter, newest first.
func (r *repository) List(ctx context.Context, opts listQuery) ([]models.Invite, error) {
	query := r.db.WithContext(ctx).Model(&models.Invite{}).Where("inviter_user_id = ?", opts.inviterUserID)

	if opts.cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", opts.cursor.CreatedAt, opts.cursor.CreatedAt, opts.cursor.ID)
	}

	query = query.Order("created_at DESC").Order("id DESC").Limit(opts.limit)

	var rows []models.Invite
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkAccepted records that the invited parent now has an account. The code
// stays unburned until consent completes.
func (r *repository) MarkAccepted(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Invite{}).
		Where("id = ? AND used = ? AND status = ?", id, false, enums.InviteStatusPending).
		Update("status", enums.InviteStatusAccepted)
	return result.RowsAffected, result.Error
}

// MarkConsumed burns the invite. The predicate on used and status closes the
// check-then-set race: of any number of concurrent submissions for the same
// code, at most one sees a non-zero affected count.
func (r *repository) MarkConsumed(ctx context.Context, id, usedByUserID uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Invite{}).
		Where("id = ? AND used = ? AND status IN ?", id, false, []enums.InviteStatus{enums.InviteStatusPending, enums.InviteStatusAccepted}).
		Updates(map[string]any{
			"used":            true,
			"used_at":         now,
			"used_by_user_id": usedByUserID,
			"status":          enums.InviteStatusCompleted,
		})
	return result.RowsAffected, result.Error
}

// Cancel retires a pending invite on the inviter's request.
func (r *repository) Cancel(ctx context.Context, id, inviterUserID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Invite{}).
		Where("id = ? AND inviter_user_id = ? AND status = ?", id, inviterUserID, enums.InviteStatusPending).
		Update("status", enums.InviteStatusCanceled)
	return result.RowsAffected, result.Error
}

// FindDueForExpiry returns pending invites whose deadline has passed.
func (r *repository) FindDueForExpiry(ctx context.Context, now time.Time, limit int) ([]models.Invite, error) {
	var rows []models.Invite
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", enums.InviteStatusPending, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkExpired settles a pending invite as expired. Conditional so a consent
// submission racing the sweep never gets overwritten.
func (r *repository) MarkExpired(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Invite{}).
		Where("id = ? AND status = ? AND used = ?", id, enums.InviteStatusPending, false).
		Update("status", enums.InviteStatusExpired)
	return result.RowsAffected, result.Error
}

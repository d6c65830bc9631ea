package approvals

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cliqstr/cliqstr-backend/pkg/db/models"
	"github.com/cliqstr/cliqstr-backend/pkg/enums"
)

// Repository exposes parent approval persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, approval *models.ParentApproval) (*models.ParentApproval, error)
	FindByToken(ctx context.Context, token string) (*models.ParentApproval, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.ParentApproval, error)
	MarkApproved(ctx context.Context, id uuid.UUID, parentUserID, childUserID uuid.UUID, now time.Time) (int64, error)
	MarkDeclined(ctx context.Context, id uuid.UUID, now time.Time) (int64, error)
	FindDueForExpiry(ctx context.Context, now time.Time, limit int) ([]models.ParentApproval, error)
	MarkExpired(ctx context.Context, id uuid.UUID) (int64, error)
	HasApprovedLink(ctx context.Context, parentUserID, childUserID uuid.UUID) (bool, error)
	ApprovedChildIDs(ctx context.Context, parentUserID uuid.UUID) ([]uuid.UUID, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository constructs an approvals repo bound to the provided GORM DB.
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

// Create inserts a new approval row.
func (r *repository) Create(ctx context.Context, approval *models.ParentApproval) (*models.ParentApproval, error) {
	if err := r.db.WithContext(ctx).Create(approval).Error; err != nil {
		return nil, err
	}
	return approval, nil
}

// FindByToken loads an approval by its opaque link token.
func (r *repository) FindByToken(ctx context.Context, token string) (*models.ParentApproval, error) {
	var approval models.ParentApproval
	if err := r.db.WithContext(ctx).Where("approval_token = ?", token).First(&approval).Error; err != nil {
		return nil, err
	}
	return &approval, nil
}

// FindByID loads an approval by primary key.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ParentApproval, error) {
	var approval models.ParentApproval
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&approval).Error; err != nil {
		return nil, err
	}
	return &approval, nil
}

// MarkApproved settles a pending approval. The status predicate closes the
// race between two submissions of the same token: only one sees a non-zero
// affected count.
func (r *repository) MarkApproved(ctx context.Context, id uuid.UUID, parentUserID, childUserID uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ParentApproval{}).
		Where("id = ? AND status = ?", id, enums.ApprovalStatusPending).
		Updates(map[string]any{
			"status":         enums.ApprovalStatusApproved,
			"parent_user_id": parentUserID,
			"child_user_id":  childUserID,
			"approved_at":    now,
		})
	return result.RowsAffected, result.Error
}

// MarkDeclined settles a pending approval as declined. Terminal.
func (r *repository) MarkDeclined(ctx context.Context, id uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ParentApproval{}).
		Where("id = ? AND status = ?", id, enums.ApprovalStatusPending).
		Updates(map[string]any{
			"status":      enums.ApprovalStatusDeclined,
			"declined_at": now,
		})
	return result.RowsAffected, result.Error
}

// FindDueForExpiry returns pending approvals whose deadline has passed.
func (r *repository) FindDueForExpiry(ctx context.Context, now time.Time, limit int) ([]models.ParentApproval, error) {
	var rows []models.ParentApproval
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", enums.ApprovalStatusPending, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkExpired settles a pending approval as expired. Conditional so a consent
// submission racing the sweep never gets overwritten.
func (r *repository) MarkExpired(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ParentApproval{}).
		Where("id = ? AND status = ?", id, enums.ApprovalStatusPending).
		Update("status", enums.ApprovalStatusExpired)
	return result.RowsAffected, result.Error
}

// HasApprovedLink reports whether an approved consent links the parent to the
// child. This is the system's guardianship record.
func (r *repository) HasApprovedLink(ctx context.Context, parentUserID, childUserID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ParentApproval{}).
		Where("parent_user_id = ? AND child_user_id = ? AND status = ?", parentUserID, childUserID, enums.ApprovalStatusApproved).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ApprovedChildIDs lists the children a parent has consented for, oldest
// consent first.
func (r *repository) ApprovedChildIDs(ctx context.Context, parentUserID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.ParentApproval{}).
		Where("parent_user_id = ? AND child_user_id IS NOT NULL AND status = ?", parentUserID, enums.ApprovalStatusApproved).
		Order("approved_at ASC").
		Pluck("child_user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

package childsettings

import (
	"context"

	"github.com/google/uuid"

	"github.com/cliqstr/cliqstr-backend/internal/approvals"
)

// ApprovalGuardians answers guardianship questions from settled consent
// records. An approved ParentApproval row is the only thing that makes a user
// the guardian of a child.
type ApprovalGuardians struct {
	approvals approvals.Repository
}

func NewApprovalGuardians(repo approvals.Repository) *ApprovalGuardians {
	return &ApprovalGuardians{approvals: repo}
}

func (g *ApprovalGuardians) IsGuardianOf(ctx context.Context, parentUserID, childUserID uuid.UUID) (bool, error) {
	return g.approvals.HasApprovedLink(ctx, parentUserID, childUserID)
}

func (g *ApprovalGuardians) ChildUserIDs(ctx context.Context, parentUserID uuid.UUID) ([]uuid.UUID, error) {
	return g.approvals.ApprovedChildIDs(ctx, parentUserID)
}

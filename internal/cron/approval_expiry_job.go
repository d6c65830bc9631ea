package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/cliqstr/cliqstr-backend/internal/approvals"
	"github.com/cliqstr/cliqstr-backend/pkg/enums"
	"github.com/cliqstr/cliqstr-backend/pkg/logger"
	"github.com/cliqstr/cliqstr-backend/pkg/outbox"
	"github.com/cliqstr/cliqstr-backend/pkg/outbox/payloads"
)

// ApprovalExpiryJobParams configures the approval expiry sweep.
type ApprovalExpiryJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Approvals approvals.Repository
	Outbox    outboxEmitter
}

// NewApprovalExpiryJob settles pending parent approvals whose deadline has
// passed. A consent that already decided the approval wins the race; the
// sweep only touches rows still pending.
func NewApprovalExpiryJob(params ApprovalExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Approvals == nil {
		return nil, fmt.Errorf("approvals repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &approvalExpiryJob{
		logg:      params.Logger,
		db:        params.DB,
		approvals: params.Approvals,
		outbox:    params.Outbox,
		now:       time.Now,
	}, nil
}

type approvalExpiryJob struct {
	logg      *logger.Logger
	db        txRunner
	approvals approvals.Repository
	outbox    outboxEmitter
	now       func() time.Time
}

func (j *approvalExpiryJob) Name() string { return "approval-expiry" }

func (j *approvalExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	settled := 0
	var errs []error

	for {
		due, err := j.approvals.FindDueForExpiry(ctx, now, expiryBatchSize)
		if err != nil {
			return fmt.Errorf("query due approvals: %w", err)
		}
		if len(due) == 0 {
			break
		}

		progressed := 0
		for _, approval := range due {
			ok, err := j.settle(ctx, approval.ID, now)
			if err != nil {
				errs = append(errs, fmt.Errorf("settle approval %s: %w", approval.ID, err))
				continue
			}
			if ok {
				settled++
			}
			progressed++
		}
		if progressed == 0 || len(due) < expiryBatchSize {
			break
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{"count": settled})
	j.logg.Info(logCtx, "approval expiry sweep complete")
	return multierr.Combine(errs...)
}

func (j *approvalExpiryJob) settle(ctx context.Context, approvalID uuid.UUID, now time.Time) (bool, error) {
	var settled bool
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.approvals.WithTx(tx).MarkExpired(ctx, approvalID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return nil
		}
		settled = true
		return j.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventApprovalExpired,
			AggregateType: enums.AggregateParentApproval,
			AggregateID:   approvalID,
			Version:       1,
			Data: payloads.ApprovalExpiredEvent{
				ApprovalID: approvalID,
				ExpiredAt:  now,
			},
			OccurredAt: now,
		})
	})
	return settled, err
}

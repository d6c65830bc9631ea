package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/cliqstr/cliqstr-backend/internal/invites"
	"github.com/cliqstr/cliqstr-backend/pkg/enums"
	"github.com/cliqstr/cliqstr-backend/pkg/logger"
	"github.com/cliqstr/cliqstr-backend/pkg/outbox"
	"github.com/cliqstr/cliqstr-backend/pkg/outbox/payloads"
)

const expiryBatchSize = 100

// InviteExpiryJobParams configures the invite expiry sweep.
type InviteExpiryJobParams struct {
	Logger  *logger.Logger
	DB      txRunner
	Invites invites.Repository
	Outbox  outboxEmitter
}

// NewInviteExpiryJob settles pending invites whose deadline has passed. The
// conditional update in the repository means a consent submission racing the
// sweep wins; the sweep only ever touches rows that are still pending.
func NewInviteExpiryJob(params InviteExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Invites == nil {
		return nil, fmt.Errorf("invites repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &inviteExpiryJob{
		logg:    params.Logger,
		db:      params.DB,
		invites: params.Invites,
		outbox:  params.Outbox,
		now:     time.Now,
	}, nil
}

type inviteExpiryJob struct {
	logg    *logger.Logger
	db      txRunner
	invites invites.Repository
	outbox  outboxEmitter
	now     func() time.Time
}

func (j *inviteExpiryJob) Name() string { return "invite-expiry" }

func (j *inviteExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	settled := 0
	var errs []error

	for {
		due, err := j.invites.FindDueForExpiry(ctx, now, expiryBatchSize)
		if err != nil {
			return fmt.Errorf("query due invites: %w", err)
		}
		if len(due) == 0 {
			break
		}

		progressed := 0
		for _, invite := range due {
			ok, err := j.settle(ctx, invite.ID, now)
			if err != nil {
				errs = append(errs, fmt.Errorf("settle invite %s: %w", invite.ID, err))
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
	j.logg.Info(logCtx, "invite expiry sweep complete")
	return multierr.Combine(errs...)
}

func (j *inviteExpiryJob) settle(ctx context.Context, inviteID uuid.UUID, now time.Time) (bool, error) {
	var settled bool
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.invites.WithTx(tx).MarkExpired(ctx, inviteID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return nil
		}
		settled = true
		return j.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventInviteExpired,
			AggregateType: enums.AggregateInvite,
			AggregateID:   inviteID,
			Version:       1,
			Data: payloads.InviteExpiredEvent{
				InviteID:  inviteID,
				ExpiredAt: now,
			},
			OccurredAt: now,
		})
	})
	return settled, err
}

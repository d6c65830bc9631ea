package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cliqstr/cliqstr-backend/pkg/db/models"
	"github.com/cliqstr/cliqstr-backend/pkg/enums"
	"github.com/cliqstr/cliqstr-backend/pkg/logger"
	"github.com/cliqstr/cliqstr-backend/pkg/outbox"
	"github.com/cliqstr/cliqstr-backend/pkg/outbox/idempotency"
	"github.com/cliqstr/cliqstr-backend/pkg/outbox/payloads"
)

const emailConsumerName = "consent-emails"

type usersReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Consumer watches consent domain events and turns them into transactional
// email: invite codes, consent links, and decision confirmations. Delivery
// failures are logged and acked so email can never stall the workflow.
type Consumer struct {
	mailer       Mailer
	users        usersReader
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds the consent email consumer.
func NewConsumer(mailer Mailer, users usersReader, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if users == nil {
		return nil, fmt.Errorf("users reader required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("consent subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		mailer:       mailer,
		users:        users,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run blocks receiving messages until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": string(eventType),
	})

	if !mailedEvents[eventType] {
		c.logg.Info(logCtx, "event type carries no email, skipping")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, emailConsumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.handle(ctx, eventType, envelope.Data, logCtx); err != nil {
		if isRetryable(err) {
			c.logg.Error(logCtx, "email handling failed, retrying", err)
			_ = c.idempotency.Delete(ctx, emailConsumerName, eventID)
			return processResult{nack: true}
		}
		// A send failure must never block the workflow. The event stays
		// marked processed so the duplicate delivery is not retried either.
		c.logg.Error(logCtx, "email delivery failed, dropping", err)
		return processResult{ack: true}
	}

	return processResult{ack: true}
}

var mailedEvents = map[enums.OutboxEventType]bool{
	enums.EventInviteCreated:       true,
	enums.EventApprovalRequested:   true,
	enums.EventApprovalDecided:     true,
	enums.EventChildAccountCreated: true,
}

// retryableError marks failures worth redelivering, such as a database
// hiccup while resolving the recipient. Plain send failures are not wrapped
// and get dropped after logging.
type retryableError struct {
	err error
}

func (e retryableError) Error() string {
	return e.err.Error()
}

func (e retryableError) Unwrap() error {
	return e.err
}

func isRetryable(err error) bool {
	var re retryableError
	return errors.As(err, &re)
}

func (c *Consumer) handle(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage, logCtx context.Context) error {
	switch eventType {
	case enums.EventInviteCreated:
		var payload payloads.InviteCreatedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			c.logg.Error(logCtx, "failed to parse invite payload", err)
			return nil
		}
		return c.mailer.SendInvite(ctx, payload)

	case enums.EventApprovalRequested:
		var payload payloads.ApprovalRequestedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			c.logg.Error(logCtx, "failed to parse approval payload", err)
			return nil
		}
		return c.mailer.SendApprovalRequest(ctx, payload)

	case enums.EventApprovalDecided:
		var payload payloads.ApprovalDecidedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			c.logg.Error(logCtx, "failed to parse decision payload", err)
			return nil
		}
		if payload.ParentUserID == nil {
			c.logg.Info(logCtx, "decision has no linked parent, skipping")
			return nil
		}
		email, err := c.parentEmail(ctx, *payload.ParentUserID, logCtx)
		if err != nil || email == "" {
			return err
		}
		return c.mailer.SendApprovalDecision(ctx, email, payload)

	case enums.EventChildAccountCreated:
		var payload payloads.ChildAccountCreatedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			c.logg.Error(logCtx, "failed to parse child account payload", err)
			return nil
		}
		email, err := c.parentEmail(ctx, payload.ParentUserID, logCtx)
		if err != nil || email == "" {
			return err
		}
		return c.mailer.SendChildAccountReady(ctx, email, payload)
	}
	return nil
}

func (c *Consumer) parentEmail(ctx context.Context, parentID uuid.UUID, logCtx context.Context) (string, error) {
	user, err := c.users.FindByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.logg.Info(logCtx, "parent no longer exists, skipping email")
			return "", nil
		}
		return "", retryableError{err: fmt.Errorf("resolve parent %s: %w", parentID, err)}
	}
	return user.Email, nil
}

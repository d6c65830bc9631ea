package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

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

type recordingMailer struct {
	invites   []payloads.InviteCreatedEvent
	requests  []payloads.ApprovalRequestedEvent
	decisions []string
	ready     []string
	sendErr   error
}

func (m *recordingMailer) SendInvite(ctx context.Context, payload payloads.InviteCreatedEvent) error {
	m.invites = append(m.invites, payload)
	return m.sendErr
}

func (m *recordingMailer) SendApprovalRequest(ctx context.Context, payload payloads.ApprovalRequestedEvent) error {
	m.requests = append(m.requests, payload)
	return m.sendErr
}

func (m *recordingMailer) SendApprovalDecision(ctx context.Context, toEmail string, payload payloads.ApprovalDecidedEvent) error {
	m.decisions = append(m.decisions, toEmail)
	return m.sendErr
}

func (m *recordingMailer) SendChildAccountReady(ctx context.Context, toEmail string, payload payloads.ChildAccountCreatedEvent) error {
	m.ready = append(m.ready, toEmail)
	return m.sendErr
}

type stubUsersReader struct {
	user *models.User
	err  error
}

func (s *stubUsersReader) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

type memoryStore struct {
	keys   map[string]bool
	setErr error
}

func (s *memoryStore) Get(context.Context, string) (string, error) {
	return "", nil
}

func (s *memoryStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if s.setErr != nil {
		return false, s.setErr
	}
	if s.keys == nil {
		s.keys = make(map[string]bool)
	}
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *memoryStore) IdempotencyKey(scope, id string) string {
	return "cq:idempotency:" + scope + ":" + id
}

func (s *memoryStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.keys, key)
	}
	return nil
}

func newTestConsumer(t *testing.T, mailer *recordingMailer, users usersReader, store *memoryStore) *Consumer {
	t.Helper()
	manager, err := idempotency.NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	logg := logger.New(logger.Options{ServiceName: "test"})
	consumer, err := NewConsumer(mailer, users, &pubsub.Subscriber{}, manager, logg)
	if err != nil {
		t.Fatalf("NewConsumer: %v", err)
	}
	return consumer
}

func buildMessage(t *testing.T, eventType enums.OutboxEventType, payload any) *pubsub.Message {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	envelope, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return &pubsub.Message{
		ID:         uuid.NewString(),
		Attributes: map[string]string{"event_type": string(eventType)},
		Data:       envelope,
	}
}

func TestConsumerMailsInviteCreated(t *testing.T) {
	t.Parallel()

	mailer := &recordingMailer{}
	consumer := newTestConsumer(t, mailer, &stubUsersReader{}, &memoryStore{})

	payload := payloads.InviteCreatedEvent{
		InviteID:     uuid.New(),
		Code:         "A1B2C3D4E5F60718",
		InviteeEmail: "friend@example.com",
		InvitedRole:  enums.AccountRoleAdult,
		ExpiresAt:    time.Now().Add(168 * time.Hour),
	}

	result := consumer.process(context.Background(), buildMessage(t, enums.EventInviteCreated, payload))
	if !result.ack || result.nack {
		t.Fatalf("expected ack, got %+v", result)
	}
	if len(mailer.invites) != 1 {
		t.Fatalf("expected one invite email, got %d", len(mailer.invites))
	}
	if mailer.invites[0].InviteeEmail != "friend@example.com" {
		t.Fatalf("unexpected recipient %s", mailer.invites[0].InviteeEmail)
	}
}

func TestConsumerSkipsDuplicateDelivery(t *testing.T) {
	t.Parallel()

	mailer := &recordingMailer{}
	consumer := newTestConsumer(t, mailer, &stubUsersReader{}, &memoryStore{})

	msg := buildMessage(t, enums.EventApprovalRequested, payloads.ApprovalRequestedEvent{
		ApprovalID:     uuid.New(),
		ParentEmail:    "parent@example.com",
		ChildFirstName: "Maya",
		ExpiresAt:      time.Now().Add(72 * time.Hour),
	})

	first := consumer.process(context.Background(), msg)
	second := consumer.process(context.Background(), msg)
	if !first.ack || !second.ack {
		t.Fatalf("expected both deliveries acked")
	}
	if len(mailer.requests) != 1 {
		t.Fatalf("expected a single email for duplicate delivery, got %d", len(mailer.requests))
	}
}

func TestConsumerResolvesParentEmailForDecision(t *testing.T) {
	t.Parallel()

	parentID := uuid.New()
	mailer := &recordingMailer{}
	users := &stubUsersReader{user: &models.User{ID: parentID, Email: "parent@example.com"}}
	consumer := newTestConsumer(t, mailer, users, &memoryStore{})

	payload := payloads.ApprovalDecidedEvent{
		ApprovalID:   uuid.New(),
		Status:       enums.ApprovalStatusApproved,
		ParentUserID: &parentID,
		DecidedAt:    time.Now().UTC(),
	}

	result := consumer.process(context.Background(), buildMessage(t, enums.EventApprovalDecided, payload))
	if !result.ack {
		t.Fatalf("expected ack")
	}
	if len(mailer.decisions) != 1 || mailer.decisions[0] != "parent@example.com" {
		t.Fatalf("expected decision email to parent, got %v", mailer.decisions)
	}
}

func TestConsumerAcksWhenSendFails(t *testing.T) {
	t.Parallel()

	mailer := &recordingMailer{sendErr: errors.New("ses throttled")}
	consumer := newTestConsumer(t, mailer, &stubUsersReader{}, &memoryStore{})

	msg := buildMessage(t, enums.EventInviteCreated, payloads.InviteCreatedEvent{
		InviteID:     uuid.New(),
		Code:         "A1B2C3D4E5F60718",
		InviteeEmail: "friend@example.com",
		InvitedRole:  enums.AccountRoleAdult,
	})

	result := consumer.process(context.Background(), msg)
	if !result.ack || result.nack {
		t.Fatalf("send failure must not nack, got %+v", result)
	}
}

func TestConsumerNacksOnParentLookupError(t *testing.T) {
	t.Parallel()

	parentID := uuid.New()
	mailer := &recordingMailer{}
	users := &stubUsersReader{err: errors.New("connection reset")}
	store := &memoryStore{}
	consumer := newTestConsumer(t, mailer, users, store)

	msg := buildMessage(t, enums.EventChildAccountCreated, payloads.ChildAccountCreatedEvent{
		ChildUserID:  uuid.New(),
		ParentUserID: parentID,
		Username:     "kiddo1",
	})

	result := consumer.process(context.Background(), msg)
	if !result.nack {
		t.Fatalf("expected nack for transient lookup failure, got %+v", result)
	}
	if len(store.keys) != 0 {
		t.Fatalf("expected idempotency key released for retry")
	}
}

func TestConsumerSkipsMissingParent(t *testing.T) {
	t.Parallel()

	parentID := uuid.New()
	mailer := &recordingMailer{}
	users := &stubUsersReader{err: gorm.ErrRecordNotFound}
	consumer := newTestConsumer(t, mailer, users, &memoryStore{})

	msg := buildMessage(t, enums.EventChildAccountCreated, payloads.ChildAccountCreatedEvent{
		ChildUserID:  uuid.New(),
		ParentUserID: parentID,
		Username:     "kiddo1",
	})

	result := consumer.process(context.Background(), msg)
	if !result.ack || result.nack {
		t.Fatalf("expected ack for deleted parent, got %+v", result)
	}
	if len(mailer.ready) != 0 {
		t.Fatalf("expected no email for deleted parent")
	}
}

func TestConsumerIgnoresUnrelatedEvents(t *testing.T) {
	t.Parallel()

	mailer := &recordingMailer{}
	consumer := newTestConsumer(t, mailer, &stubUsersReader{}, &memoryStore{})

	msg := buildMessage(t, enums.EventMemberJoinedCliq, payloads.MemberJoinedCliqEvent{
		CliqID: uuid.New(),
		UserID: uuid.New(),
	})

	result := consumer.process(context.Background(), msg)
	if !result.ack {
		t.Fatalf("expected ack for unrelated event")
	}
	if len(mailer.invites)+len(mailer.requests)+len(mailer.decisions)+len(mailer.ready) != 0 {
		t.Fatalf("expected no email sent")
	}
}

package cron

import (
	"context"

	"gorm.io/gorm"

	"github.com/cliqstr/cliqstr-backend/pkg/outbox"
)

// Shared narrow dependencies for jobs. Keeping them local to the package makes
// the sqlite-backed test fixtures trivial to stand up.

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

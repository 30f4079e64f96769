package repository

import (
	"context"

	"github.com/segyhp/lending-ledger/internal/domain"
	"github.com/segyhp/lending-ledger/internal/lending"
)

// Store persists the ledger. Load returns everything needed to rebuild the
// in-memory book at startup; Save writes one operation's records atomically.
type Store interface {
	// Load reads all members, loans, applications and transactions
	Load(ctx context.Context) (*lending.Snapshot, error)

	// Save upserts the entities of a delta and appends its transactions.
	// Saving the same delta twice leaves storage unchanged.
	Save(ctx context.Context, delta *lending.Delta) error

	// Ping checks the connection
	Ping(ctx context.Context) error
}

// AuditRepository defines the interface for audit trail operations
type AuditRepository interface {
	// Record appends audit events
	Record(ctx context.Context, events []domain.AuditEvent) error

	// ListByEntity returns the trail of one entity, oldest first
	ListByEntity(ctx context.Context, entityType, entityID string) ([]domain.AuditEvent, error)
}

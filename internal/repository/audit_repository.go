package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/lending-ledger/internal/domain"
)

type auditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) AuditRepository {
	return &auditRepository{db: db}
}

// auditRow carries the JSON states as nullable text, which both engines
// accept for their JSON column.
type auditRow struct {
	ID         uuid.UUID `db:"id"`
	Action     string    `db:"action"`
	EntityType string    `db:"entity_type"`
	EntityID   string    `db:"entity_id"`
	Actor      string    `db:"actor"`
	Before     *string   `db:"before_state"`
	After      *string   `db:"after_state"`
	At         time.Time `db:"at"`
}

func (r *auditRepository) Record(ctx context.Context, events []domain.AuditEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO audit_events (id, action, entity_type, entity_id, actor, before_state, after_state, at)
		VALUES (:id, :action, :entity_type, :entity_id, :actor, :before_state, :after_state, :at)
		ON CONFLICT (id) DO NOTHING
	`

	for _, e := range events {
		row := auditRow{
			ID:         e.ID,
			Action:     e.Action,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			Actor:      e.Actor,
			Before:     jsonText(e.Before),
			After:      jsonText(e.After),
			At:         e.At,
		}
		if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
			return fmt.Errorf("failed to record audit event: %w", err)
		}
	}

	return tx.Commit()
}

func (r *auditRepository) ListByEntity(ctx context.Context, entityType, entityID string) ([]domain.AuditEvent, error) {
	query := r.db.Rebind(`
		SELECT id, action, entity_type, entity_id, actor, before_state, after_state, at
		FROM audit_events
		WHERE entity_type = ? AND entity_id = ?
		ORDER BY at
	`)

	var rows []auditRow
	if err := r.db.SelectContext(ctx, &rows, query, entityType, entityID); err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}

	events := make([]domain.AuditEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, domain.AuditEvent{
			ID:         row.ID,
			Action:     row.Action,
			EntityType: row.EntityType,
			EntityID:   row.EntityID,
			Actor:      row.Actor,
			Before:     rawJSON(row.Before),
			After:      rawJSON(row.After),
			At:         row.At,
		})
	}
	return events, nil
}

func jsonText(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	s := string(raw)
	return &s
}

func rawJSON(s *string) json.RawMessage {
	if s == nil {
		return nil
	}
	return json.RawMessage(*s)
}

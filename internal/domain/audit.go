package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EntityMember      = "member"
	EntityLoan        = "loan"
	EntityApplication = "application"
)

// AuditEvent records one entity change made by a mutating operation.
type AuditEvent struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	Action     string          `json:"action" db:"action"`
	EntityType string          `json:"entityType" db:"entity_type"`
	EntityID   string          `json:"entityId" db:"entity_id"`
	Actor      string          `json:"actor" db:"actor"`
	Before     json.RawMessage `json:"before,omitempty" db:"before_state"`
	After      json.RawMessage `json:"after,omitempty" db:"after_state"`
	At         time.Time       `json:"at" db:"at"`
}

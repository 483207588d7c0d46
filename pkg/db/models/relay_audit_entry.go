package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/neture-platform/relay-backend/pkg/enums"
)

// RelayAuditEntry is one immutable record of a relay status change.
// Rows are append-only: there is no update or delete path anywhere in the
// codebase, and compliance reporting depends on that staying true.
type RelayAuditEntry struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RelayID        uuid.UUID         `gorm:"column:relay_id;type:uuid;not null;index"`
	Action         enums.RelayAction `gorm:"column:action;type:relay_action_enum;not null"`
	PreviousStatus enums.RelayStatus `gorm:"column:previous_status;type:relay_status_enum"`
	NewStatus      enums.RelayStatus `gorm:"column:new_status;type:relay_status_enum;not null"`
	ActorID        string            `gorm:"column:actor_id;not null"`
	ActorType      enums.ActorType   `gorm:"column:actor_type;type:actor_type_enum;not null"`
	Reason         *string           `gorm:"column:reason"`
	PreviousData   json.RawMessage   `gorm:"column:previous_data;type:jsonb"`
	NextData       json.RawMessage   `gorm:"column:next_data;type:jsonb"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
}

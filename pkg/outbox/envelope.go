package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ActorRef identifies who produced the event.
type ActorRef struct {
	ActorID   string     `json:"actorId"`
	ActorType string     `json:"actorType,omitempty"`
	SellerID  *uuid.UUID `json:"sellerId,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
// Event bodies carry stable identifiers so redelivery is safe for
// idempotent subscribers.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

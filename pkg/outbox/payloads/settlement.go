package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/neture-platform/relay-backend/pkg/enums"
)

// SettlementClosedEvent is published when the closing job commits a draft.
type SettlementClosedEvent struct {
	SettlementID uuid.UUID         `json:"settlement_id"`
	PartyType    enums.PartyType   `json:"party_type"`
	PartyID      uuid.UUID         `json:"party_id"`
	PeriodStart  time.Time         `json:"period_start"`
	PeriodEnd    time.Time         `json:"period_end"`
	BillingUnit  enums.BillingUnit `json:"billing_unit"`
	TotalAmount  decimal.Decimal   `json:"total_amount"`
	ItemCount    int               `json:"item_count"`
	Currency     enums.Currency    `json:"currency"`
}

// SettlementStatusEvent is published on confirmation, dispatch progress
// and archival.
type SettlementStatusEvent struct {
	SettlementID   uuid.UUID              `json:"settlement_id"`
	PartyType      enums.PartyType        `json:"party_type"`
	PartyID        uuid.UUID              `json:"party_id"`
	Status         enums.SettlementStatus `json:"status"`
	DispatchStatus enums.DispatchStatus   `json:"dispatch_status"`
	ActorID        string                 `json:"actor_id"`
}

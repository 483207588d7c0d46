package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/neture-platform/relay-backend/pkg/enums"
)

// OrderCreatedEvent is published when the import guard records a new relay.
type OrderCreatedEvent struct {
	RelayID          uuid.UUID         `json:"relay_id"`
	ChannelAccountID uuid.UUID         `json:"channel_account_id"`
	ExternalOrderID  string            `json:"external_order_id"`
	SellerID         uuid.UUID         `json:"seller_id"`
	Status           enums.RelayStatus `json:"status"`
	TotalPrice       decimal.Decimal   `json:"total_price"`
	Currency         enums.Currency    `json:"currency"`
}

// RelayTransitionEvent is published on every relay status change.
type RelayTransitionEvent struct {
	RelayID          uuid.UUID         `json:"relay_id"`
	ChannelAccountID uuid.UUID         `json:"channel_account_id"`
	ExternalOrderID  string            `json:"external_order_id"`
	Action           enums.RelayAction `json:"action"`
	PreviousStatus   enums.RelayStatus `json:"previous_status"`
	NewStatus        enums.RelayStatus `json:"new_status"`
	InternalOrderID  *string           `json:"internal_order_id,omitempty"`
	Reason           string            `json:"reason,omitempty"`
}

// CommissionAppliedEvent is published when a commission transaction is
// recorded for a fulfilled relay.
type CommissionAppliedEvent struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	RelayID       uuid.UUID       `json:"relay_id"`
	PartyType     enums.PartyType `json:"party_type"`
	PartyID       uuid.UUID       `json:"party_id"`
	Rate          decimal.Decimal `json:"rate"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      enums.Currency  `json:"currency"`
	RecordedAt    time.Time       `json:"recorded_at"`
}

package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type_enum enum in Postgres.
type OutboxAggregateType string

const (
	AggregateOrderRelay            OutboxAggregateType = "order_relay"
	AggregateSettlement            OutboxAggregateType = "settlement"
	AggregateCommissionTransaction OutboxAggregateType = "commission_transaction"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrderRelay,
	AggregateSettlement,
	AggregateCommissionTransaction,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type_enum enum in Postgres.
// Values double as the wire-level event names consumed by subscribers.
type OutboxEventType string

const (
	EventOrderCreated         OutboxEventType = "order.created"
	EventOrderRelayImported   OutboxEventType = "order.relay.imported"
	EventOrderRelayFailed     OutboxEventType = "order.relay.import_failed"
	EventOrderRelayRetried    OutboxEventType = "order.relay.retried"
	EventOrderRelayDispatched OutboxEventType = "order.relay.dispatched"
	EventOrderRelayFulfilled  OutboxEventType = "order.relay.fulfilled"
	EventOrderRelayCancelled  OutboxEventType = "order.relay.cancelled"
	EventCommissionApplied    OutboxEventType = "commission.applied"
	EventSettlementClosed     OutboxEventType = "settlement.closed"
	EventSettlementConfirmed  OutboxEventType = "settlement.confirmed"
	EventSettlementDispatched OutboxEventType = "settlement.dispatched"
	EventSettlementReceived   OutboxEventType = "settlement.received"
	EventSettlementArchived   OutboxEventType = "settlement.archived"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderRelayImported,
	EventOrderRelayFailed,
	EventOrderRelayRetried,
	EventOrderRelayDispatched,
	EventOrderRelayFulfilled,
	EventOrderRelayCancelled,
	EventCommissionApplied,
	EventSettlementClosed,
	EventSettlementConfirmed,
	EventSettlementDispatched,
	EventSettlementReceived,
	EventSettlementArchived,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

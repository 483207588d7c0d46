package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/neture-platform/relay-backend/pkg/config"
	"github.com/neture-platform/relay-backend/pkg/db/models"
	"github.com/neture-platform/relay-backend/pkg/enums"
	"github.com/neture-platform/relay-backend/pkg/outbox"
	"github.com/neture-platform/relay-backend/pkg/outbox/payloads"
)

// EventDescriptor links an event type to its aggregate/topic/payload schema.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() interface{}
}

// ResolvedEvent is the result of decoding an outbox row.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    interface{}
}

// EventRegistry maps each supported event type to its descriptor.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError signals the dispatcher should stop retrying a row.
type NonRetryableError struct {
	Err error
}

// Error implements error.
func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

// Unwrap exposes the wrapped error.
func (e NonRetryableError) Unwrap() error {
	return e.Err
}

// NewEventRegistry builds the registry with the configured topic names.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.RelayTopic == "" {
		return nil, fmt.Errorf("relay topic is required")
	}
	if cfg.SettlementTopic == "" {
		return nil, fmt.Errorf("settlement topic is required")
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor)}

	reg.register(EventDescriptor{
		EventType:      enums.EventOrderCreated,
		AggregateType:  enums.AggregateOrderRelay,
		Topic:          cfg.RelayTopic,
		PayloadFactory: func() interface{} { return &payloads.OrderCreatedEvent{} },
	})
	for _, eventType := range []enums.OutboxEventType{
		enums.EventOrderRelayImported,
		enums.EventOrderRelayFailed,
		enums.EventOrderRelayRetried,
		enums.EventOrderRelayDispatched,
		enums.EventOrderRelayFulfilled,
		enums.EventOrderRelayCancelled,
	} {
		reg.register(EventDescriptor{
			EventType:      eventType,
			AggregateType:  enums.AggregateOrderRelay,
			Topic:          cfg.RelayTopic,
			PayloadFactory: func() interface{} { return &payloads.RelayTransitionEvent{} },
		})
	}
	reg.register(EventDescriptor{
		EventType:      enums.EventCommissionApplied,
		AggregateType:  enums.AggregateCommissionTransaction,
		Topic:          cfg.SettlementTopic,
		PayloadFactory: func() interface{} { return &payloads.CommissionAppliedEvent{} },
	})
	reg.register(EventDescriptor{
		EventType:      enums.EventSettlementClosed,
		AggregateType:  enums.AggregateSettlement,
		Topic:          cfg.SettlementTopic,
		PayloadFactory: func() interface{} { return &payloads.SettlementClosedEvent{} },
	})
	for _, eventType := range []enums.OutboxEventType{
		enums.EventSettlementConfirmed,
		enums.EventSettlementDispatched,
		enums.EventSettlementReceived,
		enums.EventSettlementArchived,
	} {
		reg.register(EventDescriptor{
			EventType:      eventType,
			AggregateType:  enums.AggregateSettlement,
			Topic:          cfg.SettlementTopic,
			PayloadFactory: func() interface{} { return &payloads.SettlementStatusEvent{} },
		})
	}

	return reg, nil
}

func (r *EventRegistry) register(descriptor EventDescriptor) {
	r.entries[descriptor.EventType] = descriptor
}

// Resolve validates an outbox row against the registry and decodes its
// envelope and payload.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	descriptor, ok := r.entries[event.EventType]
	if !ok {
		return nil, NonRetryableError{Err: fmt.Errorf("event type %q not registered", event.EventType)}
	}
	if event.AggregateType != descriptor.AggregateType {
		return nil, NonRetryableError{Err: fmt.Errorf(
			"aggregate type %q does not match %q for event %q",
			event.AggregateType, descriptor.AggregateType, event.EventType,
		)}
	}

	var envelope outbox.PayloadEnvelope
	if err := decodeStrict(event.Payload, &envelope); err != nil {
		return nil, NonRetryableError{Err: fmt.Errorf("decode envelope: %w", err)}
	}

	payload := descriptor.PayloadFactory()
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return nil, NonRetryableError{Err: fmt.Errorf("decode payload: %w", err)}
	}

	return &ResolvedEvent{
		Descriptor: descriptor,
		Envelope:   envelope,
		Payload:    payload,
	}, nil
}

func decodeStrict(raw []byte, dest any) error {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

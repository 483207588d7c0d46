package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/neture-platform/relay-backend/internal/audit"
	"github.com/neture-platform/relay-backend/pkg/db/models"
	"github.com/neture-platform/relay-backend/pkg/enums"
	pkgerrors "github.com/neture-platform/relay-backend/pkg/errors"
	"github.com/neture-platform/relay-backend/pkg/outbox"
	"github.com/neture-platform/relay-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type auditRecorder interface {
	RecordTx(tx *gorm.DB, entry audit.Entry) error
}

// Actor identifies who requested a relay transition.
type Actor struct {
	ID   string
	Type enums.ActorType
}

// DispatchInput moves an imported relay to the supplier.
type DispatchInput struct {
	RelayID uuid.UUID
	Actor   Actor
}

// FulfillInput marks a dispatched relay as delivered.
type FulfillInput struct {
	RelayID uuid.UUID
	Actor   Actor
}

// CancelInput cancels a relay that has not been fulfilled.
type CancelInput struct {
	RelayID uuid.UUID
	Actor   Actor
	Reason  string
}

// Service drives the relay lifecycle after import.
type Service interface {
	Dispatch(ctx context.Context, input DispatchInput) (*models.OrderRelay, error)
	Fulfill(ctx context.Context, input FulfillInput) (*models.OrderRelay, error)
	Cancel(ctx context.Context, input CancelInput) (*models.OrderRelay, error)
	Get(ctx context.Context, id uuid.UUID) (*models.OrderRelay, error)
	List(ctx context.Context, filter ListFilter) ([]models.OrderRelay, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	audit  auditRecorder
}

// NewService builds a relay service with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, auditSvc auditRecorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("relay repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if auditSvc == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc, audit: auditSvc}, nil
}

func (s *service) Dispatch(ctx context.Context, input DispatchInput) (*models.OrderRelay, error) {
	now := time.Now()
	return s.transition(ctx, input.RelayID, enums.RelayStatusDispatched, input.Actor, nil, map[string]any{
		"last_sync_at": now,
	})
}

func (s *service) Fulfill(ctx context.Context, input FulfillInput) (*models.OrderRelay, error) {
	now := time.Now()
	return s.transition(ctx, input.RelayID, enums.RelayStatusFulfilled, input.Actor, nil, map[string]any{
		"last_sync_at": now,
	})
}

func (s *service) Cancel(ctx context.Context, input CancelInput) (*models.OrderRelay, error) {
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancellation reason required")
	}
	return s.transition(ctx, input.RelayID, enums.RelayStatusCancelled, input.Actor, &input.Reason, nil)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.OrderRelay, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "relay id required")
	}
	relay, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "relay not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load relay")
	}
	return relay, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.OrderRelay, error) {
	relays, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list relays")
	}
	return relays, nil
}

// transition loads the relay, checks the transition table, applies a
// version-guarded update and records the audit entry plus outbox event in
// one transaction. Requesting the current status is a no-op.
func (s *service) transition(ctx context.Context, relayID uuid.UUID, to enums.RelayStatus, actor Actor, reason *string, updates map[string]any) (*models.OrderRelay, error) {
	if relayID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "relay id required")
	}
	if actor.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor id required")
	}
	if !actor.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor type invalid")
	}

	var result *models.OrderRelay
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		relay, err := repo.FindByID(ctx, relayID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "relay not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load relay")
		}

		if relay.Status == to {
			result = relay
			return nil
		}
		if !CanTransition(relay.Status, to) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("relay cannot move from %s to %s", relay.Status, to)).
				WithDetails(map[string]any{
					"current_status":   relay.Status,
					"requested_status": to,
				})
		}

		if updates == nil {
			updates = map[string]any{}
		}
		updates["status"] = to

		rows, err := repo.UpdateVersioned(ctx, relay.ID, relay.Version, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update relay status")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "relay was modified concurrently")
		}

		from := relay.Status
		relay.Status = to
		relay.Version++

		if err := s.audit.RecordTx(tx, audit.Entry{
			RelayID:        relay.ID,
			Action:         actionFor(from, to),
			PreviousStatus: from,
			NewStatus:      to,
			ActorID:        actor.ID,
			ActorType:      actor.Type,
			Reason:         reason,
		}); err != nil {
			return err
		}

		payload := payloads.RelayTransitionEvent{
			RelayID:          relay.ID,
			ChannelAccountID: relay.ChannelAccountID,
			ExternalOrderID:  relay.ExternalOrderID,
			Action:           actionFor(from, to),
			PreviousStatus:   from,
			NewStatus:        to,
			InternalOrderID:  relay.InternalOrderID,
		}
		if reason != nil {
			payload.Reason = *reason
		}
		event := outbox.DomainEvent{
			EventType:     eventFor(to),
			AggregateType: enums.AggregateOrderRelay,
			AggregateID:   relay.ID,
			Actor:         &outbox.ActorRef{ActorID: actor.ID, ActorType: string(actor.Type)},
			Data:          payload,
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit relay event")
		}

		result = relay
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

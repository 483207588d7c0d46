package importguard

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/neture-platform/relay-backend/internal/audit"
	"github.com/neture-platform/relay-backend/internal/channels"
	"github.com/neture-platform/relay-backend/internal/relay"
	"github.com/neture-platform/relay-backend/pkg/db/models"
	"github.com/neture-platform/relay-backend/pkg/enums"
	pkgerrors "github.com/neture-platform/relay-backend/pkg/errors"
	"github.com/neture-platform/relay-backend/pkg/outbox"
	"github.com/neture-platform/relay-backend/pkg/outbox/payloads"
)

// Outcome classifies the result of an import attempt.
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeRejected  Outcome = "rejected"
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

type outcomeCounter interface {
	IncOutcome(outcome string)
}

// ImportInput is one order arriving from an external channel.
type ImportInput struct {
	ChannelAccountID uuid.UUID
	ExternalOrderID  string
	TotalPrice       decimal.Decimal
	Currency         enums.Currency
	SupplierID       *uuid.UUID
	OrderedAt        *time.Time
	RawPayload       json.RawMessage
	Actor            relay.Actor
}

// RetryInput re-queues a failed relay for another import attempt.
type RetryInput struct {
	RelayID uuid.UUID
	Actor   relay.Actor
}

// Result reports what the guard did with an incoming order.
type Result struct {
	Outcome Outcome
	Relay   *models.OrderRelay
}

// Service is the single entry point for orders arriving from channels.
// The unique (channel_account_id, external_order_id) index makes redelivery
// of the same order a no-op regardless of how many workers race on it.
type Service interface {
	ImportOrder(ctx context.Context, input ImportInput) (*Result, error)
	RetryImport(ctx context.Context, input RetryInput) (*Result, error)
}

type service struct {
	relays       relay.Repository
	accounts     channels.Repository
	tx           txRunner
	outbox       outboxPublisher
	audit        auditRecorder
	metrics      outcomeCounter
	retryCeiling int
}

// NewService builds an import guard service.
func NewService(
	relays relay.Repository,
	accounts channels.Repository,
	tx txRunner,
	outboxSvc outboxPublisher,
	auditSvc auditRecorder,
	metrics outcomeCounter,
	retryCeiling int,
) (Service, error) {
	if relays == nil {
		return nil, fmt.Errorf("relay repository required")
	}
	if accounts == nil {
		return nil, fmt.Errorf("channel account repository required")
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
	if retryCeiling <= 0 {
		retryCeiling = 3
	}
	return &service{
		relays:       relays,
		accounts:     accounts,
		tx:           tx,
		outbox:       outboxSvc,
		audit:        auditSvc,
		metrics:      metrics,
		retryCeiling: retryCeiling,
	}, nil
}

func (s *service) ImportOrder(ctx context.Context, input ImportInput) (*Result, error) {
	if input.ChannelAccountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "channel account id required")
	}
	if strings.TrimSpace(input.ExternalOrderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "external order id required")
	}
	if input.Actor.ID == "" {
		input.Actor = relay.Actor{ID: "channel-intake", Type: enums.ActorTypeSystem}
	}

	account, err := s.accounts.FindByID(ctx, input.ChannelAccountID)
	if err != nil {
		s.countOutcome(OutcomeRejected)
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "channel account not registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load channel account")
	}
	if !account.Active {
		s.countOutcome(OutcomeRejected)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "channel account is deactivated")
	}

	payloadErr := validatePayload(input)

	var result Result
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.relays.WithTx(tx)

		row := &models.OrderRelay{
			ChannelAccountID: account.ID,
			ExternalOrderID:  input.ExternalOrderID,
			Status:           enums.RelayStatusImportPending,
			SellerID:         account.SellerID,
			SupplierID:       input.SupplierID,
			TotalPrice:       input.TotalPrice,
			Currency:         input.Currency,
			RawPayload:       input.RawPayload,
			ExternalOrderAt:  input.OrderedAt,
		}
		created, err := repo.InsertIfAbsent(ctx, row)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert relay")
		}
		if !created {
			existing, err := repo.FindByChannelExternal(ctx, account.ID, input.ExternalOrderID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load existing relay")
			}
			result = Result{Outcome: OutcomeDuplicate, Relay: existing}
			return nil
		}

		if err := s.audit.RecordTx(tx, audit.Entry{
			RelayID:   row.ID,
			Action:    enums.RelayActionCreated,
			NewStatus: enums.RelayStatusImportPending,
			ActorID:   input.Actor.ID,
			ActorType: input.Actor.Type,
		}); err != nil {
			return err
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrderRelay,
			AggregateID:   row.ID,
			Actor:         &outbox.ActorRef{ActorID: input.Actor.ID, ActorType: string(input.Actor.Type), SellerID: &account.SellerID},
			Data: payloads.OrderCreatedEvent{
				RelayID:          row.ID,
				ChannelAccountID: account.ID,
				ExternalOrderID:  row.ExternalOrderID,
				SellerID:         account.SellerID,
				Status:           row.Status,
				TotalPrice:       row.TotalPrice,
				Currency:         row.Currency,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order created event")
		}

		settled, err := s.settleImport(ctx, tx, row, payloadErr, input.Actor)
		if err != nil {
			return err
		}
		outcome := OutcomeCreated
		if payloadErr != nil {
			outcome = OutcomeRejected
		}
		result = Result{Outcome: outcome, Relay: settled}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.countOutcome(result.Outcome)
	return &result, nil
}

func (s *service) RetryImport(ctx context.Context, input RetryInput) (*Result, error) {
	if input.RelayID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "relay id required")
	}
	if input.Actor.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor id required")
	}

	var result Result
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.relays.WithTx(tx)
		current, err := repo.FindByID(ctx, input.RelayID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "relay not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load relay")
		}
		if current.Status != enums.RelayStatusFailed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only failed relays can be retried")
		}
		if current.RetryCount >= s.retryCeiling {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "retry ceiling reached").
				WithDetails(map[string]any{"retry_count": current.RetryCount, "ceiling": s.retryCeiling})
		}

		rows, err := repo.UpdateVersioned(ctx, current.ID, current.Version, map[string]any{
			"status":     enums.RelayStatusImportPending,
			"last_error": nil,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "re-queue relay")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "relay was modified concurrently")
		}

		if err := s.audit.RecordTx(tx, audit.Entry{
			RelayID:        current.ID,
			Action:         enums.RelayActionRetried,
			PreviousStatus: enums.RelayStatusFailed,
			NewStatus:      enums.RelayStatusImportPending,
			ActorID:        input.Actor.ID,
			ActorType:      input.Actor.Type,
		}); err != nil {
			return err
		}
		if err := s.emitTransition(ctx, tx, current, enums.RelayActionRetried, enums.RelayStatusFailed, enums.RelayStatusImportPending, input.Actor, nil); err != nil {
			return err
		}

		requeued, err := repo.FindByID(ctx, current.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload relay")
		}

		payloadErr := validateStored(requeued)
		settled, err := s.settleImport(ctx, tx, requeued, payloadErr, input.Actor)
		if err != nil {
			return err
		}
		outcome := OutcomeCreated
		if payloadErr != nil {
			outcome = OutcomeRejected
		}
		result = Result{Outcome: outcome, Relay: settled}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.countOutcome(result.Outcome)
	return &result, nil
}

// settleImport moves an import_pending relay to imported or failed based on
// the payload verdict, writing the matching audit entry and outbox event.
func (s *service) settleImport(ctx context.Context, tx *gorm.DB, current *models.OrderRelay, payloadErr error, actor relay.Actor) (*models.OrderRelay, error) {
	repo := s.relays.WithTx(tx)

	if payloadErr != nil {
		// The retry count tracks failed import attempts, so it moves on
		// the failure transition, not on the re-queue.
		message := payloadErr.Error()
		rows, err := repo.UpdateVersioned(ctx, current.ID, current.Version, map[string]any{
			"status":      enums.RelayStatusFailed,
			"last_error":  message,
			"retry_count": gorm.Expr("retry_count + 1"),
		})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark relay failed")
		}
		if rows == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "relay was modified concurrently")
		}
		if err := s.audit.RecordTx(tx, audit.Entry{
			RelayID:        current.ID,
			Action:         enums.RelayActionImportFailed,
			PreviousStatus: current.Status,
			NewStatus:      enums.RelayStatusFailed,
			ActorID:        actor.ID,
			ActorType:      actor.Type,
			Reason:         &message,
		}); err != nil {
			return nil, err
		}
		if err := s.emitTransition(ctx, tx, current, enums.RelayActionImportFailed, current.Status, enums.RelayStatusFailed, actor, &message); err != nil {
			return nil, err
		}
		current.Status = enums.RelayStatusFailed
		current.LastError = &message
		current.RetryCount++
		current.Version++
		return current, nil
	}

	internalID := newInternalOrderID()
	now := time.Now()
	rows, err := repo.UpdateVersioned(ctx, current.ID, current.Version, map[string]any{
		"status":            enums.RelayStatusImported,
		"internal_order_id": internalID,
		"last_sync_at":      now,
		"retry_count":       0,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark relay imported")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "relay was modified concurrently")
	}
	if err := s.audit.RecordTx(tx, audit.Entry{
		RelayID:        current.ID,
		Action:         enums.RelayActionImported,
		PreviousStatus: current.Status,
		NewStatus:      enums.RelayStatusImported,
		ActorID:        actor.ID,
		ActorType:      actor.Type,
		NextData:       map[string]any{"internal_order_id": internalID},
	}); err != nil {
		return nil, err
	}
	current.InternalOrderID = &internalID
	if err := s.emitTransition(ctx, tx, current, enums.RelayActionImported, current.Status, enums.RelayStatusImported, actor, nil); err != nil {
		return nil, err
	}
	current.Status = enums.RelayStatusImported
	current.LastSyncAt = &now
	current.RetryCount = 0
	current.Version++
	return current, nil
}

func (s *service) emitTransition(ctx context.Context, tx *gorm.DB, current *models.OrderRelay, action enums.RelayAction, from, to enums.RelayStatus, actor relay.Actor, reason *string) error {
	payload := payloads.RelayTransitionEvent{
		RelayID:          current.ID,
		ChannelAccountID: current.ChannelAccountID,
		ExternalOrderID:  current.ExternalOrderID,
		Action:           action,
		PreviousStatus:   from,
		NewStatus:        to,
		InternalOrderID:  current.InternalOrderID,
	}
	if reason != nil {
		payload.Reason = *reason
	}
	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventForAction(action),
		AggregateType: enums.AggregateOrderRelay,
		AggregateID:   current.ID,
		Actor:         &outbox.ActorRef{ActorID: actor.ID, ActorType: string(actor.Type)},
		Data:          payload,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit relay event")
	}
	return nil
}

func eventForAction(action enums.RelayAction) enums.OutboxEventType {
	switch action {
	case enums.RelayActionImported:
		return enums.EventOrderRelayImported
	case enums.RelayActionImportFailed:
		return enums.EventOrderRelayFailed
	case enums.RelayActionRetried:
		return enums.EventOrderRelayRetried
	}
	return enums.EventOrderCreated
}

func (s *service) countOutcome(outcome Outcome) {
	if s.metrics != nil {
		s.metrics.IncOutcome(string(outcome))
	}
}

func newInternalOrderID() string {
	return "NTR-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// validatePayload checks the fields the downstream pipeline depends on.
func validatePayload(input ImportInput) error {
	if input.TotalPrice.IsNegative() {
		return fmt.Errorf("total price cannot be negative")
	}
	if !input.Currency.IsValid() {
		return fmt.Errorf("unknown currency %q", input.Currency)
	}
	if len(input.RawPayload) > 0 && !json.Valid(input.RawPayload) {
		return fmt.Errorf("order payload is not valid JSON")
	}
	return nil
}

// validateStored re-runs payload validation against a persisted relay.
func validateStored(row *models.OrderRelay) error {
	return validatePayload(ImportInput{
		TotalPrice: row.TotalPrice,
		Currency:   row.Currency,
		RawPayload: row.RawPayload,
	})
}

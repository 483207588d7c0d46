package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/neture-platform/relay-backend/pkg/db/models"
	"github.com/neture-platform/relay-backend/pkg/enums"
	pkgerrors "github.com/neture-platform/relay-backend/pkg/errors"
	"github.com/neture-platform/relay-backend/pkg/logger"
	"github.com/neture-platform/relay-backend/pkg/outbox"
	"github.com/neture-platform/relay-backend/pkg/outbox/payloads"
	"github.com/neture-platform/relay-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type relayLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.OrderRelay, error)
}

// Actor identifies who requested a settlement operation.
type Actor struct {
	ID   string
	Type enums.ActorType
}

// RecordCommissionInput applies a commission against a fulfilled relay.
// The rate is copied onto the transaction row so later rate changes never
// rewrite history.
type RecordCommissionInput struct {
	RelayID   uuid.UUID
	PartyType enums.PartyType
	PartyID   uuid.UUID
	Rate      decimal.Decimal
	Actor     Actor
}

// CloseInput closes one billing period for one party. With DryRun set the
// aggregation runs and the would-be settlement is returned, but nothing is
// persisted or emitted.
type CloseInput struct {
	PartyType   enums.PartyType
	PartyID     uuid.UUID
	PeriodStart time.Time
	PeriodEnd   time.Time
	BillingUnit enums.BillingUnit
	UnitPrice   decimal.Decimal
	Currency    enums.Currency
	DryRun      bool
	Actor       Actor
}

// CloseAllInput closes the period for every party with activity in it.
type CloseAllInput struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
	BillingUnit enums.BillingUnit
	Currency    enums.Currency
	DryRun      bool
	Actor       Actor
}

// CloseAllResult summarizes a bulk closing run.
type CloseAllResult struct {
	PartiesSeen int
	Closed      int
	Skipped     int
}

// ReconcileReport compares a settlement snapshot against the live ledger.
type ReconcileReport struct {
	SettlementID  uuid.UUID       `json:"settlement_id"`
	SnapshotTotal decimal.Decimal `json:"snapshot_total"`
	LedgerTotal   decimal.Decimal `json:"ledger_total"`
	SnapshotCount int             `json:"snapshot_count"`
	LedgerCount   int             `json:"ledger_count"`
	Drift         decimal.Decimal `json:"drift"`
	Balanced      bool            `json:"balanced"`
}

// Service owns commission recording and the settlement lifecycle.
type Service interface {
	RecordCommission(ctx context.Context, input RecordCommissionInput) (*models.CommissionTransaction, error)
	ClosePeriod(ctx context.Context, input CloseInput) (*models.Settlement, error)
	CloseAll(ctx context.Context, input CloseAllInput) (*CloseAllResult, error)
	Confirm(ctx context.Context, id uuid.UUID, actor Actor) (*models.Settlement, error)
	Dispatch(ctx context.Context, id uuid.UUID, actor Actor, note string) (*models.Settlement, error)
	Resend(ctx context.Context, id uuid.UUID, actor Actor, note string) (*models.Settlement, error)
	MarkReceived(ctx context.Context, id uuid.UUID, actor Actor) (*models.Settlement, error)
	Archive(ctx context.Context, id uuid.UUID, actor Actor) (*models.Settlement, error)
	Reconcile(ctx context.Context, id uuid.UUID) (*ReconcileReport, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Settlement, error)
	List(ctx context.Context, filter ListFilter) ([]models.Settlement, error)
}

type service struct {
	settlements Repository
	commissions CommissionRepository
	relays      relayLoader
	tx          txRunner
	outbox      outboxPublisher
	logg        *logger.Logger
}

// NewService builds a settlement service with the required dependencies.
func NewService(
	settlements Repository,
	commissions CommissionRepository,
	relays relayLoader,
	tx txRunner,
	outboxSvc outboxPublisher,
	logg *logger.Logger,
) (Service, error) {
	if settlements == nil {
		return nil, fmt.Errorf("settlement repository required")
	}
	if commissions == nil {
		return nil, fmt.Errorf("commission repository required")
	}
	if relays == nil {
		return nil, fmt.Errorf("relay loader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		settlements: settlements,
		commissions: commissions,
		relays:      relays,
		tx:          tx,
		outbox:      outboxSvc,
		logg:        logg,
	}, nil
}

func (s *service) RecordCommission(ctx context.Context, input RecordCommissionInput) (*models.CommissionTransaction, error) {
	if input.RelayID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "relay id required")
	}
	if !input.PartyType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "party type invalid")
	}
	if input.PartyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "party id required")
	}
	if input.Rate.IsNegative() || input.Rate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rate must be between 0 and 1")
	}

	relay, err := s.relays.FindByID(ctx, input.RelayID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "relay not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load relay")
	}
	if relay.Status != enums.RelayStatusFulfilled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "commission applies to fulfilled relays only")
	}

	amount := relay.TotalPrice.Mul(input.Rate).Round(2)
	txn := &models.CommissionTransaction{
		RelayID:    relay.ID,
		PartyType:  input.PartyType,
		PartyID:    input.PartyID,
		Rate:       input.Rate,
		BaseAmount: relay.TotalPrice,
		Amount:     amount,
		Currency:   relay.Currency,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.commissions.WithTx(tx)
		created, err := repo.Insert(ctx, txn)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert commission transaction")
		}
		txn = created

		event := outbox.DomainEvent{
			EventType:     enums.EventCommissionApplied,
			AggregateType: enums.AggregateCommissionTransaction,
			AggregateID:   txn.ID,
			Actor:         &outbox.ActorRef{ActorID: input.Actor.ID, ActorType: string(input.Actor.Type)},
			Data: payloads.CommissionAppliedEvent{
				TransactionID: txn.ID,
				RelayID:       txn.RelayID,
				PartyType:     txn.PartyType,
				PartyID:       txn.PartyID,
				Rate:          txn.Rate,
				Amount:        txn.Amount,
				Currency:      txn.Currency,
				RecordedAt:    txn.RecordedAt,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit commission event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// ClosePeriod aggregates a party's commission transactions over [start, end)
// into a draft settlement. A window with no activity produces nothing, and
// a scope that was already closed returns the existing row untouched.
func (s *service) ClosePeriod(ctx context.Context, input CloseInput) (*models.Settlement, error) {
	settlement, _, err := s.closePeriod(ctx, input)
	return settlement, err
}

func (s *service) closePeriod(ctx context.Context, input CloseInput) (*models.Settlement, bool, error) {
	if err := validateCloseInput(input); err != nil {
		return nil, false, err
	}

	var result *models.Settlement
	var created bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		commissions := s.commissions.WithTx(tx)
		settlements := s.settlements.WithTx(tx)

		txns, err := commissions.ListForPartyWindow(ctx, input.PartyType, input.PartyID, input.PeriodStart, input.PeriodEnd)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load commission transactions")
		}
		if len(txns) == 0 {
			return nil
		}

		lines := make(types.SettlementLines, 0, len(txns))
		total := decimal.Zero
		for _, txn := range txns {
			lines = append(lines, types.SettlementLine{
				Version:       types.SnapshotVersion,
				RelayID:       txn.RelayID,
				TransactionID: txn.ID,
				Amount:        txn.Amount,
				Rate:          txn.Rate,
				RecordedAt:    txn.RecordedAt,
			})
			total = total.Add(txn.Amount)
		}

		currency := input.Currency
		if currency == "" {
			currency = txns[0].Currency
		}

		row := &models.Settlement{
			PartyType:    input.PartyType,
			PartyID:      input.PartyID,
			PeriodStart:  input.PeriodStart,
			PeriodEnd:    input.PeriodEnd,
			BillingUnit:  input.BillingUnit,
			Status:       enums.SettlementStatusDraft,
			UnitPrice:    input.UnitPrice,
			ItemCount:    len(txns),
			TotalAmount:  total,
			Currency:     currency,
			LineSnapshot: lines,
			SnapshotAt:   time.Now(),
			CreatedBy:    input.Actor.ID,
		}

		if input.DryRun {
			existing, err := settlements.FindByScope(ctx, Scope{
				PartyType:   input.PartyType,
				PartyID:     input.PartyID,
				PeriodStart: input.PeriodStart,
				PeriodEnd:   input.PeriodEnd,
				BillingUnit: input.BillingUnit,
			})
			if err == nil {
				result = existing
				return nil
			}
			if err != gorm.ErrRecordNotFound {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load existing settlement")
			}
			result = row
			created = true
			return nil
		}

		inserted, err := settlements.InsertIfAbsent(ctx, row)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert settlement")
		}
		if !inserted {
			existing, err := settlements.FindByScope(ctx, Scope{
				PartyType:   input.PartyType,
				PartyID:     input.PartyID,
				PeriodStart: input.PeriodStart,
				PeriodEnd:   input.PeriodEnd,
				BillingUnit: input.BillingUnit,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load existing settlement")
			}
			result = existing
			return nil
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventSettlementClosed,
			AggregateType: enums.AggregateSettlement,
			AggregateID:   row.ID,
			Actor:         &outbox.ActorRef{ActorID: input.Actor.ID, ActorType: string(input.Actor.Type)},
			Data: payloads.SettlementClosedEvent{
				SettlementID: row.ID,
				PartyType:    row.PartyType,
				PartyID:      row.PartyID,
				PeriodStart:  row.PeriodStart,
				PeriodEnd:    row.PeriodEnd,
				BillingUnit:  row.BillingUnit,
				TotalAmount:  row.TotalAmount,
				ItemCount:    row.ItemCount,
				Currency:     row.Currency,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit settlement closed event")
		}
		result = row
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, created, nil
}

// CloseAll finds every party with activity in the window and closes each
// one. Individual scopes that were already closed count as skipped.
func (s *service) CloseAll(ctx context.Context, input CloseAllInput) (*CloseAllResult, error) {
	if input.PeriodEnd.Before(input.PeriodStart) || input.PeriodEnd.Equal(input.PeriodStart) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "period end must be after period start")
	}
	if !input.BillingUnit.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "billing unit invalid")
	}

	parties, err := s.commissions.DistinctParties(ctx, input.PeriodStart, input.PeriodEnd)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list settlement parties")
	}

	result := &CloseAllResult{PartiesSeen: len(parties)}
	var errs []error
	for _, party := range parties {
		_, created, err := s.closePeriod(ctx, CloseInput{
			PartyType:   party.PartyType,
			PartyID:     party.PartyID,
			PeriodStart: input.PeriodStart,
			PeriodEnd:   input.PeriodEnd,
			BillingUnit: input.BillingUnit,
			Currency:    input.Currency,
			DryRun:      input.DryRun,
			Actor:       input.Actor,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("close %s %s: %w", party.PartyType, party.PartyID, err))
			continue
		}
		if created {
			result.Closed++
		} else {
			result.Skipped++
		}
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"parties": result.PartiesSeen,
			"closed":  result.Closed,
			"skipped": result.Skipped,
		}), "settlement closing run finished")
	}
	return result, multierr.Combine(errs...)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Settlement, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "settlement id required")
	}
	settlement, err := s.settlements.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "settlement not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settlement")
	}
	return settlement, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Settlement, error) {
	settlements, err := s.settlements.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list settlements")
	}
	return settlements, nil
}

func validateCloseInput(input CloseInput) error {
	if !input.PartyType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "party type invalid")
	}
	if input.PartyID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "party id required")
	}
	if !input.BillingUnit.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "billing unit invalid")
	}
	if input.PeriodEnd.Before(input.PeriodStart) || input.PeriodEnd.Equal(input.PeriodStart) {
		return pkgerrors.New(pkgerrors.CodeValidation, "period end must be after period start")
	}
	if input.UnitPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}
	if input.Actor.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "actor id required")
	}
	return nil
}

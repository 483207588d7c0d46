package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/neture-platform/relay-backend/pkg/db/models"
	"github.com/neture-platform/relay-backend/pkg/enums"
	pkgerrors "github.com/neture-platform/relay-backend/pkg/errors"
	"github.com/neture-platform/relay-backend/pkg/outbox"
	"github.com/neture-platform/relay-backend/pkg/outbox/payloads"
	"github.com/neture-platform/relay-backend/pkg/types"
)

// Confirm freezes a draft settlement. After this point the amount, count,
// unit price and line snapshot can never change again.
func (s *service) Confirm(ctx context.Context, id uuid.UUID, actor Actor) (*models.Settlement, error) {
	if err := validateLifecycleArgs(id, actor); err != nil {
		return nil, err
	}

	var result *models.Settlement
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		settlements := s.settlements.WithTx(tx)
		current, err := s.load(ctx, settlements, id)
		if err != nil {
			return err
		}
		// Repeat confirmation is a plain read; the row is already frozen
		// and the draft-pinned update below can never fire twice.
		if current.Status == enums.SettlementStatusConfirmed {
			result = current
			return nil
		}
		if current.Status != enums.SettlementStatusDraft {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only draft settlements can be confirmed")
		}

		now := time.Now()
		rows, err := settlements.UpdateWhere(ctx, id, map[string]any{
			"status":       enums.SettlementStatusConfirmed,
			"confirmed_by": actor.ID,
			"confirmed_at": now,
		}, map[string]any{"status": enums.SettlementStatusDraft})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm settlement")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "settlement was modified concurrently")
		}

		current.Status = enums.SettlementStatusConfirmed
		current.ConfirmedBy = &actor.ID
		current.ConfirmedAt = &now
		if err := s.emitStatus(ctx, tx, current, enums.EventSettlementConfirmed, actor); err != nil {
			return err
		}
		result = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Dispatch marks a confirmed settlement as sent to its counterparty.
func (s *service) Dispatch(ctx context.Context, id uuid.UUID, actor Actor, note string) (*models.Settlement, error) {
	if err := validateLifecycleArgs(id, actor); err != nil {
		return nil, err
	}

	var result *models.Settlement
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		settlements := s.settlements.WithTx(tx)
		current, err := s.load(ctx, settlements, id)
		if err != nil {
			return err
		}
		if current.Status != enums.SettlementStatusConfirmed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only confirmed settlements can be dispatched")
		}
		if !current.DispatchStatus.CanAdvanceTo(enums.DispatchStatusSent) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "settlement was already dispatched")
		}

		log := append(current.DispatchLog, types.DispatchLogEntry{
			Version: types.SnapshotVersion,
			Kind:    types.DispatchLogSent,
			ActorID: actor.ID,
			At:      time.Now(),
			Note:    note,
		})
		rows, err := settlements.UpdateWhere(ctx, id, map[string]any{
			"dispatch_status": enums.DispatchStatusSent,
			"dispatch_log":    log,
		}, map[string]any{"dispatch_status": enums.DispatchStatusNone})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dispatch settlement")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "settlement was modified concurrently")
		}

		current.DispatchStatus = enums.DispatchStatusSent
		current.DispatchLog = log
		if err := s.emitStatus(ctx, tx, current, enums.EventSettlementDispatched, actor); err != nil {
			return err
		}
		result = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Resend records another delivery of an already dispatched settlement. The
// dispatch status does not move; only the log grows.
func (s *service) Resend(ctx context.Context, id uuid.UUID, actor Actor, note string) (*models.Settlement, error) {
	if err := validateLifecycleArgs(id, actor); err != nil {
		return nil, err
	}

	var result *models.Settlement
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		settlements := s.settlements.WithTx(tx)
		current, err := s.load(ctx, settlements, id)
		if err != nil {
			return err
		}
		if current.Status != enums.SettlementStatusConfirmed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "dispatch actions apply to confirmed settlements only")
		}
		if current.DispatchStatus != enums.DispatchStatusSent {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only sent settlements can be resent")
		}

		log := append(current.DispatchLog, types.DispatchLogEntry{
			Version: types.SnapshotVersion,
			Kind:    types.DispatchLogResent,
			ActorID: actor.ID,
			At:      time.Now(),
			Note:    note,
		})
		rows, err := settlements.UpdateWhere(ctx, id, map[string]any{
			"dispatch_log": log,
		}, map[string]any{
			"status":          enums.SettlementStatusConfirmed,
			"dispatch_status": enums.DispatchStatusSent,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record settlement resend")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "settlement was modified concurrently")
		}

		current.DispatchLog = log
		if err := s.emitStatus(ctx, tx, current, enums.EventSettlementDispatched, actor); err != nil {
			return err
		}
		result = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// MarkReceived records the counterparty's acknowledgement.
func (s *service) MarkReceived(ctx context.Context, id uuid.UUID, actor Actor) (*models.Settlement, error) {
	if err := validateLifecycleArgs(id, actor); err != nil {
		return nil, err
	}

	var result *models.Settlement
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		settlements := s.settlements.WithTx(tx)
		current, err := s.load(ctx, settlements, id)
		if err != nil {
			return err
		}
		if current.Status != enums.SettlementStatusConfirmed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "dispatch actions apply to confirmed settlements only")
		}
		if current.DispatchStatus != enums.DispatchStatusSent {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "settlement has not been dispatched")
		}

		log := append(current.DispatchLog, types.DispatchLogEntry{
			Version: types.SnapshotVersion,
			Kind:    types.DispatchLogReceived,
			ActorID: actor.ID,
			At:      time.Now(),
		})
		rows, err := settlements.UpdateWhere(ctx, id, map[string]any{
			"dispatch_status": enums.DispatchStatusReceived,
			"dispatch_log":    log,
		}, map[string]any{
			"status":          enums.SettlementStatusConfirmed,
			"dispatch_status": enums.DispatchStatusSent,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark settlement received")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "settlement was modified concurrently")
		}

		current.DispatchStatus = enums.DispatchStatusReceived
		current.DispatchLog = log
		if err := s.emitStatus(ctx, tx, current, enums.EventSettlementReceived, actor); err != nil {
			return err
		}
		result = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Archive retires a confirmed settlement from the active working set.
// Archived settlements accept no further dispatch actions.
func (s *service) Archive(ctx context.Context, id uuid.UUID, actor Actor) (*models.Settlement, error) {
	if err := validateLifecycleArgs(id, actor); err != nil {
		return nil, err
	}

	var result *models.Settlement
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		settlements := s.settlements.WithTx(tx)
		current, err := s.load(ctx, settlements, id)
		if err != nil {
			return err
		}
		if current.Status == enums.SettlementStatusArchived {
			result = current
			return nil
		}
		if current.Status != enums.SettlementStatusConfirmed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only confirmed settlements can be archived")
		}

		now := time.Now()
		rows, err := settlements.UpdateWhere(ctx, id, map[string]any{
			"status":      enums.SettlementStatusArchived,
			"archived_at": now,
		}, map[string]any{"status": enums.SettlementStatusConfirmed})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "archive settlement")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "settlement was modified concurrently")
		}

		current.Status = enums.SettlementStatusArchived
		current.ArchivedAt = &now
		if err := s.emitStatus(ctx, tx, current, enums.EventSettlementArchived, actor); err != nil {
			return err
		}
		result = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Reconcile recomputes the settlement window from the live commission
// ledger and compares it against the frozen snapshot.
func (s *service) Reconcile(ctx context.Context, id uuid.UUID) (*ReconcileReport, error) {
	settlement, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	txns, err := s.commissions.ListForPartyWindow(ctx, settlement.PartyType, settlement.PartyID, settlement.PeriodStart, settlement.PeriodEnd)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load commission transactions")
	}

	ledgerTotal := decimal.Zero
	for _, txn := range txns {
		ledgerTotal = ledgerTotal.Add(txn.Amount)
	}
	snapshotTotal := settlement.LineSnapshot.Total()
	drift := ledgerTotal.Sub(snapshotTotal)

	return &ReconcileReport{
		SettlementID:  settlement.ID,
		SnapshotTotal: snapshotTotal,
		LedgerTotal:   ledgerTotal,
		SnapshotCount: len(settlement.LineSnapshot),
		LedgerCount:   len(txns),
		Drift:         drift,
		Balanced:      drift.IsZero() && len(txns) == len(settlement.LineSnapshot),
	}, nil
}

func (s *service) load(ctx context.Context, settlements Repository, id uuid.UUID) (*models.Settlement, error) {
	current, err := settlements.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "settlement not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settlement")
	}
	return current, nil
}

func (s *service) emitStatus(ctx context.Context, tx *gorm.DB, current *models.Settlement, eventType enums.OutboxEventType, actor Actor) error {
	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateSettlement,
		AggregateID:   current.ID,
		Actor:         &outbox.ActorRef{ActorID: actor.ID, ActorType: string(actor.Type)},
		Data: payloads.SettlementStatusEvent{
			SettlementID:   current.ID,
			PartyType:      current.PartyType,
			PartyID:        current.PartyID,
			Status:         current.Status,
			DispatchStatus: current.DispatchStatus,
			ActorID:        actor.ID,
		},
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit settlement event")
	}
	return nil
}

func validateLifecycleArgs(id uuid.UUID, actor Actor) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "settlement id required")
	}
	if actor.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "actor id required")
	}
	return nil
}

package settlement

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/neture-platform/relay-backend/pkg/db/models"
	"github.com/neture-platform/relay-backend/pkg/enums"
	pkgerrors "github.com/neture-platform/relay-backend/pkg/errors"
	"github.com/neture-platform/relay-backend/pkg/types"
)

var testActor = Actor{ID: "ops-1", Type: enums.ActorTypeAdmin}

func TestConfirmFreezesDraft(t *testing.T) {
	deps := newTestDeps()
	deps.settlements.stored = &models.Settlement{
		ID:     uuid.New(),
		Status: enums.SettlementStatusDraft,
	}
	svc := newTestService(t, deps)

	confirmed, err := svc.Confirm(context.Background(), deps.settlements.stored.ID, testActor)
	if err != nil {
		t.Fatalf("confirm returned error: %v", err)
	}
	if confirmed.Status != enums.SettlementStatusConfirmed {
		t.Fatalf("unexpected status: %s", confirmed.Status)
	}
	if confirmed.ConfirmedBy == nil || *confirmed.ConfirmedBy != testActor.ID {
		t.Fatalf("confirmed_by must record the actor")
	}
	if len(deps.settlements.conds) != 1 || deps.settlements.conds[0]["status"] != enums.SettlementStatusDraft {
		t.Fatalf("confirm must pin the draft status in the update condition")
	}
	if len(deps.outbox.events) != 1 || deps.outbox.events[0].EventType != enums.EventSettlementConfirmed {
		t.Fatalf("expected one settlement confirmed event")
	}
}

func TestConfirmAlreadyConfirmedIsIdempotent(t *testing.T) {
	deps := newTestDeps()
	deps.settlements.stored = &models.Settlement{
		ID:     uuid.New(),
		Status: enums.SettlementStatusConfirmed,
	}
	svc := newTestService(t, deps)

	confirmed, err := svc.Confirm(context.Background(), deps.settlements.stored.ID, testActor)
	if err != nil {
		t.Fatalf("confirm returned error: %v", err)
	}
	if confirmed.Status != enums.SettlementStatusConfirmed {
		t.Fatalf("unexpected status: %s", confirmed.Status)
	}
	if len(deps.settlements.updates) != 0 || len(deps.outbox.events) != 0 {
		t.Fatalf("repeat confirm must not write or emit")
	}
}

func TestConfirmRejectsArchived(t *testing.T) {
	deps := newTestDeps()
	deps.settlements.stored = &models.Settlement{
		ID:     uuid.New(),
		Status: enums.SettlementStatusArchived,
	}
	svc := newTestService(t, deps)

	_, err := svc.Confirm(context.Background(), deps.settlements.stored.ID, testActor)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestDispatchRequiresConfirmed(t *testing.T) {
	deps := newTestDeps()
	deps.settlements.stored = &models.Settlement{
		ID:     uuid.New(),
		Status: enums.SettlementStatusDraft,
	}
	svc := newTestService(t, deps)

	_, err := svc.Dispatch(context.Background(), deps.settlements.stored.ID, testActor, "")
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestDispatchAppendsLogEntry(t *testing.T) {
	deps := newTestDeps()
	deps.settlements.stored = &models.Settlement{
		ID:             uuid.New(),
		Status:         enums.SettlementStatusConfirmed,
		DispatchStatus: enums.DispatchStatusNone,
	}
	svc := newTestService(t, deps)

	sent, err := svc.Dispatch(context.Background(), deps.settlements.stored.ID, testActor, "initial send")
	if err != nil {
		t.Fatalf("dispatch returned error: %v", err)
	}
	if sent.DispatchStatus != enums.DispatchStatusSent {
		t.Fatalf("unexpected dispatch status: %s", sent.DispatchStatus)
	}
	if len(sent.DispatchLog) != 1 {
		t.Fatalf("expected one dispatch log entry, got %d", len(sent.DispatchLog))
	}
	entry := sent.DispatchLog[0]
	if entry.Kind != types.DispatchLogSent || entry.ActorID != testActor.ID || entry.Note != "initial send" {
		t.Fatalf("unexpected log entry: %+v", entry)
	}
}

func TestDispatchForwardOnly(t *testing.T) {
	deps := newTestDeps()
	deps.settlements.stored = &models.Settlement{
		ID:             uuid.New(),
		Status:         enums.SettlementStatusConfirmed,
		DispatchStatus: enums.DispatchStatusReceived,
	}
	svc := newTestService(t, deps)

	_, err := svc.Dispatch(context.Background(), deps.settlements.stored.ID, testActor, "")
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict for re-dispatch, got %v", err)
	}
}

func TestResendGrowsLogWithoutStatusMove(t *testing.T) {
	deps := newTestDeps()
	deps.settlements.stored = &models.Settlement{
		ID:             uuid.New(),
		Status:         enums.SettlementStatusConfirmed,
		DispatchStatus: enums.DispatchStatusSent,
		DispatchLog: types.DispatchLog{
			{Version: types.SnapshotVersion, Kind: types.DispatchLogSent, ActorID: "ops-1"},
		},
	}
	svc := newTestService(t, deps)

	resent, err := svc.Resend(context.Background(), deps.settlements.stored.ID, testActor, "counterparty lost it")
	if err != nil {
		t.Fatalf("resend returned error: %v", err)
	}
	if resent.DispatchStatus != enums.DispatchStatusSent {
		t.Fatalf("resend must not move the dispatch status")
	}
	if len(resent.DispatchLog) != 2 {
		t.Fatalf("expected two dispatch log entries, got %d", len(resent.DispatchLog))
	}
	if resent.DispatchLog[1].Kind != types.DispatchLogResent {
		t.Fatalf("unexpected log kind: %s", resent.DispatchLog[1].Kind)
	}
	if _, ok := deps.settlements.updates[0]["dispatch_status"]; ok {
		t.Fatalf("resend must not update the dispatch status column")
	}
	if deps.settlements.conds[0]["status"] != enums.SettlementStatusConfirmed {
		t.Fatalf("resend must pin the confirmed status in the update condition")
	}
}

func TestResendRejectedAfterArchive(t *testing.T) {
	deps := newTestDeps()
	deps.settlements.stored = &models.Settlement{
		ID:             uuid.New(),
		Status:         enums.SettlementStatusArchived,
		DispatchStatus: enums.DispatchStatusSent,
	}
	svc := newTestService(t, deps)

	_, err := svc.Resend(context.Background(), deps.settlements.stored.ID, testActor, "")
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(deps.settlements.updates) != 0 || len(deps.outbox.events) != 0 {
		t.Fatalf("archived settlement must not accept dispatch actions")
	}
}

func TestResendRequiresSent(t *testing.T) {
	deps := newTestDeps()
	deps.settlements.stored = &models.Settlement{
		ID:             uuid.New(),
		Status:         enums.SettlementStatusConfirmed,
		DispatchStatus: enums.DispatchStatusNone,
	}
	svc := newTestService(t, deps)

	_, err := svc.Resend(context.Background(), deps.settlements.stored.ID, testActor, "")
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestMarkReceivedAdvancesDispatchAxis(t *testing.T) {
	deps := newTestDeps()
	deps.settlements.stored = &models.Settlement{
		ID:             uuid.New(),
		Status:         enums.SettlementStatusConfirmed,
		DispatchStatus: enums.DispatchStatusSent,
	}
	svc := newTestService(t, deps)

	received, err := svc.MarkReceived(context.Background(), deps.settlements.stored.ID, testActor)
	if err != nil {
		t.Fatalf("mark received returned error: %v", err)
	}
	if received.DispatchStatus != enums.DispatchStatusReceived {
		t.Fatalf("unexpected dispatch status: %s", received.DispatchStatus)
	}
	if len(deps.outbox.events) != 1 || deps.outbox.events[0].EventType != enums.EventSettlementReceived {
		t.Fatalf("expected one settlement received event")
	}
}

func TestMarkReceivedRequiresDispatch(t *testing.T) {
	deps := newTestDeps()
	deps.settlements.stored = &models.Settlement{
		ID:             uuid.New(),
		Status:         enums.SettlementStatusConfirmed,
		DispatchStatus: enums.DispatchStatusNone,
	}
	svc := newTestService(t, deps)

	_, err := svc.MarkReceived(context.Background(), deps.settlements.stored.ID, testActor)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestMarkReceivedRejectedAfterArchive(t *testing.T) {
	deps := newTestDeps()
	deps.settlements.stored = &models.Settlement{
		ID:             uuid.New(),
		Status:         enums.SettlementStatusArchived,
		DispatchStatus: enums.DispatchStatusSent,
	}
	svc := newTestService(t, deps)

	_, err := svc.MarkReceived(context.Background(), deps.settlements.stored.ID, testActor)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(deps.settlements.updates) != 0 || len(deps.outbox.events) != 0 {
		t.Fatalf("archived settlement must not accept dispatch actions")
	}
}

func TestArchiveConfirmedSettlement(t *testing.T) {
	deps := newTestDeps()
	deps.settlements.stored = &models.Settlement{
		ID:     uuid.New(),
		Status: enums.SettlementStatusConfirmed,
	}
	svc := newTestService(t, deps)

	archived, err := svc.Archive(context.Background(), deps.settlements.stored.ID, testActor)
	if err != nil {
		t.Fatalf("archive returned error: %v", err)
	}
	if archived.Status != enums.SettlementStatusArchived {
		t.Fatalf("unexpected status: %s", archived.Status)
	}
	if archived.ArchivedAt == nil {
		t.Fatalf("archived_at must be set")
	}
}

func TestArchiveDraftRejected(t *testing.T) {
	deps := newTestDeps()
	deps.settlements.stored = &models.Settlement{
		ID:     uuid.New(),
		Status: enums.SettlementStatusDraft,
	}
	svc := newTestService(t, deps)

	_, err := svc.Archive(context.Background(), deps.settlements.stored.ID, testActor)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestReconcileBalanced(t *testing.T) {
	txn := models.CommissionTransaction{
		ID:      uuid.New(),
		RelayID: uuid.New(),
		Amount:  decimal.RequireFromString("200"),
	}
	deps := newTestDeps()
	deps.commissions.txns = []models.CommissionTransaction{txn}
	deps.settlements.stored = &models.Settlement{
		ID: uuid.New(),
		LineSnapshot: types.SettlementLines{
			{RelayID: txn.RelayID, TransactionID: txn.ID, Amount: txn.Amount},
		},
	}
	svc := newTestService(t, deps)

	report, err := svc.Reconcile(context.Background(), deps.settlements.stored.ID)
	if err != nil {
		t.Fatalf("reconcile returned error: %v", err)
	}
	if !report.Balanced {
		t.Fatalf("expected balanced report, got %+v", report)
	}
	if !report.Drift.IsZero() {
		t.Fatalf("unexpected drift: %s", report.Drift)
	}
}

func TestReconcileReportsDrift(t *testing.T) {
	deps := newTestDeps()
	deps.commissions.txns = []models.CommissionTransaction{
		{ID: uuid.New(), RelayID: uuid.New(), Amount: decimal.RequireFromString("250")},
	}
	deps.settlements.stored = &models.Settlement{
		ID: uuid.New(),
		LineSnapshot: types.SettlementLines{
			{Amount: decimal.RequireFromString("200")},
		},
	}
	svc := newTestService(t, deps)

	report, err := svc.Reconcile(context.Background(), deps.settlements.stored.ID)
	if err != nil {
		t.Fatalf("reconcile returned error: %v", err)
	}
	if report.Balanced {
		t.Fatalf("expected unbalanced report")
	}
	if !report.Drift.Equal(decimal.RequireFromString("50")) {
		t.Fatalf("unexpected drift: %s", report.Drift)
	}
}

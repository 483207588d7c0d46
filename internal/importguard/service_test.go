package importguard

import (
	"context"
	"testing"

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
)

func TestImportOrderCreatesAndSettlesImported(t *testing.T) {
	account := activeAccount()
	relays := &fakeRelayRepo{insertCreated: true, updateRows: 1}
	outboxSvc := &fakeOutbox{}
	auditSvc := &fakeAudit{}
	counter := &fakeCounter{}
	svc := newTestService(t, relays, &fakeAccountRepo{account: account}, outboxSvc, auditSvc, counter)

	result, err := svc.ImportOrder(context.Background(), ImportInput{
		ChannelAccountID: account.ID,
		ExternalOrderID:  "EXT-2001",
		TotalPrice:       decimal.NewFromInt(15000),
		Currency:         enums.CurrencyKRW,
	})
	if err != nil {
		t.Fatalf("import returned error: %v", err)
	}
	if result.Outcome != OutcomeCreated {
		t.Fatalf("unexpected outcome: %s", result.Outcome)
	}
	if result.Relay.Status != enums.RelayStatusImported {
		t.Fatalf("unexpected relay status: %s", result.Relay.Status)
	}
	if result.Relay.InternalOrderID == nil || *result.Relay.InternalOrderID == "" {
		t.Fatalf("imported relay must carry an internal order id")
	}
	if len(outboxSvc.events) != 2 {
		t.Fatalf("expected created + imported events, got %d", len(outboxSvc.events))
	}
	if outboxSvc.events[0].EventType != enums.EventOrderCreated {
		t.Fatalf("first event should be order created, got %s", outboxSvc.events[0].EventType)
	}
	if outboxSvc.events[1].EventType != enums.EventOrderRelayImported {
		t.Fatalf("second event should be relay imported, got %s", outboxSvc.events[1].EventType)
	}
	if len(auditSvc.entries) != 2 {
		t.Fatalf("expected created + imported audit entries, got %d", len(auditSvc.entries))
	}
	if counter.outcomes["created"] != 1 {
		t.Fatalf("created outcome not counted: %v", counter.outcomes)
	}
}

func TestImportOrderDuplicateReturnsExisting(t *testing.T) {
	account := activeAccount()
	existing := &models.OrderRelay{
		ID:               uuid.New(),
		ChannelAccountID: account.ID,
		ExternalOrderID:  "EXT-2002",
		Status:           enums.RelayStatusImported,
	}
	relays := &fakeRelayRepo{insertCreated: false, existing: existing}
	outboxSvc := &fakeOutbox{}
	auditSvc := &fakeAudit{}
	counter := &fakeCounter{}
	svc := newTestService(t, relays, &fakeAccountRepo{account: account}, outboxSvc, auditSvc, counter)

	result, err := svc.ImportOrder(context.Background(), ImportInput{
		ChannelAccountID: account.ID,
		ExternalOrderID:  "EXT-2002",
		TotalPrice:       decimal.NewFromInt(9900),
		Currency:         enums.CurrencyKRW,
	})
	if err != nil {
		t.Fatalf("import returned error: %v", err)
	}
	if result.Outcome != OutcomeDuplicate {
		t.Fatalf("unexpected outcome: %s", result.Outcome)
	}
	if result.Relay.ID != existing.ID {
		t.Fatalf("duplicate must return the stored relay")
	}
	if len(outboxSvc.events) != 0 || len(auditSvc.entries) != 0 {
		t.Fatalf("duplicate must not emit events or audit entries")
	}
	if counter.outcomes["duplicate"] != 1 {
		t.Fatalf("duplicate outcome not counted: %v", counter.outcomes)
	}
}

func TestImportOrderInvalidPayloadSettlesFailed(t *testing.T) {
	account := activeAccount()
	relays := &fakeRelayRepo{insertCreated: true, updateRows: 1}
	outboxSvc := &fakeOutbox{}
	auditSvc := &fakeAudit{}
	counter := &fakeCounter{}
	svc := newTestService(t, relays, &fakeAccountRepo{account: account}, outboxSvc, auditSvc, counter)

	result, err := svc.ImportOrder(context.Background(), ImportInput{
		ChannelAccountID: account.ID,
		ExternalOrderID:  "EXT-2003",
		TotalPrice:       decimal.NewFromInt(-500),
		Currency:         enums.CurrencyKRW,
	})
	if err != nil {
		t.Fatalf("import returned error: %v", err)
	}
	if result.Outcome != OutcomeRejected {
		t.Fatalf("unexpected outcome: %s", result.Outcome)
	}
	if result.Relay.Status != enums.RelayStatusFailed {
		t.Fatalf("unexpected relay status: %s", result.Relay.Status)
	}
	if result.Relay.LastError == nil || *result.Relay.LastError == "" {
		t.Fatalf("failed relay must record the payload error")
	}
	if outboxSvc.events[len(outboxSvc.events)-1].EventType != enums.EventOrderRelayFailed {
		t.Fatalf("last event should be relay failed")
	}
	if counter.outcomes["rejected"] != 1 {
		t.Fatalf("rejected outcome not counted: %v", counter.outcomes)
	}
	failedUpdate := relays.updates[len(relays.updates)-1]
	if _, ok := failedUpdate["retry_count"]; !ok {
		t.Fatalf("failure must increment the retry count")
	}
	if result.Relay.RetryCount != 1 {
		t.Fatalf("unexpected retry count after failure: %d", result.Relay.RetryCount)
	}
}

func TestImportOrderDeactivatedAccountRejected(t *testing.T) {
	account := activeAccount()
	account.Active = false
	counter := &fakeCounter{}
	svc := newTestService(t, &fakeRelayRepo{}, &fakeAccountRepo{account: account}, &fakeOutbox{}, &fakeAudit{}, counter)

	_, err := svc.ImportOrder(context.Background(), ImportInput{
		ChannelAccountID: account.ID,
		ExternalOrderID:  "EXT-2004",
		TotalPrice:       decimal.NewFromInt(100),
		Currency:         enums.CurrencyKRW,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if counter.outcomes["rejected"] != 1 {
		t.Fatalf("rejected outcome not counted: %v", counter.outcomes)
	}
}

func TestImportOrderUnknownAccountNotFound(t *testing.T) {
	svc := newTestService(t, &fakeRelayRepo{}, &fakeAccountRepo{findErr: gorm.ErrRecordNotFound}, &fakeOutbox{}, &fakeAudit{}, &fakeCounter{})

	_, err := svc.ImportOrder(context.Background(), ImportInput{
		ChannelAccountID: uuid.New(),
		ExternalOrderID:  "EXT-2005",
		TotalPrice:       decimal.NewFromInt(100),
		Currency:         enums.CurrencyKRW,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRetryImportRequeuesFailedRelay(t *testing.T) {
	stored := &models.OrderRelay{
		ID:               uuid.New(),
		ChannelAccountID: uuid.New(),
		ExternalOrderID:  "EXT-2006",
		Status:           enums.RelayStatusFailed,
		TotalPrice:       decimal.NewFromInt(4200),
		Currency:         enums.CurrencyKRW,
		RetryCount:       1,
		Version:          2,
	}
	relays := &fakeRelayRepo{stored: stored, updateRows: 1}
	outboxSvc := &fakeOutbox{}
	auditSvc := &fakeAudit{}
	svc := newTestService(t, relays, &fakeAccountRepo{account: activeAccount()}, outboxSvc, auditSvc, &fakeCounter{})

	result, err := svc.RetryImport(context.Background(), RetryInput{
		RelayID: stored.ID,
		Actor:   relay.Actor{ID: "ops-1", Type: enums.ActorTypeAdmin},
	})
	if err != nil {
		t.Fatalf("retry returned error: %v", err)
	}
	if result.Outcome != OutcomeCreated {
		t.Fatalf("unexpected outcome: %s", result.Outcome)
	}
	if result.Relay.Status != enums.RelayStatusImported {
		t.Fatalf("unexpected relay status after retry: %s", result.Relay.Status)
	}
	if len(relays.updates) < 2 {
		t.Fatalf("retry should requeue then settle, got %d updates", len(relays.updates))
	}
	if relays.updates[0]["status"] != enums.RelayStatusImportPending {
		t.Fatalf("first update must requeue to import_pending")
	}
	if _, ok := relays.updates[0]["retry_count"]; ok {
		t.Fatalf("re-queue must not touch the retry count")
	}
	if relays.updates[1]["retry_count"] != 0 {
		t.Fatalf("successful import must reset the retry count")
	}
	if result.Relay.RetryCount != 0 {
		t.Fatalf("unexpected retry count after successful retry: %d", result.Relay.RetryCount)
	}
	if outboxSvc.events[0].EventType != enums.EventOrderRelayRetried {
		t.Fatalf("first event should be relay retried, got %s", outboxSvc.events[0].EventType)
	}
}

func TestRetryImportOnlyFailedRelays(t *testing.T) {
	stored := &models.OrderRelay{
		ID:     uuid.New(),
		Status: enums.RelayStatusImported,
	}
	svc := newTestService(t, &fakeRelayRepo{stored: stored}, &fakeAccountRepo{account: activeAccount()}, &fakeOutbox{}, &fakeAudit{}, &fakeCounter{})

	_, err := svc.RetryImport(context.Background(), RetryInput{
		RelayID: stored.ID,
		Actor:   relay.Actor{ID: "ops-1", Type: enums.ActorTypeAdmin},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestRetryImportCeilingReached(t *testing.T) {
	stored := &models.OrderRelay{
		ID:         uuid.New(),
		Status:     enums.RelayStatusFailed,
		RetryCount: 3,
	}
	svc := newTestService(t, &fakeRelayRepo{stored: stored}, &fakeAccountRepo{account: activeAccount()}, &fakeOutbox{}, &fakeAudit{}, &fakeCounter{})

	_, err := svc.RetryImport(context.Background(), RetryInput{
		RelayID: stored.ID,
		Actor:   relay.Actor{ID: "ops-1", Type: enums.ActorTypeAdmin},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict at ceiling, got %v", err)
	}
}

func newTestService(t *testing.T, relays relay.Repository, accounts channels.Repository, outboxSvc outboxPublisher, auditSvc auditRecorder, counter outcomeCounter) Service {
	t.Helper()
	svc, err := NewService(relays, accounts, &fakeTx{}, outboxSvc, auditSvc, counter, 3)
	if err != nil {
		t.Fatalf("failed to construct service: %v", err)
	}
	return svc
}

func activeAccount() *models.ChannelAccount {
	return &models.ChannelAccount{
		ID:          uuid.New(),
		SellerID:    uuid.New(),
		ChannelType: enums.ChannelTypeWebShop,
		Name:        "main store",
		Active:      true,
	}
}

type fakeTx struct{}

func (f *fakeTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeRelayRepo struct {
	insertCreated bool
	existing      *models.OrderRelay
	stored        *models.OrderRelay
	updateRows    int64
	updates       []map[string]any
}

func (f *fakeRelayRepo) WithTx(tx *gorm.DB) relay.Repository {
	return f
}

func (f *fakeRelayRepo) InsertIfAbsent(ctx context.Context, row *models.OrderRelay) (bool, error) {
	if !f.insertCreated {
		return false, nil
	}
	row.ID = uuid.New()
	f.stored = row
	return true, nil
}

func (f *fakeRelayRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.OrderRelay, error) {
	if f.stored == nil {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *f.stored
	return &copied, nil
}

func (f *fakeRelayRepo) FindByChannelExternal(ctx context.Context, channelAccountID uuid.UUID, externalOrderID string) (*models.OrderRelay, error) {
	if f.existing == nil {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *f.existing
	return &copied, nil
}

func (f *fakeRelayRepo) UpdateVersioned(ctx context.Context, id uuid.UUID, version int, updates map[string]any) (int64, error) {
	f.updates = append(f.updates, updates)
	if f.updateRows > 0 && f.stored != nil {
		if status, ok := updates["status"].(enums.RelayStatus); ok {
			f.stored.Status = status
		}
		f.stored.Version++
	}
	return f.updateRows, nil
}

func (f *fakeRelayRepo) List(ctx context.Context, filter relay.ListFilter) ([]models.OrderRelay, error) {
	return nil, nil
}

type fakeAccountRepo struct {
	account *models.ChannelAccount
	findErr error
}

func (f *fakeAccountRepo) WithTx(tx *gorm.DB) channels.Repository {
	return f
}

func (f *fakeAccountRepo) Create(ctx context.Context, account *models.ChannelAccount) (*models.ChannelAccount, error) {
	return account, nil
}

func (f *fakeAccountRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.ChannelAccount, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.account, nil
}

func (f *fakeAccountRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.ChannelAccount, error) {
	return nil, nil
}

func (f *fakeAccountRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return nil
}

type fakeOutbox struct {
	events []outbox.DomainEvent
}

func (f *fakeOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

type fakeAudit struct {
	entries []audit.Entry
}

func (f *fakeAudit) RecordTx(tx *gorm.DB, entry audit.Entry) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakeCounter struct {
	outcomes map[string]int
}

func (f *fakeCounter) IncOutcome(outcome string) {
	if f.outcomes == nil {
		f.outcomes = map[string]int{}
	}
	f.outcomes[outcome]++
}

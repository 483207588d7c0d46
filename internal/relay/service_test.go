package relay

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/neture-platform/relay-backend/internal/audit"
	"github.com/neture-platform/relay-backend/pkg/db/models"
	"github.com/neture-platform/relay-backend/pkg/enums"
	pkgerrors "github.com/neture-platform/relay-backend/pkg/errors"
	"github.com/neture-platform/relay-backend/pkg/outbox"
)

func TestDispatchMovesImportedRelay(t *testing.T) {
	relay := &models.OrderRelay{
		ID:               uuid.New(),
		ChannelAccountID: uuid.New(),
		ExternalOrderID:  "EXT-1001",
		Status:           enums.RelayStatusImported,
		Version:          3,
	}
	repo := &stubRepo{relay: relay, updateRows: 1}
	outboxSvc := &stubOutbox{}
	auditSvc := &stubAudit{}
	svc := newTestService(t, repo, outboxSvc, auditSvc)

	updated, err := svc.Dispatch(context.Background(), DispatchInput{
		RelayID: relay.ID,
		Actor:   Actor{ID: "ops-1", Type: enums.ActorTypeAdmin},
	})
	if err != nil {
		t.Fatalf("dispatch returned error: %v", err)
	}
	if updated.Status != enums.RelayStatusDispatched {
		t.Fatalf("unexpected status: %s", updated.Status)
	}
	if updated.Version != 4 {
		t.Fatalf("expected version bump, got %d", updated.Version)
	}
	if len(repo.updates) != 1 {
		t.Fatalf("expected one versioned update, got %d", len(repo.updates))
	}
	if _, ok := repo.updates[0]["last_sync_at"]; !ok {
		t.Fatalf("dispatch should touch last_sync_at")
	}
	if len(auditSvc.entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(auditSvc.entries))
	}
	entry := auditSvc.entries[0]
	if entry.Action != enums.RelayActionDispatched {
		t.Fatalf("unexpected audit action: %s", entry.Action)
	}
	if entry.PreviousStatus != enums.RelayStatusImported || entry.NewStatus != enums.RelayStatusDispatched {
		t.Fatalf("audit statuses wrong: %s -> %s", entry.PreviousStatus, entry.NewStatus)
	}
	if len(outboxSvc.events) != 1 {
		t.Fatalf("expected one outbox event, got %d", len(outboxSvc.events))
	}
	if outboxSvc.events[0].EventType != enums.EventOrderRelayDispatched {
		t.Fatalf("unexpected event type: %s", outboxSvc.events[0].EventType)
	}
}

func TestDispatchSameStatusIsNoOp(t *testing.T) {
	relay := &models.OrderRelay{
		ID:      uuid.New(),
		Status:  enums.RelayStatusDispatched,
		Version: 1,
	}
	repo := &stubRepo{relay: relay}
	outboxSvc := &stubOutbox{}
	auditSvc := &stubAudit{}
	svc := newTestService(t, repo, outboxSvc, auditSvc)

	updated, err := svc.Dispatch(context.Background(), DispatchInput{
		RelayID: relay.ID,
		Actor:   Actor{ID: "ops-1", Type: enums.ActorTypeAdmin},
	})
	if err != nil {
		t.Fatalf("dispatch returned error: %v", err)
	}
	if updated.Version != 1 {
		t.Fatalf("no-op must not bump version, got %d", updated.Version)
	}
	if len(repo.updates) != 0 {
		t.Fatalf("no-op must not write updates")
	}
	if len(auditSvc.entries) != 0 || len(outboxSvc.events) != 0 {
		t.Fatalf("no-op must not record audit or events")
	}
}

func TestCancelFulfilledRelayRejected(t *testing.T) {
	relay := &models.OrderRelay{
		ID:     uuid.New(),
		Status: enums.RelayStatusFulfilled,
	}
	repo := &stubRepo{relay: relay}
	svc := newTestService(t, repo, &stubOutbox{}, &stubAudit{})

	_, err := svc.Cancel(context.Background(), CancelInput{
		RelayID: relay.ID,
		Actor:   Actor{ID: "ops-1", Type: enums.ActorTypeAdmin},
		Reason:  "customer request",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestCancelRequiresReason(t *testing.T) {
	svc := newTestService(t, &stubRepo{}, &stubOutbox{}, &stubAudit{})

	_, err := svc.Cancel(context.Background(), CancelInput{
		RelayID: uuid.New(),
		Actor:   Actor{ID: "ops-1", Type: enums.ActorTypeAdmin},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTransitionStaleVersionConflicts(t *testing.T) {
	relay := &models.OrderRelay{
		ID:      uuid.New(),
		Status:  enums.RelayStatusImported,
		Version: 2,
	}
	repo := &stubRepo{relay: relay, updateRows: 0}
	svc := newTestService(t, repo, &stubOutbox{}, &stubAudit{})

	_, err := svc.Dispatch(context.Background(), DispatchInput{
		RelayID: relay.ID,
		Actor:   Actor{ID: "ops-1", Type: enums.ActorTypeAdmin},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict on stale version, got %v", err)
	}
}

func TestGetUnknownRelayNotFound(t *testing.T) {
	svc := newTestService(t, &stubRepo{findErr: gorm.ErrRecordNotFound}, &stubOutbox{}, &stubAudit{})

	_, err := svc.Get(context.Background(), uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTransitionValidatesActor(t *testing.T) {
	svc := newTestService(t, &stubRepo{}, &stubOutbox{}, &stubAudit{})

	_, err := svc.Fulfill(context.Background(), FulfillInput{
		RelayID: uuid.New(),
		Actor:   Actor{ID: "", Type: enums.ActorTypeAdmin},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for missing actor id, got %v", err)
	}

	_, err = svc.Fulfill(context.Background(), FulfillInput{
		RelayID: uuid.New(),
		Actor:   Actor{ID: "ops-1", Type: enums.ActorType("ghost")},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for bad actor type, got %v", err)
	}
}

func newTestService(t *testing.T, repo Repository, outboxSvc outboxPublisher, auditSvc auditRecorder) Service {
	t.Helper()
	svc, err := NewService(repo, &stubTx{}, outboxSvc, auditSvc)
	if err != nil {
		t.Fatalf("failed to construct service: %v", err)
	}
	return svc
}

type stubTx struct{}

func (s *stubTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubRepo struct {
	relay      *models.OrderRelay
	findErr    error
	updateRows int64
	updateErr  error
	updates    []map[string]any
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubRepo) InsertIfAbsent(ctx context.Context, relay *models.OrderRelay) (bool, error) {
	return true, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.OrderRelay, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.relay == nil {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.relay
	return &copied, nil
}

func (s *stubRepo) FindByChannelExternal(ctx context.Context, channelAccountID uuid.UUID, externalOrderID string) (*models.OrderRelay, error) {
	return s.FindByID(ctx, uuid.Nil)
}

func (s *stubRepo) UpdateVersioned(ctx context.Context, id uuid.UUID, version int, updates map[string]any) (int64, error) {
	if s.updateErr != nil {
		return 0, s.updateErr
	}
	s.updates = append(s.updates, updates)
	return s.updateRows, nil
}

func (s *stubRepo) List(ctx context.Context, filter ListFilter) ([]models.OrderRelay, error) {
	return nil, nil
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubAudit struct {
	entries []audit.Entry
}

func (s *stubAudit) RecordTx(tx *gorm.DB, entry audit.Entry) error {
	s.entries = append(s.entries, entry)
	return nil
}

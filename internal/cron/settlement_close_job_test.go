package cron

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/neture-platform/relay-backend/internal/settlement"
	"github.com/neture-platform/relay-backend/pkg/enums"
	"github.com/neture-platform/relay-backend/pkg/logger"
)

func TestSettlementCloseJobWindow(t *testing.T) {
	closer := &fakeCloser{}
	job := newCloseJob(t, closer, 30)
	job.now = func() time.Time {
		return time.Date(2026, 8, 31, 9, 15, 0, 0, time.UTC)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if len(closer.inputs) != 1 {
		t.Fatalf("expected one close-all call, got %d", len(closer.inputs))
	}
	input := closer.inputs[0]
	wantEnd := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	if !input.PeriodEnd.Equal(wantEnd) {
		t.Fatalf("period end should be the most recent UTC midnight, got %s", input.PeriodEnd)
	}
	if !input.PeriodStart.Equal(wantEnd.AddDate(0, 0, -30)) {
		t.Fatalf("unexpected period start: %s", input.PeriodStart)
	}
	if input.Actor.ID != "settlement-scheduler" || input.Actor.Type != enums.ActorTypeScheduler {
		t.Fatalf("unexpected actor: %+v", input.Actor)
	}
	if input.BillingUnit != enums.BillingUnitApprovedRequest {
		t.Fatalf("unexpected billing unit: %s", input.BillingUnit)
	}
}

func TestSettlementCloseJobPropagatesError(t *testing.T) {
	closer := &fakeCloser{err: context.DeadlineExceeded}
	job := newCloseJob(t, closer, 7)

	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected close-all error to propagate")
	}
}

func newCloseJob(t *testing.T, closer settlementCloser, periodDays int) *settlementCloseJob {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
	job, err := NewSettlementCloseJob(SettlementCloseJobParams{
		Logger:      logg,
		Settlements: closer,
		PeriodDays:  periodDays,
		BillingUnit: enums.BillingUnitApprovedRequest,
		Currency:    enums.CurrencyKRW,
	})
	if err != nil {
		t.Fatalf("failed to construct job: %v", err)
	}
	return job.(*settlementCloseJob)
}

type fakeCloser struct {
	inputs []settlement.CloseAllInput
	err    error
}

func (f *fakeCloser) CloseAll(ctx context.Context, input settlement.CloseAllInput) (*settlement.CloseAllResult, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	return &settlement.CloseAllResult{}, nil
}

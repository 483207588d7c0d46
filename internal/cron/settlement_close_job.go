package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/neture-platform/relay-backend/internal/settlement"
	"github.com/neture-platform/relay-backend/pkg/enums"
	"github.com/neture-platform/relay-backend/pkg/logger"
)

const defaultPeriodDays = 30

type settlementCloser interface {
	CloseAll(ctx context.Context, input settlement.CloseAllInput) (*settlement.CloseAllResult, error)
}

// SettlementCloseJobParams configure the periodic settlement closing job.
type SettlementCloseJobParams struct {
	Logger      *logger.Logger
	Settlements settlementCloser
	PeriodDays  int
	BillingUnit enums.BillingUnit
	Currency    enums.Currency
}

// NewSettlementCloseJob builds the job that closes the billing period that
// ended at the most recent UTC midnight.
func NewSettlementCloseJob(params SettlementCloseJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Settlements == nil {
		return nil, fmt.Errorf("settlement service required")
	}
	if !params.BillingUnit.IsValid() {
		return nil, fmt.Errorf("billing unit %q invalid", params.BillingUnit)
	}
	periodDays := params.PeriodDays
	if periodDays <= 0 {
		periodDays = defaultPeriodDays
	}
	return &settlementCloseJob{
		logg:        params.Logger,
		settlements: params.Settlements,
		periodDays:  periodDays,
		billingUnit: params.BillingUnit,
		currency:    params.Currency,
		now:         time.Now,
	}, nil
}

type settlementCloseJob struct {
	logg        *logger.Logger
	settlements settlementCloser
	periodDays  int
	billingUnit enums.BillingUnit
	currency    enums.Currency
	now         func() time.Time
}

func (j *settlementCloseJob) Name() string { return "settlement-close" }

func (j *settlementCloseJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	periodEnd := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	periodStart := periodEnd.AddDate(0, 0, -j.periodDays)

	result, err := j.settlements.CloseAll(ctx, settlement.CloseAllInput{
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		BillingUnit: j.billingUnit,
		Currency:    j.currency,
		Actor:       settlement.Actor{ID: "settlement-scheduler", Type: enums.ActorTypeScheduler},
	})
	if err != nil {
		return fmt.Errorf("settlement close: %w", err)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"period_start": periodStart,
		"period_end":   periodEnd,
		"parties":      result.PartiesSeen,
		"closed":       result.Closed,
		"skipped":      result.Skipped,
	})
	j.logg.Info(logCtx, "settlement closing run complete")
	return nil
}

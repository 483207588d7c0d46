package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/neture-platform/relay-backend/pkg/enums"
	"github.com/neture-platform/relay-backend/pkg/types"
)

// Settlement is one closed billing period for one party and billing unit.
// (party_type, party_id, period_start, period_end, billing_unit) is unique.
// UnitPrice, ItemCount, TotalAmount and LineSnapshot freeze at confirmation;
// only dispatch fields and archival metadata may change afterwards.
type Settlement struct {
	ID             uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PartyType      enums.PartyType        `gorm:"column:party_type;type:party_type_enum;not null;uniqueIndex:ux_settlements_scope,priority:1"`
	PartyID        uuid.UUID              `gorm:"column:party_id;type:uuid;not null;uniqueIndex:ux_settlements_scope,priority:2"`
	PeriodStart    time.Time              `gorm:"column:period_start;not null;uniqueIndex:ux_settlements_scope,priority:3"`
	PeriodEnd      time.Time              `gorm:"column:period_end;not null;uniqueIndex:ux_settlements_scope,priority:4"`
	BillingUnit    enums.BillingUnit      `gorm:"column:billing_unit;type:billing_unit_enum;not null;uniqueIndex:ux_settlements_scope,priority:5"`
	Status         enums.SettlementStatus `gorm:"column:status;type:settlement_status_enum;not null;default:'draft'"`
	UnitPrice      decimal.Decimal        `gorm:"column:unit_price;type:numeric(12,2);not null"`
	ItemCount      int                    `gorm:"column:item_count;not null"`
	TotalAmount    decimal.Decimal        `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Currency       enums.Currency         `gorm:"column:currency;type:text;not null;default:'KRW'"`
	LineSnapshot   types.SettlementLines  `gorm:"column:line_snapshot;type:jsonb;serializer:json"`
	SnapshotAt     time.Time              `gorm:"column:snapshot_at;not null"`
	CreatedBy      string                 `gorm:"column:created_by;not null"`
	ConfirmedBy    *string                `gorm:"column:confirmed_by"`
	ConfirmedAt    *time.Time             `gorm:"column:confirmed_at"`
	DispatchStatus enums.DispatchStatus   `gorm:"column:dispatch_status;type:dispatch_status_enum;not null;default:'none'"`
	DispatchLog    types.DispatchLog      `gorm:"column:dispatch_log;type:jsonb;serializer:json"`
	ArchivedAt     *time.Time             `gorm:"column:archived_at"`
	CreatedAt      time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

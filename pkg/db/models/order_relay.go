package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/neture-platform/relay-backend/pkg/enums"
)

// OrderRelay is one order flowing from a channel through to a supplier.
// (channel_account_id, external_order_id) is unique for the life of the
// system; rows are never hard-deleted.
type OrderRelay struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ChannelAccountID uuid.UUID         `gorm:"column:channel_account_id;type:uuid;not null;uniqueIndex:ux_order_relays_channel_external,priority:1"`
	ExternalOrderID  string            `gorm:"column:external_order_id;not null;uniqueIndex:ux_order_relays_channel_external,priority:2"`
	Status           enums.RelayStatus `gorm:"column:status;type:relay_status_enum;not null;default:'import_pending'"`
	InternalOrderID  *string           `gorm:"column:internal_order_id"`
	SellerID         uuid.UUID         `gorm:"column:seller_id;type:uuid;not null"`
	SupplierID       *uuid.UUID        `gorm:"column:supplier_id;type:uuid"`
	TotalPrice       decimal.Decimal   `gorm:"column:total_price;type:numeric(12,2);not null"`
	Currency         enums.Currency    `gorm:"column:currency;type:text;not null;default:'KRW'"`
	RawPayload       json.RawMessage   `gorm:"column:raw_payload;type:jsonb"`
	ExternalOrderAt  *time.Time        `gorm:"column:external_order_at"`
	LastSyncAt       *time.Time        `gorm:"column:last_sync_at"`
	LastError        *string           `gorm:"column:last_error"`
	RetryCount       int               `gorm:"column:retry_count;not null;default:0"`
	Version          int               `gorm:"column:version;not null;default:0"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

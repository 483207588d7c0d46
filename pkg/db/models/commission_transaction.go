package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/neture-platform/relay-backend/pkg/enums"
)

// CommissionTransaction links a relay to an applied commission amount and
// the rate used at the moment of application. Immutable after creation;
// settlement aggregation reads these rows as its source of truth.
type CommissionTransaction struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RelayID    uuid.UUID       `gorm:"column:relay_id;type:uuid;not null;index"`
	PartyType  enums.PartyType `gorm:"column:party_type;type:party_type_enum;not null"`
	PartyID    uuid.UUID       `gorm:"column:party_id;type:uuid;not null"`
	Rate       decimal.Decimal `gorm:"column:rate;type:numeric(5,4);not null"`
	BaseAmount decimal.Decimal `gorm:"column:base_amount;type:numeric(12,2);not null"`
	Amount     decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency   enums.Currency  `gorm:"column:currency;type:text;not null;default:'KRW'"`
	RecordedAt time.Time       `gorm:"column:recorded_at;autoCreateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/neture-platform/relay-backend/pkg/enums"
)

// ChannelAccount is a registered integration with an external storefront.
// Imports are only accepted for accounts present in this table.
type ChannelAccount struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ChannelType enums.ChannelType `gorm:"column:channel_type;type:channel_type_enum;not null"`
	Name        string            `gorm:"column:name;not null"`
	SellerID    uuid.UUID         `gorm:"column:seller_id;type:uuid;not null"`
	Active      bool              `gorm:"column:active;not null;default:true"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

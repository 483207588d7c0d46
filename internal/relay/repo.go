package relay

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/neture-platform/relay-backend/pkg/db/models"
	"github.com/neture-platform/relay-backend/pkg/enums"
	"github.com/neture-platform/relay-backend/pkg/pagination"
)

// ListFilter narrows relay list queries.
type ListFilter struct {
	Status           *enums.RelayStatus
	SellerID         *uuid.UUID
	ChannelAccountID *uuid.UUID
	Pagination       pagination.Params
}

// Repository exposes order relay persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	InsertIfAbsent(ctx context.Context, relay *models.OrderRelay) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.OrderRelay, error)
	FindByChannelExternal(ctx context.Context, channelAccountID uuid.UUID, externalOrderID string) (*models.OrderRelay, error)
	UpdateVersioned(ctx context.Context, id uuid.UUID, version int, updates map[string]any) (int64, error)
	List(ctx context.Context, filter ListFilter) ([]models.OrderRelay, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a relay repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// InsertIfAbsent creates the relay unless one already exists for the same
// (channel_account_id, external_order_id). Returns false when the row was
// already present.
func (r *repository) InsertIfAbsent(ctx context.Context, relay *models.OrderRelay) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "channel_account_id"},
				{Name: "external_order_id"},
			},
			DoNothing: true,
		}).
		Create(relay)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.OrderRelay, error) {
	var relay models.OrderRelay
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&relay).Error
	if err != nil {
		return nil, err
	}
	return &relay, nil
}

func (r *repository) FindByChannelExternal(ctx context.Context, channelAccountID uuid.UUID, externalOrderID string) (*models.OrderRelay, error) {
	var relay models.OrderRelay
	err := r.db.WithContext(ctx).
		Where("channel_account_id = ? AND external_order_id = ?", channelAccountID, externalOrderID).
		First(&relay).Error
	if err != nil {
		return nil, err
	}
	return &relay, nil
}

// UpdateVersioned applies updates only when the stored version still matches.
// The version column is bumped as part of the same statement; callers decide
// what a zero row count means.
func (r *repository) UpdateVersioned(ctx context.Context, id uuid.UUID, version int, updates map[string]any) (int64, error) {
	if updates == nil {
		updates = map[string]any{}
	}
	updates["version"] = gorm.Expr("version + 1")

	result := r.db.WithContext(ctx).
		Model(&models.OrderRelay{}).
		Where("id = ? AND version = ?", id, version).
		Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.OrderRelay, error) {
	query := r.db.WithContext(ctx).Model(&models.OrderRelay{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.SellerID != nil {
		query = query.Where("seller_id = ?", *filter.SellerID)
	}
	if filter.ChannelAccountID != nil {
		query = query.Where("channel_account_id = ?", *filter.ChannelAccountID)
	}

	cursor, err := pagination.Parse(filter.Pagination.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at, id) < (?, ?)",
			cursor.CreatedAt, cursor.ID,
		)
	}

	var relays []models.OrderRelay
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(filter.Pagination.Limit)).
		Find(&relays).Error
	if err != nil {
		return nil, err
	}
	return relays, nil
}

package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/neture-platform/relay-backend/pkg/db/models"
	"github.com/neture-platform/relay-backend/pkg/enums"
	"github.com/neture-platform/relay-backend/pkg/pagination"
)

// Scope is the natural key of a settlement.
type Scope struct {
	PartyType   enums.PartyType
	PartyID     uuid.UUID
	PeriodStart time.Time
	PeriodEnd   time.Time
	BillingUnit enums.BillingUnit
}

// ListFilter narrows settlement list queries.
type ListFilter struct {
	PartyType  *enums.PartyType
	PartyID    *uuid.UUID
	Status     *enums.SettlementStatus
	Pagination pagination.Params
}

// Repository exposes settlement persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	InsertIfAbsent(ctx context.Context, settlement *models.Settlement) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Settlement, error)
	FindByScope(ctx context.Context, scope Scope) (*models.Settlement, error)
	UpdateWhere(ctx context.Context, id uuid.UUID, updates map[string]any, conds map[string]any) (int64, error)
	List(ctx context.Context, filter ListFilter) ([]models.Settlement, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a settlement repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// InsertIfAbsent creates the settlement unless the scope already has one,
// which keeps the closing job safe to re-run.
func (r *repository) InsertIfAbsent(ctx context.Context, settlement *models.Settlement) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "party_type"},
				{Name: "party_id"},
				{Name: "period_start"},
				{Name: "period_end"},
				{Name: "billing_unit"},
			},
			DoNothing: true,
		}).
		Create(settlement)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Settlement, error) {
	var settlement models.Settlement
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&settlement).Error
	if err != nil {
		return nil, err
	}
	return &settlement, nil
}

func (r *repository) FindByScope(ctx context.Context, scope Scope) (*models.Settlement, error) {
	var settlement models.Settlement
	err := r.db.WithContext(ctx).
		Where("party_type = ? AND party_id = ?", scope.PartyType, scope.PartyID).
		Where("period_start = ? AND period_end = ?", scope.PeriodStart, scope.PeriodEnd).
		Where("billing_unit = ?", scope.BillingUnit).
		First(&settlement).Error
	if err != nil {
		return nil, err
	}
	return &settlement, nil
}

// UpdateWhere applies updates only while the extra conditions still hold,
// which lets the service pin lifecycle guards to the row itself.
func (r *repository) UpdateWhere(ctx context.Context, id uuid.UUID, updates map[string]any, conds map[string]any) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Settlement{}).
		Where("id = ?", id)
	for column, value := range conds {
		query = query.Where(column+" = ?", value)
	}
	result := query.Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Settlement, error) {
	query := r.db.WithContext(ctx).Model(&models.Settlement{})
	if filter.PartyType != nil {
		query = query.Where("party_type = ?", *filter.PartyType)
	}
	if filter.PartyID != nil {
		query = query.Where("party_id = ?", *filter.PartyID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	cursor, err := pagination.Parse(filter.Pagination.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var settlements []models.Settlement
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(filter.Pagination.Limit)).
		Find(&settlements).Error
	if err != nil {
		return nil, err
	}
	return settlements, nil
}

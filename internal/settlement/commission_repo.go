package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/neture-platform/relay-backend/pkg/db/models"
	"github.com/neture-platform/relay-backend/pkg/enums"
)

// PartyRef identifies one settlement counterparty.
type PartyRef struct {
	PartyType enums.PartyType
	PartyID   uuid.UUID
}

// CommissionRepository persists commission transactions. Rows are written
// once and only ever read afterwards.
type CommissionRepository interface {
	WithTx(tx *gorm.DB) CommissionRepository
	Insert(ctx context.Context, txn *models.CommissionTransaction) (*models.CommissionTransaction, error)
	ListForPartyWindow(ctx context.Context, partyType enums.PartyType, partyID uuid.UUID, start, end time.Time) ([]models.CommissionTransaction, error)
	ListByRelay(ctx context.Context, relayID uuid.UUID) ([]models.CommissionTransaction, error)
	DistinctParties(ctx context.Context, start, end time.Time) ([]PartyRef, error)
}

type commissionRepository struct {
	db *gorm.DB
}

// NewCommissionRepository builds a commission repository bound to the provided DB.
func NewCommissionRepository(db *gorm.DB) CommissionRepository {
	return &commissionRepository{db: db}
}

func (r *commissionRepository) WithTx(tx *gorm.DB) CommissionRepository {
	if tx == nil {
		return r
	}
	return &commissionRepository{db: tx}
}

func (r *commissionRepository) Insert(ctx context.Context, txn *models.CommissionTransaction) (*models.CommissionTransaction, error) {
	if err := r.db.WithContext(ctx).Create(txn).Error; err != nil {
		return nil, err
	}
	return txn, nil
}

// ListForPartyWindow returns transactions recorded in [start, end), the
// half-open window settlements aggregate over.
func (r *commissionRepository) ListForPartyWindow(ctx context.Context, partyType enums.PartyType, partyID uuid.UUID, start, end time.Time) ([]models.CommissionTransaction, error) {
	var txns []models.CommissionTransaction
	err := r.db.WithContext(ctx).
		Where("party_type = ? AND party_id = ?", partyType, partyID).
		Where("recorded_at >= ? AND recorded_at < ?", start, end).
		Order("recorded_at ASC, id ASC").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *commissionRepository) ListByRelay(ctx context.Context, relayID uuid.UUID) ([]models.CommissionTransaction, error) {
	var txns []models.CommissionTransaction
	err := r.db.WithContext(ctx).
		Where("relay_id = ?", relayID).
		Order("recorded_at ASC").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

// DistinctParties lists every party with at least one transaction in the
// window, so the closing job knows which settlements to build.
func (r *commissionRepository) DistinctParties(ctx context.Context, start, end time.Time) ([]PartyRef, error) {
	var refs []PartyRef
	err := r.db.WithContext(ctx).
		Model(&models.CommissionTransaction{}).
		Distinct("party_type", "party_id").
		Where("recorded_at >= ? AND recorded_at < ?", start, end).
		Scan(&refs).Error
	if err != nil {
		return nil, err
	}
	return refs, nil
}

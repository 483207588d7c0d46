package audit

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/neture-platform/relay-backend/pkg/db/models"
)

// Repository persists relay audit entries. Entries are append-only; there
// is deliberately no update or delete method on this interface.
type Repository interface {
	AppendTx(tx *gorm.DB, entry *models.RelayAuditEntry) error
	ListByRelay(ctx context.Context, relayID uuid.UUID) ([]models.RelayAuditEntry, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an audit repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) AppendTx(tx *gorm.DB, entry *models.RelayAuditEntry) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Create(entry).Error
}

func (r *repository) ListByRelay(ctx context.Context, relayID uuid.UUID) ([]models.RelayAuditEntry, error) {
	var entries []models.RelayAuditEntry
	err := r.db.WithContext(ctx).
		Where("relay_id = ?", relayID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

package channels

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/neture-platform/relay-backend/pkg/db/models"
)

// Repository exposes channel account persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, account *models.ChannelAccount) (*models.ChannelAccount, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.ChannelAccount, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.ChannelAccount, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a channel account repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, account *models.ChannelAccount) (*models.ChannelAccount, error) {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ChannelAccount, error) {
	var account models.ChannelAccount
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.ChannelAccount, error) {
	var accounts []models.ChannelAccount
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at ASC").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).
		Model(&models.ChannelAccount{}).
		Where("id = ?", id).
		Update("active", active).Error
}

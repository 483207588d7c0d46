package channels

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/neture-platform/relay-backend/pkg/db/models"
	"github.com/neture-platform/relay-backend/pkg/enums"
	pkgerrors "github.com/neture-platform/relay-backend/pkg/errors"
)

// Service manages the registry of external channel integrations.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.ChannelAccount, error)
	Get(ctx context.Context, id uuid.UUID) (*models.ChannelAccount, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.ChannelAccount, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// RegisterInput carries everything needed to register a channel account.
type RegisterInput struct {
	ChannelType enums.ChannelType
	Name        string
	SellerID    uuid.UUID
}

type service struct {
	repo Repository
}

// NewService builds a channel account service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("channels repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.ChannelAccount, error) {
	if !input.ChannelType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "channel type invalid")
	}
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "channel name required")
	}
	if input.SellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}

	account := &models.ChannelAccount{
		ChannelType: input.ChannelType,
		Name:        input.Name,
		SellerID:    input.SellerID,
		Active:      true,
	}
	created, err := s.repo.Create(ctx, account)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create channel account")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.ChannelAccount, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "channel account id required")
	}
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "channel account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load channel account")
	}
	return account, nil
}

func (s *service) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.ChannelAccount, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	accounts, err := s.repo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list channel accounts")
	}
	return accounts, nil
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "channel account id required")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate channel account")
	}
	return nil
}

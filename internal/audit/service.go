package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/neture-platform/relay-backend/pkg/db/models"
	"github.com/neture-platform/relay-backend/pkg/enums"
	pkgerrors "github.com/neture-platform/relay-backend/pkg/errors"
)

// Entry describes one status change to record.
type Entry struct {
	RelayID        uuid.UUID
	Action         enums.RelayAction
	PreviousStatus enums.RelayStatus
	NewStatus      enums.RelayStatus
	ActorID        string
	ActorType      enums.ActorType
	Reason         *string
	PreviousData   any
	NextData       any
}

// Service records and reads the relay audit trail.
type Service interface {
	RecordTx(tx *gorm.DB, entry Entry) error
	ListByRelay(ctx context.Context, relayID uuid.UUID) ([]models.RelayAuditEntry, error)
}

type service struct {
	repo Repository
}

// NewService builds an audit service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) RecordTx(tx *gorm.DB, entry Entry) error {
	if entry.RelayID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "relay id required")
	}
	if !entry.Action.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "audit action invalid")
	}
	if entry.ActorID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "actor id required")
	}

	row := &models.RelayAuditEntry{
		RelayID:        entry.RelayID,
		Action:         entry.Action,
		PreviousStatus: entry.PreviousStatus,
		NewStatus:      entry.NewStatus,
		ActorID:        entry.ActorID,
		ActorType:      entry.ActorType,
		Reason:         entry.Reason,
	}
	if entry.PreviousData != nil {
		data, err := json.Marshal(entry.PreviousData)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal previous data")
		}
		row.PreviousData = data
	}
	if entry.NextData != nil {
		data, err := json.Marshal(entry.NextData)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal next data")
		}
		row.NextData = data
	}

	if err := s.repo.AppendTx(tx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append audit entry")
	}
	return nil
}

func (s *service) ListByRelay(ctx context.Context, relayID uuid.UUID) ([]models.RelayAuditEntry, error) {
	if relayID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "relay id required")
	}
	entries, err := s.repo.ListByRelay(ctx, relayID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list audit entries")
	}
	return entries, nil
}

package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/neture-platform/relay-backend/api/responses"
	"github.com/neture-platform/relay-backend/api/validators"
	"github.com/neture-platform/relay-backend/internal/settlement"
	"github.com/neture-platform/relay-backend/pkg/enums"
	pkgerrors "github.com/neture-platform/relay-backend/pkg/errors"
	"github.com/neture-platform/relay-backend/pkg/logger"
	"github.com/neture-platform/relay-backend/pkg/pagination"
)

type recordCommissionRequest struct {
	RelayID   string `json:"relay_id" validate:"required,uuid"`
	PartyType string `json:"party_type" validate:"required"`
	PartyID   string `json:"party_id" validate:"required,uuid"`
	Rate      string `json:"rate" validate:"required"`
}

// CommissionRecord applies a commission against a fulfilled relay.
func CommissionRecord(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body recordCommissionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		partyType, err := enums.ParsePartyType(body.PartyType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid party type"))
			return
		}
		rate, err := decimal.NewFromString(body.Rate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rate"))
			return
		}
		relayID, _ := uuid.Parse(body.RelayID)
		partyID, _ := uuid.Parse(body.PartyID)

		actor := actorFromRequest(r)
		txn, err := svc.RecordCommission(r.Context(), settlement.RecordCommissionInput{
			RelayID:   relayID,
			PartyType: partyType,
			PartyID:   partyID,
			Rate:      rate,
			Actor:     settlement.Actor{ID: actor.ID, Type: actor.Type},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, txn)
	}
}

type closeSettlementRequest struct {
	PartyType   string    `json:"party_type" validate:"required"`
	PartyID     string    `json:"party_id" validate:"required,uuid"`
	PeriodStart time.Time `json:"period_start" validate:"required"`
	PeriodEnd   time.Time `json:"period_end" validate:"required"`
	BillingUnit string    `json:"billing_unit" validate:"required"`
	UnitPrice   *string   `json:"unit_price,omitempty"`
	Currency    string    `json:"currency,omitempty"`
	DryRun      bool      `json:"dry_run,omitempty"`
}

// SettlementClose closes one billing period for one party. Closing a window
// with no activity returns 204. With dry_run set the would-be draft is
// returned without being stored.
func SettlementClose(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body closeSettlementRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		partyType, err := enums.ParsePartyType(body.PartyType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid party type"))
			return
		}
		billingUnit, err := enums.ParseBillingUnit(body.BillingUnit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid billing unit"))
			return
		}
		unitPrice := decimal.Zero
		if body.UnitPrice != nil {
			unitPrice, err = decimal.NewFromString(*body.UnitPrice)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit price"))
				return
			}
		}
		partyID, _ := uuid.Parse(body.PartyID)

		actor := actorFromRequest(r)
		row, err := svc.ClosePeriod(r.Context(), settlement.CloseInput{
			PartyType:   partyType,
			PartyID:     partyID,
			PeriodStart: body.PeriodStart,
			PeriodEnd:   body.PeriodEnd,
			BillingUnit: billingUnit,
			UnitPrice:   unitPrice,
			Currency:    enums.Currency(body.Currency),
			DryRun:      body.DryRun,
			Actor:       settlement.Actor{ID: actor.ID, Type: actor.Type},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if row == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, row)
	}
}

// SettlementList returns a filtered page of settlements.
func SettlementList(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := settlement.ListFilter{}

		if raw := strings.TrimSpace(r.URL.Query().Get("party_type")); raw != "" {
			partyType, err := enums.ParsePartyType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid party type filter"))
				return
			}
			filter.PartyType = &partyType
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("party_id")); raw != "" {
			partyID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid party id filter"))
				return
			}
			filter.PartyID = &partyID
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseSettlementStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filter.Status = &status
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.Pagination = pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		rows, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// SettlementDetail returns a single settlement by id.
func SettlementDetail(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "settlementId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

// SettlementConfirm freezes a draft settlement.
func SettlementConfirm(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return settlementAction(logg, func(r *http.Request, id uuid.UUID) (any, error) {
		actor := actorFromRequest(r)
		return svc.Confirm(r.Context(), id, settlement.Actor{ID: actor.ID, Type: actor.Type})
	})
}

type dispatchSettlementRequest struct {
	Note string `json:"note,omitempty" validate:"max=500"`
}

// SettlementDispatch marks a confirmed settlement as sent.
func SettlementDispatch(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return settlementActionWithNote(logg, func(r *http.Request, id uuid.UUID, note string) (any, error) {
		actor := actorFromRequest(r)
		return svc.Dispatch(r.Context(), id, settlement.Actor{ID: actor.ID, Type: actor.Type}, note)
	})
}

// SettlementResend records another delivery of a sent settlement.
func SettlementResend(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return settlementActionWithNote(logg, func(r *http.Request, id uuid.UUID, note string) (any, error) {
		actor := actorFromRequest(r)
		return svc.Resend(r.Context(), id, settlement.Actor{ID: actor.ID, Type: actor.Type}, note)
	})
}

// SettlementReceive records the counterparty's acknowledgement.
func SettlementReceive(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return settlementAction(logg, func(r *http.Request, id uuid.UUID) (any, error) {
		actor := actorFromRequest(r)
		return svc.MarkReceived(r.Context(), id, settlement.Actor{ID: actor.ID, Type: actor.Type})
	})
}

// SettlementArchive retires a confirmed settlement.
func SettlementArchive(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return settlementAction(logg, func(r *http.Request, id uuid.UUID) (any, error) {
		actor := actorFromRequest(r)
		return svc.Archive(r.Context(), id, settlement.Actor{ID: actor.ID, Type: actor.Type})
	})
}

// SettlementReconcile compares the frozen snapshot against the live ledger.
func SettlementReconcile(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return settlementAction(logg, func(r *http.Request, id uuid.UUID) (any, error) {
		return svc.Reconcile(r.Context(), id)
	})
}

func settlementAction(logg *logger.Logger, action func(r *http.Request, id uuid.UUID) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "settlementId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := action(r, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func settlementActionWithNote(logg *logger.Logger, action func(r *http.Request, id uuid.UUID, note string) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "settlementId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body dispatchSettlementRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		result, err := action(r, id, body.Note)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/neture-platform/relay-backend/api/responses"
	"github.com/neture-platform/relay-backend/api/validators"
	"github.com/neture-platform/relay-backend/internal/importguard"
	"github.com/neture-platform/relay-backend/internal/relay"
	"github.com/neture-platform/relay-backend/pkg/enums"
	pkgerrors "github.com/neture-platform/relay-backend/pkg/errors"
	"github.com/neture-platform/relay-backend/pkg/logger"
)

type importOrderRequest struct {
	ExternalOrderID string          `json:"external_order_id" validate:"required,min=1,max=128"`
	TotalPrice      string          `json:"total_price" validate:"required"`
	Currency        string          `json:"currency" validate:"required"`
	SupplierID      *string         `json:"supplier_id,omitempty" validate:"omitempty,uuid"`
	OrderedAt       *time.Time      `json:"ordered_at,omitempty"`
	Payload         json.RawMessage `json:"payload,omitempty"`
}

type importOrderResponse struct {
	Outcome string `json:"outcome"`
	Relay   any    `json:"relay"`
}

// ChannelOrderImport is the callback channels hit when an order arrives.
// Redelivering the same order is safe; the response reports the outcome.
func ChannelOrderImport(svc importguard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channelID, err := parseUUIDParam(r, "channelId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body importOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		totalPrice, err := decimal.NewFromString(body.TotalPrice)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid total price"))
			return
		}

		var supplierID *uuid.UUID
		if body.SupplierID != nil {
			parsed, err := uuid.Parse(*body.SupplierID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid supplier id"))
				return
			}
			supplierID = &parsed
		}

		result, err := svc.ImportOrder(r.Context(), importguard.ImportInput{
			ChannelAccountID: channelID,
			ExternalOrderID:  body.ExternalOrderID,
			TotalPrice:       totalPrice,
			Currency:         enums.Currency(body.Currency),
			SupplierID:       supplierID,
			OrderedAt:        body.OrderedAt,
			RawPayload:       body.Payload,
			Actor:            actorFromRequest(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusCreated
		if result.Outcome == importguard.OutcomeDuplicate {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, importOrderResponse{
			Outcome: string(result.Outcome),
			Relay:   result.Relay,
		})
	}
}

// RelayRetry re-queues a failed relay for another import attempt.
func RelayRetry(svc importguard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		relayID, err := parseUUIDParam(r, "relayId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.RetryImport(r.Context(), importguard.RetryInput{
			RelayID: relayID,
			Actor:   actorFromRequest(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, importOrderResponse{
			Outcome: string(result.Outcome),
			Relay:   result.Relay,
		})
	}
}

// actorFromRequest derives the acting identity from request headers. The
// platform gateway strips and re-adds these upstream.
func actorFromRequest(r *http.Request) relay.Actor {
	actorID := r.Header.Get("X-Actor-Id")
	if actorID == "" {
		actorID = "admin-api"
	}
	actorType, err := enums.ParseActorType(r.Header.Get("X-Actor-Type"))
	if err != nil {
		actorType = enums.ActorTypeAdmin
	}
	return relay.Actor{ID: actorID, Type: actorType}
}

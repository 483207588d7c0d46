package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/neture-platform/relay-backend/api/responses"
	"github.com/neture-platform/relay-backend/api/validators"
	"github.com/neture-platform/relay-backend/internal/audit"
	"github.com/neture-platform/relay-backend/internal/relay"
	"github.com/neture-platform/relay-backend/pkg/enums"
	pkgerrors "github.com/neture-platform/relay-backend/pkg/errors"
	"github.com/neture-platform/relay-backend/pkg/logger"
	"github.com/neture-platform/relay-backend/pkg/pagination"
)

// RelayList returns a filtered page of order relays.
func RelayList(svc relay.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := buildRelayFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		relays, err := svc.List(r.Context(), *filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, relays)
	}
}

// RelayDetail returns a single relay by id.
func RelayDetail(svc relay.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		relayID, err := parseUUIDParam(r, "relayId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, err := svc.Get(r.Context(), relayID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

// RelayDispatch forwards an imported relay to its supplier.
func RelayDispatch(svc relay.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		relayID, err := parseUUIDParam(r, "relayId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, err := svc.Dispatch(r.Context(), relay.DispatchInput{
			RelayID: relayID,
			Actor:   actorFromRequest(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

// RelayFulfill marks a dispatched relay as delivered.
func RelayFulfill(svc relay.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		relayID, err := parseUUIDParam(r, "relayId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, err := svc.Fulfill(r.Context(), relay.FulfillInput{
			RelayID: relayID,
			Actor:   actorFromRequest(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

type cancelRelayRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=500"`
}

// RelayCancel cancels a relay that has not been fulfilled.
func RelayCancel(svc relay.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		relayID, err := parseUUIDParam(r, "relayId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body cancelRelayRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, err := svc.Cancel(r.Context(), relay.CancelInput{
			RelayID: relayID,
			Actor:   actorFromRequest(r),
			Reason:  body.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

// RelayAuditTrail returns the ordered audit history of a relay.
func RelayAuditTrail(svc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		relayID, err := parseUUIDParam(r, "relayId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entries, err := svc.ListByRelay(r.Context(), relayID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

func buildRelayFilter(r *http.Request) (*relay.ListFilter, error) {
	filter := relay.ListFilter{}

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseRelayStatus(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filter.Status = &status
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("seller_id")); raw != "" {
		sellerID, err := uuid.Parse(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid seller id filter")
		}
		filter.SellerID = &sellerID
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("channel_account_id")); raw != "" {
		channelID, err := uuid.Parse(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid channel account id filter")
		}
		filter.ChannelAccountID = &channelID
	}

	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return nil, err
	}
	filter.Pagination = pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}
	return &filter, nil
}

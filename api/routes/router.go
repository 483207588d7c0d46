package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/neture-platform/relay-backend/api/controllers"
	"github.com/neture-platform/relay-backend/api/middleware"
	"github.com/neture-platform/relay-backend/internal/audit"
	"github.com/neture-platform/relay-backend/internal/channels"
	"github.com/neture-platform/relay-backend/internal/importguard"
	"github.com/neture-platform/relay-backend/internal/relay"
	"github.com/neture-platform/relay-backend/internal/settlement"
	"github.com/neture-platform/relay-backend/pkg/config"
	"github.com/neture-platform/relay-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          pinger
	Redis       pinger
	Channels    channels.Service
	Imports     importguard.Service
	Relays      relay.Service
	Audit       audit.Service
	Settlements settlement.Service
	Metrics     prometheus.Gatherer
}

// NewRouter assembles the engine's HTTP surface.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/channels", func(r chi.Router) {
			r.Post("/", controllers.ChannelRegister(deps.Channels, logg))
			r.Get("/", controllers.ChannelList(deps.Channels, logg))
			r.Post("/{channelId}/deactivate", controllers.ChannelDeactivate(deps.Channels, logg))
			r.Post("/{channelId}/orders", controllers.ChannelOrderImport(deps.Imports, logg))
		})

		r.Route("/relays", func(r chi.Router) {
			r.Get("/", controllers.RelayList(deps.Relays, logg))
			r.Get("/{relayId}", controllers.RelayDetail(deps.Relays, logg))
			r.Get("/{relayId}/audit", controllers.RelayAuditTrail(deps.Audit, logg))
			r.Post("/{relayId}/retry", controllers.RelayRetry(deps.Imports, logg))
			r.Post("/{relayId}/dispatch", controllers.RelayDispatch(deps.Relays, logg))
			r.Post("/{relayId}/fulfill", controllers.RelayFulfill(deps.Relays, logg))
			r.Post("/{relayId}/cancel", controllers.RelayCancel(deps.Relays, logg))
		})

		r.Route("/commissions", func(r chi.Router) {
			r.Post("/", controllers.CommissionRecord(deps.Settlements, logg))
		})

		r.Route("/settlements", func(r chi.Router) {
			r.Post("/close", controllers.SettlementClose(deps.Settlements, logg))
			r.Get("/", controllers.SettlementList(deps.Settlements, logg))
			r.Get("/{settlementId}", controllers.SettlementDetail(deps.Settlements, logg))
			r.Get("/{settlementId}/reconcile", controllers.SettlementReconcile(deps.Settlements, logg))
			r.Post("/{settlementId}/confirm", controllers.SettlementConfirm(deps.Settlements, logg))
			r.Post("/{settlementId}/dispatch", controllers.SettlementDispatch(deps.Settlements, logg))
			r.Post("/{settlementId}/resend", controllers.SettlementResend(deps.Settlements, logg))
			r.Post("/{settlementId}/receive", controllers.SettlementReceive(deps.Settlements, logg))
			r.Post("/{settlementId}/archive", controllers.SettlementArchive(deps.Settlements, logg))
		})
	})

	return r
}

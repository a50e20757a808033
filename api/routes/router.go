package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aslamtv/storebot-backend/api/controllers"
	webhookcontrollers "github.com/aslamtv/storebot-backend/api/controllers/webhooks"
	"github.com/aslamtv/storebot-backend/api/middleware"
	"github.com/aslamtv/storebot-backend/internal/dispatch"
	"github.com/aslamtv/storebot-backend/internal/payments"
	"github.com/aslamtv/storebot-backend/internal/sessions"
	"github.com/aslamtv/storebot-backend/pkg/config"
	"github.com/aslamtv/storebot-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisP controllers.Pinger,
	paymentsService payments.Service,
	dispatcher *dispatch.Dispatcher,
	sessionStore *sessions.Store,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/webhooks/flutterwave", webhookcontrollers.FlutterwaveWebhook(paymentsService, logg))
		r.Post("/events", controllers.DispatchEvent(dispatcher, logg))
		if sessionStore != nil {
			r.Get("/sessions/{userId}", controllers.SessionFetch(sessionStore, logg))
			r.Put("/sessions/{userId}", controllers.SessionSet(sessionStore, logg))
			r.Delete("/sessions/{userId}", controllers.SessionClear(sessionStore, logg))
		}
	})

	return r
}

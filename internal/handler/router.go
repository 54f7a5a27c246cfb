// Package handler exposes the tracker over HTTP. Handlers decode and
// validate transport concerns only; everything else is delegated to the
// service layer.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/granadev/grana-go/internal/infra/observability"
	"github.com/granadev/grana-go/internal/service"
)

var tracer = otel.Tracer("handler")

// Services bundles everything the router depends on.
type Services struct {
	Finance *service.FinanceService
	Auth    *service.AuthService
	Import  *service.ImportService
	Metrics *observability.Metrics
	Logger  *zap.Logger
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(deps Services) http.Handler {
	logger := deps.Logger
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(requestMetricsMiddleware(deps.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// Authentication (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authRegisterHandler(deps.Auth, logger))
			r.Post("/login", authLoginHandler(deps.Auth, logger))
			r.Post("/refresh", authRefreshHandler(deps.Auth, logger))

			r.Group(func(r chi.Router) {
				r.Use(JWTAuthMiddleware(deps.Auth, logger))
				r.Post("/logout", authLogoutHandler(deps.Auth, logger))
			})
		})

		// Everything else requires a valid access token.
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(deps.Auth, logger))

			// Transactions
			r.Get("/transactions", listTransactionsHandler(deps.Finance, logger))
			r.Post("/transactions", createTransactionHandler(deps.Finance, logger))
			r.Get("/transactions/{txId}", getTransactionHandler(deps.Finance, logger))
			r.Put("/transactions/{txId}", updateTransactionHandler(deps.Finance, logger))
			r.Delete("/transactions/{txId}", deleteTransactionHandler(deps.Finance, logger))
			r.Get("/transactions/{txId}/installments", installmentPlanHandler(deps.Finance, logger))

			// Account settings
			r.Get("/settings/accounts", listAccountSettingsHandler(deps.Finance, logger))
			r.Put("/settings/accounts/{accountId}", upsertAccountSettingsHandler(deps.Finance, logger))
			r.Delete("/settings/accounts/{accountId}", deleteAccountSettingsHandler(deps.Finance, logger))

			// Subscriptions
			r.Get("/subscriptions", listSubscriptionsHandler(deps.Finance, logger))
			r.Post("/subscriptions", createSubscriptionHandler(deps.Finance, logger))
			r.Put("/subscriptions/{subId}", updateSubscriptionHandler(deps.Finance, logger))
			r.Delete("/subscriptions/{subId}", deleteSubscriptionHandler(deps.Finance, logger))

			// Budgets
			r.Get("/budgets", listBudgetsHandler(deps.Finance, logger))
			r.Post("/budgets", createBudgetHandler(deps.Finance, logger))
			r.Put("/budgets/{budgetId}", updateBudgetHandler(deps.Finance, logger))
			r.Delete("/budgets/{budgetId}", deleteBudgetHandler(deps.Finance, logger))
			r.Get("/budgets/status", budgetStatusHandler(deps.Finance, logger))

			// Goals
			r.Get("/goals", listGoalsHandler(deps.Finance, logger))
			r.Post("/goals", createGoalHandler(deps.Finance, logger))
			r.Put("/goals/{goalId}", updateGoalHandler(deps.Finance, logger))
			r.Delete("/goals/{goalId}", deleteGoalHandler(deps.Finance, logger))
			r.Get("/goals/progress", goalProgressHandler(deps.Finance, logger))

			// Derived views
			r.Get("/summary/{month}", monthSummaryHandler(deps.Finance, logger))
			r.Get("/calendar/{date}", calendarDayHandler(deps.Finance, logger))
			r.Get("/forecast", forecastHandler(deps.Finance, logger))
			r.Get("/reports/range", rangeReportHandler(deps.Finance, logger))

			// Statement import
			r.Post("/import/statement", importStatementHandler(deps.Import, logger))

			// Operational metrics
			r.Get("/metrics/ops", opsMetricsHandler(deps.Metrics))
		})
	})

	return r
}

// requestMetricsMiddleware counts every request as success or error by
// status class; GetOpsSnapshot derives the error rate from these.
func requestMetricsMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if ww.Status() >= 400 {
				metrics.IncrRequest("error")
				return
			}
			metrics.IncrRequest("success")
		})
	}
}

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func opsMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetOpsSnapshot())
	}
}

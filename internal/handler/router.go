package handler

import (
	"net/http"
	"time"

	chathandler "github.com/boddenberg/family-finance-go/internal/chat/handler"
	chatservice "github.com/boddenberg/family-finance-go/internal/chat/service"
	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/infra/observability"
	"github.com/boddenberg/family-finance-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services groups the application services the router exposes.
// A nil service leaves its routes answering 503.
type Services struct {
	Finance      *service.FinanceService
	Auth         *service.AuthService
	Family       *service.FamilyService
	Gamification *service.GamificationService
	Webhook      *service.WebhookService
	Chat         *chatservice.ChatService
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svcs Services, cookies CookieConfig, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svcs.Finance))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {

		// =============================================
		// 🔐 Autenticação
		// =============================================
		r.Route("/auth", func(r chi.Router) {
			if svcs.Auth == nil {
				r.Handle("/*", unavailable("auth"))
				return
			}
			r.Post("/register", authRegisterHandler(svcs.Auth, cookies, logger))
			r.Post("/login", authLoginHandler(svcs.Auth, cookies, logger))
			r.Post("/logout", authLogoutHandler(cookies))
			r.Get("/session", authSessionHandler(svcs.Auth))
		})

		// =============================================
		// 📧 Webhook de e-mail (shared secret, sem sessão)
		// =============================================
		if svcs.Webhook != nil {
			r.Post("/webhooks/transactions", webhookTransactionsHandler(svcs.Webhook, logger))
		}

		// =============================================
		// Rotas protegidas pela sessão
		// =============================================
		r.Group(func(r chi.Router) {
			if svcs.Auth == nil || svcs.Finance == nil {
				r.Handle("/*", unavailable("finance"))
				return
			}
			r.Use(SessionMiddleware(svcs.Auth, logger))

			// 💰 Transações
			r.Get("/transactions", listTransactionsHandler(svcs.Finance, logger))
			r.Post("/transactions", createTransactionHandler(svcs.Finance, logger))
			r.Put("/transactions", updateTransactionHandler(svcs.Finance, logger))
			r.Delete("/transactions", deleteTransactionHandler(svcs.Finance, logger))

			// 🏦 Contas e faturas
			r.Get("/accounts", listAccountsHandler(svcs.Finance, logger))
			r.Post("/accounts", createAccountHandler(svcs.Finance, logger))
			r.Put("/accounts", updateAccountHandler(svcs.Finance, logger))
			r.Delete("/accounts", deleteAccountHandler(svcs.Finance, logger))
			r.Get("/accounts/{id}/bill", getBillHandler(svcs.Finance, logger))
			r.Post("/accounts/{id}/bill", payBillHandler(svcs.Finance, logger))

			// 🏷️ Categorias
			r.Get("/categories", listCategoriesHandler(svcs.Finance, logger))
			r.Post("/categories", createCategoryHandler(svcs.Finance, logger))
			r.Put("/categories", updateCategoryHandler(svcs.Finance, logger))
			r.Delete("/categories", deleteCategoryHandler(svcs.Finance, logger))

			// 🎯 Orçamentos
			r.Get("/budgets", listBudgetsHandler(svcs.Finance, logger))
			r.Post("/budgets", createBudgetHandler(svcs.Finance, logger))
			r.Put("/budgets", updateBudgetHandler(svcs.Finance, logger))
			r.Delete("/budgets", deleteBudgetHandler(svcs.Finance, logger))

			// 📊 Dashboard e CFO
			r.Get("/dashboard", dashboardHandler(svcs.Finance, logger))
			r.Get("/cfo", cfoHandler(svcs.Finance, logger))

			// 🏆 Gamificação
			if svcs.Gamification != nil {
				r.Get("/gamification", gamificationHandler(svcs.Gamification, logger))
			}

			// 👨‍👩‍👧 Família
			if svcs.Family != nil {
				r.Get("/family", getFamilyHandler(svcs.Family, logger))
				r.Post("/family", addMemberHandler(svcs.Family, logger))
				r.Put("/family", updateMemberHandler(svcs.Family, logger))
				r.Delete("/family", removeMemberHandler(svcs.Family, logger))
			}

			// 💬 Chat
			if svcs.Chat != nil {
				r.Get("/chat", chathandler.HistoryHandler(svcs.Chat, logger))
				r.Post("/chat", chathandler.ChatHandler(svcs.Chat, logger))
			}
		})
	})

	return r
}

// ============================================================
// Operational endpoints
// ============================================================

func healthzHandler(finance *service.FinanceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "finance-api", Status: "healthy", LastChecked: now},
		}

		if finance != nil {
			start := time.Now()
			err := finance.Ping(r.Context())
			status := "healthy"
			if err != nil {
				status = "unhealthy"
			}
			services = append(services, domain.ServiceHealth{
				Name: "sqlite", Status: status, LatencyMs: time.Since(start).Milliseconds(), LastChecked: now,
			})
		}

		overall := "healthy"
		code := http.StatusOK
		for _, s := range services {
			if s.Status == "unhealthy" {
				overall = "unhealthy"
				code = http.StatusServiceUnavailable
				break
			}
		}

		writeJSON(w, code, domain.HealthStatus{Status: overall, Services: services})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func unavailable(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusServiceUnavailable, name+" service unavailable")
	}
}

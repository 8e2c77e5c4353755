// Package premiumpaywall предоставляет маршруты HTTP-сервиса платного доступа.
package premiumpaywall

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/premium-paywall/internal/config"
	"github.com/magabrotheeeer/premium-paywall/internal/http/handlers/auth/checksession"
	"github.com/magabrotheeeer/premium-paywall/internal/http/handlers/auth/sendlink"
	"github.com/magabrotheeeer/premium-paywall/internal/http/handlers/auth/verifylink"
	"github.com/magabrotheeeer/premium-paywall/internal/http/handlers/health"
	"github.com/magabrotheeeer/premium-paywall/internal/http/handlers/payment/billingportal"
	"github.com/magabrotheeeer/premium-paywall/internal/http/handlers/payment/checkoutcreate"
	"github.com/magabrotheeeer/premium-paywall/internal/http/handlers/payment/paymentwebhook"
	pricingget "github.com/magabrotheeeer/premium-paywall/internal/http/handlers/pricing/get"
	"github.com/magabrotheeeer/premium-paywall/internal/http/middlewarectx"
	"github.com/magabrotheeeer/premium-paywall/internal/lib/jwt"
	magiclinkservice "github.com/magabrotheeeer/premium-paywall/internal/services/magiclink"
	paymentservice "github.com/magabrotheeeer/premium-paywall/internal/services/payment"
	pricingservice "github.com/magabrotheeeer/premium-paywall/internal/services/pricing"
	webhookservice "github.com/magabrotheeeer/premium-paywall/internal/services/webhook"
	"github.com/magabrotheeeer/premium-paywall/internal/storage"
)

// NewRouter регистрирует все маршруты сервиса.
func NewRouter(cfg *config.Config, logger *slog.Logger, db *storage.Storage, jwtMaker jwt.Maker,
	pricingService *pricingservice.Service, magiclinkService *magiclinkservice.Service,
	paymentService *paymentservice.Service, webhookService *webhookservice.Service) chi.Router {
	router := chi.NewRouter()

	// Глобальные middleware
	router.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	router.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Get("/pricing", pricingget.New(logger, pricingService).ServeHTTP)
		r.Post("/checkout", checkoutcreate.New(logger, paymentService).ServeHTTP)
		r.Get("/auth/verify", verifylink.New(logger, magiclinkService,
			cfg.SiteURL, cfg.CookieName, cfg.SessionTTL).ServeHTTP)
		r.Get("/auth/session", checksession.New(logger, magiclinkService, cfg.CookieName).ServeHTTP)

		// Запрос ссылки для входа ограничен по частоте
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(rate.Limit(1), 5, logger))
			r.Post("/auth/magic-link", sendlink.New(logger, magiclinkService).ServeHTTP)
		})

		// Группа с аутентификацией по сессионной куке
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.AuthMiddleware(jwtMaker, cfg.CookieName, logger))
			r.Post("/billing-portal", billingportal.New(logger, paymentService).ServeHTTP)
		})

		// Webhook endpoint (подпись вместо аутентификации)
		r.Post("/payments/webhook", paymentwebhook.New(logger, webhookService, cfg.WebhookSecret).ServeHTTP)
	})

	router.Get("/health", health.New(logger, db).ServeHTTP)
	router.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	router.Get("/docs/*", httpSwagger.WrapHandler)

	return router
}

package premiumpaywall

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/premium-paywall/internal/billing"
	"github.com/magabrotheeeer/premium-paywall/internal/cache"
	"github.com/magabrotheeeer/premium-paywall/internal/config"
	"github.com/magabrotheeeer/premium-paywall/internal/lib/jwt"
	"github.com/magabrotheeeer/premium-paywall/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/premium-paywall/internal/migrations"
	"github.com/magabrotheeeer/premium-paywall/internal/newsletter"
	magiclinkservice "github.com/magabrotheeeer/premium-paywall/internal/services/magiclink"
	paymentservice "github.com/magabrotheeeer/premium-paywall/internal/services/payment"
	pricingservice "github.com/magabrotheeeer/premium-paywall/internal/services/pricing"
	webhookservice "github.com/magabrotheeeer/premium-paywall/internal/services/webhook"
	"github.com/magabrotheeeer/premium-paywall/internal/storage"
)

// App хранит ресурсы HTTP-сервиса и закрывает их при остановке.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *storage.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New собирает все зависимости сервиса: хранилище с миграциями, кеш,
// брокер очередей, клиентов внешних API и HTTP-маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	publisher := rabbitmq.NewPublisher(ch)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.SessionTTL)
	billingClient := billing.NewClient(cfg.BillingAPIURL, cfg.BillingSecretKey)
	newsletterClient := newsletter.NewClient(cfg.NewsletterAPIURL, cfg.NewsletterAPIKey, cfg.NewsletterPublicationID)

	priceIDs := pricingservice.PriceIDs{
		Monthly:          cfg.MonthlyPriceID,
		Yearly:           cfg.YearlyPriceID,
		EarlyBirdMonthly: cfg.EarlyBirdMonthlyPriceID,
		EarlyBirdYearly:  cfg.EarlyBirdYearlyPriceID,
	}

	pricingService := pricingservice.NewService(db, cacheRedis, priceIDs, logger)
	magiclinkService := magiclinkservice.NewService(db, publisher, jwtMaker,
		cfg.RequestTokenTTL, cfg.PurchaseTokenTTL, logger)
	paymentService := paymentservice.NewService(db, billingClient, cfg.SiteURL, logger)
	webhookService := webhookservice.NewService(db, billingClient, newsletterClient,
		magiclinkService, cacheRedis, cfg.EarlyBirdLimit, logger)

	router := NewRouter(cfg, logger, db, jwtMaker, pricingService, magiclinkService,
		paymentService, webhookService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его по отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.ch.Close(); closeErr != nil {
			a.logger.Error("failed to close channel", slog.Any("err", closeErr))
		}
		if closeErr := a.conn.Close(); closeErr != nil {
			a.logger.Error("failed to close connection", slog.Any("err", closeErr))
		}
		a.db.DB.Close()
		return err
	}
}

// Package sender собирает и запускает сервис отправки писем со ссылками
// для входа: потребляет задания из очереди и шлёт их через SMTP.
package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/premium-paywall/internal/config"
	"github.com/magabrotheeeer/premium-paywall/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/premium-paywall/internal/lib/smtp"
	senderservice "github.com/magabrotheeeer/premium-paywall/internal/services/sender"
)

// App хранит ресурсы сервиса отправки писем.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.Service
	logger        *slog.Logger
}

// New собирает зависимости сервиса: подключение к брокеру и SMTP-транспорт.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}

	newTransport := smtp.NewTransport(cfg, logger)
	senderService := senderservice.NewService(newTransport, cfg.SiteURL, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run запускает потребителя очереди и останавливает его по отмене контекста.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.MagicLinkQueue, a.senderService.SendMagicLink, a.logger)
	if err != nil {
		a.logger.Error("failed to start magic link consumer", slog.Any("err", err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}

	return nil
}

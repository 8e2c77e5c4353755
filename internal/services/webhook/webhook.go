// Package webhook содержит обработку событий платёжного провайдера:
// активацию подписки после оплаты, перенос обновлений статуса и отмену.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/premium-paywall/internal/billing"
	"github.com/magabrotheeeer/premium-paywall/internal/lib/sl"
	"github.com/magabrotheeeer/premium-paywall/internal/models"
	"github.com/magabrotheeeer/premium-paywall/internal/services/magiclink"
	"github.com/magabrotheeeer/premium-paywall/internal/services/pricing"
	"github.com/magabrotheeeer/premium-paywall/internal/storage"
)

// SubscriberRepository определяет методы хранилища, нужные обработчику событий.
type SubscriberRepository interface {
	UpsertOnPurchase(ctx context.Context, up models.UpsertSubscriber) (*models.Subscriber, error)
	AssignEarlyBirdSlot(ctx context.Context, email string, limit int) (*int, error)
	ApplySubscriptionUpdate(ctx context.Context, upd models.SubscriptionUpdate) (int64, error)
	MarkCancelled(ctx context.Context, billingCustomerID string, now time.Time) (string, error)
}

// BillingClient описывает чтение данных подписки из API провайдера.
type BillingClient interface {
	GetSubscription(ctx context.Context, subscriptionID string) (*billing.Subscription, error)
}

// NewsletterClient синхронизирует премиум-флаг подписчика на платформе рассылки.
type NewsletterClient interface {
	SetPremium(ctx context.Context, email string, premium bool) error
}

// TokenIssuer выпускает токен входа после успешной оплаты.
type TokenIssuer interface {
	IssuePurchaseToken(ctx context.Context, sub *models.Subscriber) error
}

// Cache описывает инвалидацию кешированных данных.
type Cache interface {
	Invalidate(key string) error
}

// Service реализует обработку webhook-событий жизненного цикла подписки.
type Service struct {
	repo           SubscriberRepository
	client         BillingClient
	newsletter     NewsletterClient
	tokens         TokenIssuer
	cache          Cache
	earlyBirdLimit int
	log            *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(repo SubscriberRepository, client BillingClient, newsletter NewsletterClient,
	tokens TokenIssuer, cache Cache, earlyBirdLimit int, log *slog.Logger) *Service {
	return &Service{
		repo:           repo,
		client:         client,
		newsletter:     newsletter,
		tokens:         tokens,
		cache:          cache,
		earlyBirdLimit: earlyBirdLimit,
		log:            log,
	}
}

// ProcessEvent разбирает событие по типу и применяет его к хранилищу.
// Неизвестные типы подтверждаются без обработки: провайдер шлёт больше
// событий, чем нам нужно, и их нельзя отвергать.
func (s *Service) ProcessEvent(ctx context.Context, event *billing.Event) error {
	const op = "webhook.ProcessEvent"

	log := s.log.With(
		slog.String("event_id", event.ID),
		slog.String("event_type", event.Type),
	)

	switch event.Type {
	case billing.EventCheckoutCompleted:
		var checkout billing.CheckoutCompleted
		if err := json.Unmarshal(event.Data.Object, &checkout); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return s.handleCheckoutCompleted(ctx, log, &checkout)
	case billing.EventSubscriptionUpdated:
		var upd billing.SubscriptionEvent
		if err := json.Unmarshal(event.Data.Object, &upd); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return s.handleSubscriptionUpdated(ctx, log, &upd)
	case billing.EventSubscriptionDeleted:
		var del billing.SubscriptionEvent
		if err := json.Unmarshal(event.Data.Object, &del); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return s.handleSubscriptionDeleted(ctx, log, &del)
	default:
		log.Info("ignoring unhandled event type")
		return nil
	}
}

// handleCheckoutCompleted активирует подписку после успешной оплаты:
// создаёт или обновляет запись подписчика, присваивает early-bird место,
// выпускает токен входа и включает премиум-статус в рассылке.
func (s *Service) handleCheckoutCompleted(ctx context.Context, log *slog.Logger, checkout *billing.CheckoutCompleted) error {
	const op = "webhook.handleCheckoutCompleted"

	subscription, err := s.client.GetSubscription(ctx, checkout.Subscription)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if len(subscription.Items.Data) == 0 {
		return fmt.Errorf("%s: subscription %s has no items", op, subscription.ID)
	}
	price := subscription.Items.Data[0].Price

	tier := models.TierMonthly
	if price.Recurring.Interval == billing.IntervalYear {
		tier = models.TierYearly
	}

	email := magiclink.NormalizeEmail(checkout.CustomerEmail)
	sub, err := s.repo.UpsertOnPurchase(ctx, models.UpsertSubscriber{
		Email:                 email,
		BillingCustomerID:     checkout.Customer,
		BillingSubscriptionID: subscription.ID,
		Tier:                  tier,
		PriceCents:            price.UnitAmount,
		CurrentPeriodStart:    time.Unix(subscription.CurrentPeriodStart, 0).UTC(),
		CurrentPeriodEnd:      time.Unix(subscription.CurrentPeriodEnd, 0).UTC(),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	number, err := s.repo.AssignEarlyBirdSlot(ctx, email, s.earlyBirdLimit)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if number != nil {
		sub.IsEarlyBird = true
		sub.EarlyBirdNumber = number
		log.Info("early bird slot assigned", slog.Int("number", *number))
	}

	if err := s.tokens.IssuePurchaseToken(ctx, sub); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// Рассылка вторична: её отказ не должен ронять обработку оплаты,
	// провайдер иначе начнёт бесконечные повторы доставки.
	if err := s.newsletter.SetPremium(ctx, email, true); err != nil {
		log.Error("failed to enable premium in newsletter", sl.Err(err))
	}

	s.invalidatePricing(log)
	log.Info("subscription activated", slog.String("tier", tier))
	return nil
}

// handleSubscriptionUpdated переносит статус и границы периода на запись
// подписчика. Отсутствие записи не считается ошибкой: событие могло
// прийти раньше активации или для чужого клиента.
func (s *Service) handleSubscriptionUpdated(ctx context.Context, log *slog.Logger, upd *billing.SubscriptionEvent) error {
	const op = "webhook.handleSubscriptionUpdated"

	rows, err := s.repo.ApplySubscriptionUpdate(ctx, models.SubscriptionUpdate{
		BillingCustomerID:  upd.Customer,
		Status:             mapProviderStatus(upd.Status),
		CurrentPeriodStart: time.Unix(upd.CurrentPeriodStart, 0).UTC(),
		CurrentPeriodEnd:   time.Unix(upd.CurrentPeriodEnd, 0).UTC(),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		log.Warn("subscription update for unknown customer",
			slog.String("customer_id", upd.Customer))
		return nil
	}

	log.Info("subscription updated", slog.String("status", upd.Status))
	return nil
}

// handleSubscriptionDeleted помечает подписку отменённой и выключает
// премиум-статус в рассылке. Повторная доставка события безопасна.
func (s *Service) handleSubscriptionDeleted(ctx context.Context, log *slog.Logger, del *billing.SubscriptionEvent) error {
	const op = "webhook.handleSubscriptionDeleted"

	email, err := s.repo.MarkCancelled(ctx, del.Customer, time.Now().UTC())
	if err != nil {
		if errors.Is(err, storage.ErrSubscriberNotFound) {
			log.Warn("cancellation for unknown customer",
				slog.String("customer_id", del.Customer))
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.newsletter.SetPremium(ctx, email, false); err != nil {
		log.Error("failed to disable premium in newsletter", sl.Err(err))
	}

	s.invalidatePricing(log)
	log.Info("subscription cancelled")
	return nil
}

func (s *Service) invalidatePricing(log *slog.Logger) {
	if err := s.cache.Invalidate(pricing.CacheKey); err != nil {
		log.Warn("failed to invalidate pricing cache", sl.Err(err))
	}
}

// mapProviderStatus приводит статус провайдера к внутреннему словарю.
// Провайдер пишет canceled с одной l.
func mapProviderStatus(status string) string {
	switch status {
	case "canceled":
		return models.StatusCancelled
	default:
		return status
	}
}

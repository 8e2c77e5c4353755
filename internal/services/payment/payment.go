// Package payment содержит бизнес-логику запуска оплаты: создание
// checkout-сессии для новой подписки и сессии портала самообслуживания
// для управления существующей.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/premium-paywall/internal/billing"
	"github.com/magabrotheeeer/premium-paywall/internal/models"
	"github.com/magabrotheeeer/premium-paywall/internal/storage"
)

// ErrNoBillingAccount возвращается, когда у подписчика нет аккаунта
// у платёжного провайдера и портал самообслуживания недоступен.
var ErrNoBillingAccount = errors.New("subscriber has no billing account")

// Repository определяет методы хранилища, нужные платёжному сервису.
type Repository interface {
	FindByUID(ctx context.Context, uid string) (*models.Subscriber, error)
}

// BillingClient описывает вызовы API платёжного провайдера.
type BillingClient interface {
	CreateCheckoutSession(ctx context.Context, email, priceID, successURL, cancelURL string) (*billing.CheckoutSession, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (*billing.PortalSession, error)
}

// Service реализует создание платёжных сессий.
type Service struct {
	repo    Repository
	client  BillingClient
	siteURL string
	log     *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(repo Repository, client BillingClient, siteURL string, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		client:  client,
		siteURL: siteURL,
		log:     log,
	}
}

// CreateCheckoutSession создаёт у провайдера сессию оплаты подписки
// и возвращает URL для редиректа покупателя.
func (s *Service) CreateCheckoutSession(ctx context.Context, email, priceID string) (string, error) {
	const op = "payment.CreateCheckoutSession"

	successURL := s.siteURL + "/premium/success/?session_id={CHECKOUT_SESSION_ID}"
	cancelURL := s.siteURL + "/premium/"

	session, err := s.client.CreateCheckoutSession(ctx, email, priceID, successURL, cancelURL)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("checkout session created", slog.String("session_id", session.ID))
	return session.URL, nil
}

// CreatePortalSession создаёт сессию портала самообслуживания для
// подписчика по его UID из сессионного токена. Возвращает URL портала.
func (s *Service) CreatePortalSession(ctx context.Context, subscriberUID string) (string, error) {
	const op = "payment.CreatePortalSession"

	sub, err := s.repo.FindByUID(ctx, subscriberUID)
	if err != nil {
		if errors.Is(err, storage.ErrSubscriberNotFound) {
			return "", ErrNoBillingAccount
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if sub.BillingCustomerID == "" {
		return "", ErrNoBillingAccount
	}

	session, err := s.client.CreatePortalSession(ctx, sub.BillingCustomerID, s.siteURL+"/premium/portal/")
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return session.URL, nil
}

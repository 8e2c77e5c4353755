package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/premium-paywall/internal/billing"
	"github.com/magabrotheeeer/premium-paywall/internal/models"
	"github.com/magabrotheeeer/premium-paywall/internal/services/pricing"
	"github.com/magabrotheeeer/premium-paywall/internal/storage"
)

// MockRepository реализует интерфейс webhook.SubscriberRepository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) UpsertOnPurchase(ctx context.Context, up models.UpsertSubscriber) (*models.Subscriber, error) {
	args := m.Called(ctx, up)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscriber), args.Error(1)
}

func (m *MockRepository) AssignEarlyBirdSlot(ctx context.Context, email string, limit int) (*int, error) {
	args := m.Called(ctx, email, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*int), args.Error(1)
}

func (m *MockRepository) ApplySubscriptionUpdate(ctx context.Context, upd models.SubscriptionUpdate) (int64, error) {
	args := m.Called(ctx, upd)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) MarkCancelled(ctx context.Context, billingCustomerID string, now time.Time) (string, error) {
	args := m.Called(ctx, billingCustomerID, now)
	return args.String(0), args.Error(1)
}

// MockBillingClient реализует интерфейс webhook.BillingClient
type MockBillingClient struct {
	mock.Mock
}

func (m *MockBillingClient) GetSubscription(ctx context.Context, subscriptionID string) (*billing.Subscription, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Subscription), args.Error(1)
}

// MockNewsletterClient реализует интерфейс webhook.NewsletterClient
type MockNewsletterClient struct {
	mock.Mock
}

func (m *MockNewsletterClient) SetPremium(ctx context.Context, email string, premium bool) error {
	args := m.Called(ctx, email, premium)
	return args.Error(0)
}

// MockTokenIssuer реализует интерфейс webhook.TokenIssuer
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) IssuePurchaseToken(ctx context.Context, sub *models.Subscriber) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

// MockCache реализует интерфейс webhook.Cache
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Invalidate(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

type mocks struct {
	repo       *MockRepository
	client     *MockBillingClient
	newsletter *MockNewsletterClient
	tokens     *MockTokenIssuer
	cache      *MockCache
}

func newTestService(t *testing.T) (*Service, *mocks) {
	t.Helper()
	m := &mocks{
		repo:       new(MockRepository),
		client:     new(MockBillingClient),
		newsletter: new(MockNewsletterClient),
		tokens:     new(MockTokenIssuer),
		cache:      new(MockCache),
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewService(m.repo, m.client, m.newsletter, m.tokens, m.cache, 100, logger), m
}

func makeEvent(t *testing.T, eventType string, object any) *billing.Event {
	t.Helper()
	raw, err := json.Marshal(object)
	require.NoError(t, err)
	event := &billing.Event{ID: "evt_123", Type: eventType}
	event.Data.Object = raw
	return event
}

func yearlySubscription(t *testing.T) *billing.Subscription {
	t.Helper()
	raw := `{
		"id": "sub_123",
		"customer": "cus_123",
		"status": "active",
		"current_period_start": 1756684800,
		"current_period_end": 1788220800,
		"items": {"data": [{"price": {
			"id": "price_eb_yearly",
			"unit_amount": 3000,
			"recurring": {"interval": "year"}
		}}]}
	}`
	var sub billing.Subscription
	require.NoError(t, json.Unmarshal([]byte(raw), &sub))
	return &sub
}

func TestProcessEvent_CheckoutCompleted(t *testing.T) {
	service, m := newTestService(t)

	event := makeEvent(t, billing.EventCheckoutCompleted, billing.CheckoutCompleted{
		CustomerEmail: "User@Example.com",
		Customer:      "cus_123",
		Subscription:  "sub_123",
	})

	stored := &models.Subscriber{
		ID:     1,
		Email:  "user@example.com",
		Status: models.StatusActive,
		Tier:   models.TierYearly,
	}
	number := 42

	m.client.On("GetSubscription", mock.Anything, "sub_123").Return(yearlySubscription(t), nil)
	m.repo.On("UpsertOnPurchase", mock.Anything, mock.MatchedBy(func(up models.UpsertSubscriber) bool {
		return up.Email == "user@example.com" &&
			up.BillingCustomerID == "cus_123" &&
			up.Tier == models.TierYearly &&
			up.PriceCents == 3000
	})).Return(stored, nil)
	m.repo.On("AssignEarlyBirdSlot", mock.Anything, "user@example.com", 100).Return(&number, nil)
	m.tokens.On("IssuePurchaseToken", mock.Anything, mock.MatchedBy(func(sub *models.Subscriber) bool {
		return sub.IsEarlyBird && sub.EarlyBirdNumber != nil && *sub.EarlyBirdNumber == 42
	})).Return(nil)
	m.newsletter.On("SetPremium", mock.Anything, "user@example.com", true).Return(nil)
	m.cache.On("Invalidate", pricing.CacheKey).Return(nil)

	err := service.ProcessEvent(context.Background(), event)
	require.NoError(t, err)
	m.repo.AssertExpectations(t)
	m.tokens.AssertExpectations(t)
	m.newsletter.AssertExpectations(t)
	m.cache.AssertExpectations(t)
}

func TestProcessEvent_CheckoutCompleted_LimitExhausted(t *testing.T) {
	service, m := newTestService(t)

	event := makeEvent(t, billing.EventCheckoutCompleted, billing.CheckoutCompleted{
		CustomerEmail: "user@example.com",
		Customer:      "cus_123",
		Subscription:  "sub_123",
	})

	stored := &models.Subscriber{ID: 1, Email: "user@example.com", Status: models.StatusActive}

	m.client.On("GetSubscription", mock.Anything, "sub_123").Return(yearlySubscription(t), nil)
	m.repo.On("UpsertOnPurchase", mock.Anything, mock.Anything).Return(stored, nil)
	m.repo.On("AssignEarlyBirdSlot", mock.Anything, "user@example.com", 100).Return(nil, nil)
	m.tokens.On("IssuePurchaseToken", mock.Anything, mock.MatchedBy(func(sub *models.Subscriber) bool {
		return !sub.IsEarlyBird && sub.EarlyBirdNumber == nil
	})).Return(nil)
	m.newsletter.On("SetPremium", mock.Anything, "user@example.com", true).Return(nil)
	m.cache.On("Invalidate", pricing.CacheKey).Return(nil)

	err := service.ProcessEvent(context.Background(), event)
	require.NoError(t, err)
}

func TestProcessEvent_CheckoutCompleted_NewsletterFailureIsNotFatal(t *testing.T) {
	service, m := newTestService(t)

	event := makeEvent(t, billing.EventCheckoutCompleted, billing.CheckoutCompleted{
		CustomerEmail: "user@example.com",
		Customer:      "cus_123",
		Subscription:  "sub_123",
	})

	stored := &models.Subscriber{ID: 1, Email: "user@example.com", Status: models.StatusActive}

	m.client.On("GetSubscription", mock.Anything, "sub_123").Return(yearlySubscription(t), nil)
	m.repo.On("UpsertOnPurchase", mock.Anything, mock.Anything).Return(stored, nil)
	m.repo.On("AssignEarlyBirdSlot", mock.Anything, "user@example.com", 100).Return(nil, nil)
	m.tokens.On("IssuePurchaseToken", mock.Anything, mock.Anything).Return(nil)
	m.newsletter.On("SetPremium", mock.Anything, "user@example.com", true).
		Return(errors.New("newsletter api down"))
	m.cache.On("Invalidate", pricing.CacheKey).Return(nil)

	err := service.ProcessEvent(context.Background(), event)
	require.NoError(t, err)
}

func TestProcessEvent_CheckoutCompleted_ProviderError(t *testing.T) {
	service, m := newTestService(t)

	event := makeEvent(t, billing.EventCheckoutCompleted, billing.CheckoutCompleted{
		CustomerEmail: "user@example.com",
		Customer:      "cus_123",
		Subscription:  "sub_123",
	})

	m.client.On("GetSubscription", mock.Anything, "sub_123").
		Return(nil, errors.New("provider unavailable"))

	err := service.ProcessEvent(context.Background(), event)
	assert.Error(t, err)
	m.repo.AssertNotCalled(t, "UpsertOnPurchase", mock.Anything, mock.Anything)
}

func TestProcessEvent_SubscriptionUpdated(t *testing.T) {
	tests := []struct {
		name       string
		status     string
		wantStatus string
	}{
		{name: "просрочка оплаты", status: "past_due", wantStatus: models.StatusPastDue},
		{name: "статус canceled приводится к внутреннему", status: "canceled", wantStatus: models.StatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := newTestService(t)

			event := makeEvent(t, billing.EventSubscriptionUpdated, billing.SubscriptionEvent{
				ID:                 "sub_123",
				Customer:           "cus_123",
				Status:             tt.status,
				CurrentPeriodStart: 1756684800,
				CurrentPeriodEnd:   1759276800,
			})

			m.repo.On("ApplySubscriptionUpdate", mock.Anything, mock.MatchedBy(func(upd models.SubscriptionUpdate) bool {
				return upd.BillingCustomerID == "cus_123" && upd.Status == tt.wantStatus
			})).Return(int64(1), nil)

			err := service.ProcessEvent(context.Background(), event)
			require.NoError(t, err)
			m.repo.AssertExpectations(t)
		})
	}
}

func TestProcessEvent_SubscriptionUpdated_UnknownCustomer(t *testing.T) {
	service, m := newTestService(t)

	event := makeEvent(t, billing.EventSubscriptionUpdated, billing.SubscriptionEvent{
		Customer: "cus_ghost",
		Status:   "active",
	})

	m.repo.On("ApplySubscriptionUpdate", mock.Anything, mock.Anything).Return(int64(0), nil)

	err := service.ProcessEvent(context.Background(), event)
	require.NoError(t, err)
}

func TestProcessEvent_SubscriptionDeleted(t *testing.T) {
	service, m := newTestService(t)

	event := makeEvent(t, billing.EventSubscriptionDeleted, billing.SubscriptionEvent{
		ID:       "sub_123",
		Customer: "cus_123",
		Status:   "canceled",
	})

	m.repo.On("MarkCancelled", mock.Anything, "cus_123", mock.Anything).Return("user@example.com", nil)
	m.newsletter.On("SetPremium", mock.Anything, "user@example.com", false).Return(nil)
	m.cache.On("Invalidate", pricing.CacheKey).Return(nil)

	err := service.ProcessEvent(context.Background(), event)
	require.NoError(t, err)
	m.repo.AssertExpectations(t)
	m.newsletter.AssertExpectations(t)
}

func TestProcessEvent_SubscriptionDeleted_ReplayIsSafe(t *testing.T) {
	service, m := newTestService(t)

	event := makeEvent(t, billing.EventSubscriptionDeleted, billing.SubscriptionEvent{
		Customer: "cus_ghost",
	})

	m.repo.On("MarkCancelled", mock.Anything, "cus_ghost", mock.Anything).
		Return("", storage.ErrSubscriberNotFound)

	err := service.ProcessEvent(context.Background(), event)
	require.NoError(t, err)
	m.newsletter.AssertNotCalled(t, "SetPremium", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessEvent_UnknownType(t *testing.T) {
	service, m := newTestService(t)

	event := &billing.Event{ID: "evt_123", Type: "invoice.paid"}
	err := service.ProcessEvent(context.Background(), event)
	require.NoError(t, err)
	m.repo.AssertNotCalled(t, "UpsertOnPurchase", mock.Anything, mock.Anything)
}

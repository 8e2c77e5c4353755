package billing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCheckoutSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/checkout/sessions", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "subscription", r.PostForm.Get("mode"))
		assert.Equal(t, "buyer@example.com", r.PostForm.Get("customer_email"))
		assert.Equal(t, "price_eb_monthly", r.PostForm.Get("line_items[0][price]"))
		assert.Equal(t, "1", r.PostForm.Get("line_items[0][quantity]"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_1","url":"https://checkout.example.com/cs_test_1"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_123")
	session, err := client.CreateCheckoutSession(context.Background(),
		"buyer@example.com", "price_eb_monthly",
		"https://site/premium/success/", "https://site/premium/")
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", session.ID)
	assert.Equal(t, "https://checkout.example.com/cs_test_1", session.URL)
}

func TestCreatePortalSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/billing_portal/sessions", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "cus_123", r.PostForm.Get("customer"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url":"https://billing.example.com/session/1"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_123")
	session, err := client.CreatePortalSession(context.Background(), "cus_123", "https://site/premium/portal/")
	require.NoError(t, err)
	assert.Equal(t, "https://billing.example.com/session/1", session.URL)
}

func TestGetSubscription(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/subscriptions/sub_123", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "sub_123",
			"customer": "cus_123",
			"status": "active",
			"current_period_start": 1735689600,
			"current_period_end": 1738368000,
			"items": {"data": [{"price": {"id": "price_eb_yearly", "unit_amount": 3000, "recurring": {"interval": "year"}}}]}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_123")
	sub, err := client.GetSubscription(context.Background(), "sub_123")
	require.NoError(t, err)
	assert.Equal(t, "cus_123", sub.Customer)
	assert.Equal(t, "active", sub.Status)
	require.Len(t, sub.Items.Data, 1)
	assert.Equal(t, 3000, sub.Items.Data[0].Price.UnitAmount)
	assert.Equal(t, IntervalYear, sub.Items.Data[0].Price.Recurring.Interval)
}

func TestGetSubscription_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_123")
	_, err := client.GetSubscription(context.Background(), "sub_123")
	assert.Error(t, err)
}

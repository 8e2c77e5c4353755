package paymentwebhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/premium-paywall/internal/billing"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) ProcessEvent(ctx context.Context, event *billing.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

const testSecret = "whsec_test"

func eventBody(t *testing.T) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"id":   "evt_123",
		"type": "customer.subscription.updated",
		"data": map[string]any{"object": map[string]any{"customer": "cus_123"}},
	})
	require.NoError(t, err)
	return raw
}

func TestPaymentWebhookHandler_ServeHTTP(t *testing.T) {
	body := eventBody(t)

	tests := []struct {
		name           string
		body           []byte
		signature      string
		mockErr        error
		skipMock       bool
		wantStatusCode int
	}{
		{
			name:           "valid signed event",
			body:           body,
			signature:      billing.SignPayload(testSecret, body, time.Now()),
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "missing signature",
			body:           body,
			signature:      "",
			skipMock:       true,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "wrong secret",
			body:           body,
			signature:      billing.SignPayload("whsec_other", body, time.Now()),
			skipMock:       true,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "stale timestamp",
			body:           body,
			signature:      billing.SignPayload(testSecret, body, time.Now().Add(-time.Hour)),
			skipMock:       true,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "signed garbage body",
			body:           []byte("{not json"),
			signature:      billing.SignPayload(testSecret, []byte("{not json"), time.Now()),
			skipMock:       true,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "processing failure",
			body:           body,
			signature:      billing.SignPayload(testSecret, body, time.Now()),
			mockErr:        errors.New("db down"),
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock := new(ServiceMock)
			if !tt.skipMock {
				serviceMock.On("ProcessEvent", mock.Anything, mock.Anything).Return(tt.mockErr)
			}

			handler := New(newNoopLogger(), serviceMock, testSecret)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(tt.body))
			if tt.signature != "" {
				req.Header.Set(SignatureHeader, tt.signature)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatusCode, rr.Code)
			if tt.skipMock {
				// Ни одна ветка с отклонённой подписью или телом
				// не должна дойти до обработки события.
				serviceMock.AssertNotCalled(t, "ProcessEvent", mock.Anything, mock.Anything)
			}
			if tt.wantStatusCode == http.StatusOK {
				var resp map[string]bool
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.True(t, resp["received"])
			}
		})
	}
}

func TestPaymentWebhookHandler_TamperedBody(t *testing.T) {
	serviceMock := new(ServiceMock)
	handler := New(newNoopLogger(), serviceMock, testSecret)

	body := eventBody(t)
	signature := billing.SignPayload(testSecret, body, time.Now())
	tampered := bytes.Replace(body, []byte("cus_123"), []byte("cus_666"), 1)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(tampered))
	req.Header.Set(SignatureHeader, signature)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	serviceMock.AssertNotCalled(t, "ProcessEvent", mock.Anything, mock.Anything)
}

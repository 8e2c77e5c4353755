package checkoutcreate

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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) CreateCheckoutSession(ctx context.Context, email, priceID string) (string, error) {
	args := m.Called(ctx, email, priceID)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestCheckoutCreateHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		mockURL        string
		mockErr        error
		skipMock       bool
		wantStatusCode int
		wantStatus     string
		wantError      string
	}{
		{
			name:           "valid request",
			requestBody:    Request{Email: "user@example.com", PriceID: "price_eb_monthly"},
			mockURL:        "https://checkout.example.com/cs_123",
			wantStatusCode: http.StatusOK,
			wantStatus:     "OK",
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			skipMock:       true,
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
			wantError:      "invalid request body",
		},
		{
			name:           "validation error - missing price id",
			requestBody:    Request{Email: "user@example.com"},
			skipMock:       true,
			wantStatusCode: http.StatusUnprocessableEntity,
			wantStatus:     "Error",
			wantError:      "field PriceID is a required field",
		},
		{
			name:           "validation error - bad email",
			requestBody:    Request{Email: "not-an-email", PriceID: "price_monthly"},
			skipMock:       true,
			wantStatusCode: http.StatusUnprocessableEntity,
			wantStatus:     "Error",
		},
		{
			name:           "provider error",
			requestBody:    Request{Email: "user@example.com", PriceID: "price_monthly"},
			mockErr:        errors.New("provider unavailable"),
			wantStatusCode: http.StatusInternalServerError,
			wantStatus:     "Error",
			wantError:      "failed to create checkout session",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock := new(ServiceMock)
			if !tt.skipMock {
				serviceMock.On("CreateCheckoutSession", mock.Anything, mock.Anything, mock.Anything).
					Return(tt.mockURL, tt.mockErr)
			}

			var body bytes.Buffer
			require.NoError(t, json.NewEncoder(&body).Encode(tt.requestBody))

			handler := New(newNoopLogger(), serviceMock)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", &body)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatusCode, rr.Code)

			var resp map[string]any
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp["status"])
			if tt.wantError != "" {
				assert.Contains(t, resp["error"], tt.wantError)
			}
			if tt.wantStatus == "OK" {
				data := resp["data"].(map[string]any)
				assert.Equal(t, tt.mockURL, data["url"])
			}
		})
	}
}

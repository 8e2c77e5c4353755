package checksession

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/premium-paywall/internal/models"
	"github.com/magabrotheeeer/premium-paywall/internal/services/magiclink"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) CheckSession(tokenStr string) *magiclink.SessionStatus {
	args := m.Called(tokenStr)
	return args.Get(0).(*magiclink.SessionStatus)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestCheckSessionHandler_ServeHTTP(t *testing.T) {
	number := 7

	tests := []struct {
		name       string
		cookie     *http.Cookie
		wantToken  string
		mockStatus *magiclink.SessionStatus
	}{
		{
			name:      "active premium session",
			cookie:    &http.Cookie{Name: "pw_session", Value: "session.jwt.token"},
			wantToken: "session.jwt.token",
			mockStatus: &magiclink.SessionStatus{
				IsPremium:       true,
				Email:           "user@example.com",
				Tier:            models.TierYearly,
				IsEarlyBird:     true,
				EarlyBirdNumber: &number,
			},
		},
		{
			name:       "no cookie",
			cookie:     nil,
			wantToken:  "",
			mockStatus: &magiclink.SessionStatus{IsPremium: false},
		},
		{
			name:       "foreign cookie name is ignored",
			cookie:     &http.Cookie{Name: "other_cookie", Value: "whatever"},
			wantToken:  "",
			mockStatus: &magiclink.SessionStatus{IsPremium: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock := new(ServiceMock)
			serviceMock.On("CheckSession", tt.wantToken).Return(tt.mockStatus)

			handler := New(newNoopLogger(), serviceMock, "pw_session")
			req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/session", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)

			var got magiclink.SessionStatus
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
			assert.Equal(t, tt.mockStatus.IsPremium, got.IsPremium)
			assert.Equal(t, tt.mockStatus.Email, got.Email)
			serviceMock.AssertExpectations(t)
		})
	}
}

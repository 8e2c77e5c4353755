// Package verifylink реализует HTTP-обработчик обмена токена входа
// на сессионную куку.
//
// По ссылке из письма переходит браузер, поэтому все исходы
// завершаются редиректом на сайт, а не JSON-ответом.
package verifylink

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/premium-paywall/internal/lib/sl"
	"github.com/magabrotheeeer/premium-paywall/internal/services/magiclink"
)

// Service описывает интерфейс проверки токена входа.
type Service interface {
	VerifyToken(ctx context.Context, tokenStr string) (string, error)
}

// Handler обрабатывает HTTP-запросы проверки ссылки для входа.
type Handler struct {
	log        *slog.Logger  // Логгер для записи операций и ошибок
	service    Service       // Сервис проверки токенов входа
	siteURL    string        // Базовый URL сайта для редиректов
	cookieName string        // Имя сессионной куки
	sessionTTL time.Duration // Время жизни сессионной куки
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, siteURL, cookieName string, sessionTTL time.Duration) *Handler {
	return &Handler{
		log:        log,
		service:    service,
		siteURL:    siteURL,
		cookieName: cookieName,
		sessionTTL: sessionTTL,
	}
}

// ServeHTTP godoc
// @Summary Вход по ссылке из письма
// @Description Обменивает одноразовый токен на сессионную куку и перенаправляет на портал подписчика.
// @Tags Auth
// @Param token query string true "Одноразовый токен входа"
// @Success 302 "Редирект на портал или страницу ошибки"
// @Router /auth/verify [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.verifylink"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		log.Info("verify request without token")
		http.Redirect(w, r, h.siteURL+"/premium/?error=missing_token", http.StatusFound)
		return
	}

	sessionToken, err := h.service.VerifyToken(r.Context(), tokenStr)
	if err != nil {
		if !errors.Is(err, magiclink.ErrInvalidToken) {
			log.Error("failed to verify magic link token", sl.Err(err))
		} else {
			log.Info("magic link token rejected")
		}
		// Причина отказа не раскрывается: протухший и никогда не
		// существовавший токен выглядят снаружи одинаково.
		http.Redirect(w, r, h.siteURL+"/premium/?error=invalid_token", http.StatusFound)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    sessionToken,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})

	log.Info("session cookie issued")
	http.Redirect(w, r, h.siteURL+"/premium/portal/", http.StatusFound)
}

// Package billingportal реализует HTTP-обработчик создания сессии
// портала самообслуживания платёжного провайдера.
//
// Маршрут защищён middleware аутентификации: UID подписчика берётся
// из claims сессии в контексте запроса.
package billingportal

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/premium-paywall/internal/http/middlewarectx"
	"github.com/magabrotheeeer/premium-paywall/internal/http/response"
	"github.com/magabrotheeeer/premium-paywall/internal/lib/sl"
	"github.com/magabrotheeeer/premium-paywall/internal/services/payment"
)

// Service описывает интерфейс бизнес-логики портала самообслуживания.
type Service interface {
	CreatePortalSession(ctx context.Context, subscriberUID string) (string, error)
}

// Handler обрабатывает HTTP-запросы создания сессии портала.
type Handler struct {
	log     *slog.Logger // Логгер для записи операций и ошибок
	service Service      // Платёжный сервис
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Сессия портала самообслуживания
// @Description Создаёт сессию портала провайдера для управления подпиской и возвращает её URL.
// @Tags Payment
// @Produce json
// @Success 200 {object} response.Response "URL портала"
// @Failure 400 {object} response.ErrorResponse "Нет аккаунта у провайдера"
// @Failure 401 {object} response.ErrorResponse "Сессия отсутствует"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /billing-portal [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.billingportal"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	claims, ok := middlewarectx.ClaimsFromContext(r.Context())
	if !ok {
		log.Error("session claims missing in request context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("authentication required"))
		return
	}

	url, err := h.service.CreatePortalSession(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, payment.ErrNoBillingAccount) {
			log.Info("portal requested without billing account")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("no billing account on file"))
			return
		}
		log.Error("failed to create portal session", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to create portal session"))
		return
	}

	log.Info("portal session created")
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"url": url,
	}))
}

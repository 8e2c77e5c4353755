// Package paymentwebhook реализует HTTP-обработчик webhook-событий
// платёжного провайдера.
//
// Подпись запроса проверяется до любого чтения хранилища: тело без
// корректной подписи не может вызвать побочных эффектов. Успешная
// обработка подтверждается телом {"received": true}, иначе провайдер
// повторяет доставку.
package paymentwebhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/premium-paywall/internal/billing"
	"github.com/magabrotheeeer/premium-paywall/internal/http/response"
	"github.com/magabrotheeeer/premium-paywall/internal/lib/sl"
)

// SignatureHeader заголовок с подписью webhook-запроса.
const SignatureHeader = "Stripe-Signature"

// Service описывает интерфейс обработки webhook-событий.
type Service interface {
	ProcessEvent(ctx context.Context, event *billing.Event) error
}

// Handler обрабатывает HTTP-запросы webhook-событий провайдера.
type Handler struct {
	log           *slog.Logger // Логгер для записи операций и ошибок
	service       Service      // Обработчик событий
	webhookSecret string       // Секрет для проверки подписи
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		webhookSecret: secret,
	}
}

// ServeHTTP godoc
// @Summary Приём webhook-событий провайдера
// @Description Проверяет подпись запроса и применяет событие жизненного цикла подписки.
// @Tags Payment
// @Accept json
// @Produce json
// @Success 200 {object} map[string]bool "Событие принято"
// @Failure 400 {object} response.ErrorResponse "Некорректная подпись или тело"
// @Failure 500 {object} response.ErrorResponse "Ошибка обработки события"
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.paymentwebhook"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to read request body"))
		return
	}

	signature := r.Header.Get(SignatureHeader)
	if !billing.VerifySignature(h.webhookSecret, body, signature, time.Now(), billing.SignatureTolerance) {
		log.Error("invalid or missing webhook signature")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}

	var event billing.Event
	if err := json.Unmarshal(body, &event); err != nil {
		log.Error("failed to unmarshal webhook event", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid event payload"))
		return
	}

	if err := h.service.ProcessEvent(r.Context(), &event); err != nil {
		log.Error("failed to process webhook event", sl.Err(err),
			slog.String("event_type", event.Type))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to process event"))
		return
	}

	log.Info("webhook processed", slog.String("event_type", event.Type))
	render.JSON(w, r, map[string]bool{"received": true})
}

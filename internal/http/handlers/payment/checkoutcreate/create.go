// Package checkoutcreate реализует HTTP-обработчик запуска оплаты подписки.
//
// Обработчик валидирует email и priceId, делегирует создание checkout-сессии
// платёжному сервису и возвращает URL для редиректа покупателя.
package checkoutcreate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/premium-paywall/internal/http/response"
	"github.com/magabrotheeeer/premium-paywall/internal/lib/sl"
)

// Request — структура входных данных для создания checkout-сессии.
type Request struct {
	Email   string `json:"email" validate:"required,email"`
	PriceID string `json:"priceId" validate:"required"`
}

// Service описывает интерфейс бизнес-логики запуска оплаты.
type Service interface {
	CreateCheckoutSession(ctx context.Context, email, priceID string) (string, error)
}

// Handler обрабатывает HTTP-запросы создания checkout-сессии.
type Handler struct {
	log      *slog.Logger        // Логгер для записи операций и ошибок
	service  Service             // Платёжный сервис
	validate *validator.Validate // Валидатор для проверки входных данных
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создание сессии оплаты
// @Description Создаёт у платёжного провайдера checkout-сессию и возвращает URL оплаты.
// @Tags Payment
// @Accept json
// @Produce json
// @Param request body Request true "Email и ID цены"
// @Success 200 {object} response.Response "URL сессии оплаты"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.Response "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /checkout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.checkoutcreate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	url, err := h.service.CreateCheckoutSession(r.Context(), req.Email, req.PriceID)
	if err != nil {
		log.Error("failed to create checkout session", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to create checkout session"))
		return
	}

	log.Info("checkout session created")
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"url": url,
	}))
}

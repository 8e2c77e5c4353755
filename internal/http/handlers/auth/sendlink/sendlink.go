// Package sendlink реализует HTTP-обработчик запроса ссылки для входа.
//
// Ответ всегда одинаков независимо от того, существует ли подписчик:
// по нему нельзя проверить наличие адреса в базе.
package sendlink

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

// AckMessage единый текст подтверждения запроса ссылки.
const AckMessage = "If that email has an active subscription, a sign-in link is on its way."

// Request — структура входных данных для запроса ссылки.
type Request struct {
	Email string `json:"email" validate:"required,email"`
}

// Service описывает интерфейс бизнес-логики выпуска ссылок для входа.
type Service interface {
	RequestLink(ctx context.Context, email string) error
}

// Handler обрабатывает HTTP-запросы выпуска ссылки для входа.
type Handler struct {
	log      *slog.Logger        // Логгер для записи операций и ошибок
	service  Service             // Сервис выпуска токенов входа
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
// @Summary Запрос ссылки для входа
// @Description Отправляет письмо со ссылкой для входа, если email принадлежит активному подписчику. Ответ всегда одинаков.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body Request true "Email подписчика"
// @Success 200 {object} response.Response "Запрос принят"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.Response "Ошибка валидации"
// @Router /auth/magic-link [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.sendlink"

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

	// Сбой выпуска логируется, но ответ остаётся тем же:
	// иначе по коду ответа можно понять, существует ли подписчик.
	if err := h.service.RequestLink(r.Context(), req.Email); err != nil {
		log.Error("failed to issue magic link", sl.Err(err))
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"message": AckMessage,
	}))
}

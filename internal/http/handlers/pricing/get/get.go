// Package get реализует HTTP-обработчик выдачи таблицы цен.
//
// Ответ отдаётся в формате, который читает витрина сайта, поэтому
// он не оборачивается в стандартный конверт ответа.
package get

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/premium-paywall/internal/http/response"
	"github.com/magabrotheeeer/premium-paywall/internal/lib/sl"
	"github.com/magabrotheeeer/premium-paywall/internal/models"
)

// Service описывает интерфейс бизнес-логики расчёта цен.
type Service interface {
	GetPricing(ctx context.Context) (*models.Pricing, error)
}

// Handler обрабатывает HTTP-запросы таблицы цен.
type Handler struct {
	log     *slog.Logger // Логгер для записи операций и ошибок
	service Service      // Сервис расчёта цен
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Таблица цен подписки
// @Description Возвращает действующие цены тарифов и доступность early-bird мест.
// @Tags Pricing
// @Produce json
// @Success 200 {object} models.Pricing "Таблица цен"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /pricing [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.pricing.get"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	pricing, err := h.service.GetPricing(r.Context())
	if err != nil {
		log.Error("failed to get pricing", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to load pricing"))
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=60")
	render.JSON(w, r, pricing)
}

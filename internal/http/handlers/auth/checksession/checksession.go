// Package checksession реализует HTTP-обработчик проверки сессионной куки.
//
// Ответ всегда 200: отсутствие или непригодность куки означает
// premium=false без уточнения причины. Формат ответа читает витрина
// сайта, поэтому он не оборачивается в стандартный конверт.
package checksession

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/premium-paywall/internal/services/magiclink"
)

// Service описывает интерфейс проверки сессии.
type Service interface {
	CheckSession(tokenStr string) *magiclink.SessionStatus
}

// Handler обрабатывает HTTP-запросы проверки сессии.
type Handler struct {
	log        *slog.Logger // Логгер для записи операций и ошибок
	service    Service      // Сервис проверки сессии
	cookieName string       // Имя сессионной куки
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, cookieName string) *Handler {
	return &Handler{
		log:        log,
		service:    service,
		cookieName: cookieName,
	}
}

// ServeHTTP godoc
// @Summary Проверка сессии подписчика
// @Description Возвращает статус премиум-доступа по сессионной куке. Всегда отвечает 200.
// @Tags Auth
// @Produce json
// @Success 200 {object} magiclink.SessionStatus "Статус сессии"
// @Router /auth/session [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.checksession"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var tokenStr string
	if cookie, err := r.Cookie(h.cookieName); err == nil {
		tokenStr = cookie.Value
	}

	status := h.service.CheckSession(tokenStr)
	log.Debug("session checked", slog.Bool("premium", status.IsPremium))
	render.JSON(w, r, status)
}

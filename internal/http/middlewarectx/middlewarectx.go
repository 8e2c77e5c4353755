// Package middlewarectx содержит HTTP middleware и ключи контекста запроса.
package middlewarectx

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/premium-paywall/internal/http/response"
	"github.com/magabrotheeeer/premium-paywall/internal/lib/jwt"
	"github.com/magabrotheeeer/premium-paywall/internal/lib/sl"
)

// Key тип ключа контекста запроса.
type Key string

// SessionClaimsKey ключ, под которым в контексте лежат claims сессии.
const SessionClaimsKey Key = "session_claims"

// ClaimsFromContext извлекает claims сессии из контекста запроса.
func ClaimsFromContext(ctx context.Context) (*jwt.SessionClaims, bool) {
	claims, ok := ctx.Value(SessionClaimsKey).(*jwt.SessionClaims)
	return claims, ok
}

// AuthMiddleware проверяет сессионную куку и кладёт claims в контекст.
// Запросы без корректной сессии получают 401.
func AuthMiddleware(maker jwt.Maker, cookieName string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := log.With(
				slog.String("op", "middlewarectx.AuthMiddleware"),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			cookie, err := r.Cookie(cookieName)
			if err != nil {
				log.Info("request without session cookie")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("authentication required"))
				return
			}

			claims, err := maker.ParseToken(cookie.Value)
			if err != nil {
				log.Info("session cookie rejected", sl.Err(err))
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("authentication required"))
				return
			}

			ctx := context.WithValue(r.Context(), SessionClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimitMiddleware ограничивает частоту запросов по IP клиента.
// Используется на выпуске ссылок для входа: письма не должны
// превращаться в спам по чужому адресу.
func RateLimitMiddleware(rps rate.Limit, burst int, log *slog.Logger) func(http.Handler) http.Handler {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)

	limiterFor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		limiter, ok := limiters[ip]
		if !ok {
			limiter = rate.NewLimiter(rps, burst)
			limiters[ip] = limiter
		}
		return limiter
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			if !limiterFor(ip).Allow() {
				log.Info("rate limit exceeded", slog.String("ip", ip))
				w.WriteHeader(http.StatusTooManyRequests)
				render.JSON(w, r, response.Error("too many requests"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

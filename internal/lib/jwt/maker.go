// Package jwt реализует генерацию и парсинг подписанных сессионных токенов
// премиум-доступа.
//
// Maker определяет интерфейс для выпуска и проверки токена с данными подписчика.
// MakerImpl — конкретная реализация с использованием секретного ключа и срока
// жизни сессии.
package jwt

import (
	"time"

	"github.com/magabrotheeeer/premium-paywall/internal/models"
)

// Maker описывает интерфейс для выпуска и парсинга сессионных JWT токенов.
type Maker interface {
	// GenerateToken выпускает токен для подписчика.
	GenerateToken(sub *models.Subscriber) (string, error)
	// ParseToken возвращает *SessionClaims, если токен корректен и не истёк.
	ParseToken(tokenStr string) (*SessionClaims, error)
}

// MakerImpl реализует интерфейс Maker с использованием секретного ключа
// и времени жизни сессии (TTL).
type MakerImpl struct {
	secretKey string        // Секретный ключ для подписи токенов.
	tokenTTL  time.Duration // Время жизни сессии.
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}

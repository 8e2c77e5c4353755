package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/magabrotheeeer/premium-paywall/internal/models"
)

// SessionClaims описывает данные подписчика, хранящиеся в сессионном JWT.
type SessionClaims struct {
	Email                string `json:"email"`                       // Email подписчика
	Tier                 string `json:"tier"`                        // Тариф: monthly или yearly
	IsEarlyBird          bool   `json:"early_bird"`                  // Ранний подписчик
	EarlyBirdNumber      *int   `json:"early_bird_number,omitempty"` // Порядковый номер раннего подписчика
	jwt.RegisteredClaims        // Встроенные стандартные claims JWT (Subject, ExpiresAt и пр.)
}

// GenerateToken выпускает JWT токен для подписчика, подписывая его секретным ключом.
// В Subject попадает UID подписчика. Время жизни токена определяется полем tokenTTL.
func (j *MakerImpl) GenerateToken(sub *models.Subscriber) (string, error) {
	claims := SessionClaims{
		Email:           sub.Email,
		Tier:            sub.Tier,
		IsEarlyBird:     sub.IsEarlyBird,
		EarlyBirdNumber: sub.EarlyBirdNumber,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub.UID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(j.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

// ParseToken парсит JWT токен, проверяет его подпись и срок действия,
// возвращает SessionClaims с данными, если токен корректен.
func (j *MakerImpl) ParseToken(tokenStr string) (*SessionClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	return claims, nil
}

// Package token реализует генерацию и хэширование одноразовых токенов
// для входа по magic-link.
//
// Токен выдается пользователю в открытом виде (hex-строка), а в хранилище
// попадает только его SHA-256 дайджест: утечка базы не позволяет войти
// по сохраненному значению, при этом поиск по равенству дайджеста сохраняется.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Size — количество случайных байт в токене (256 бит энтропии).
const Size = 32

// Generate возвращает новый криптографически случайный токен в hex-кодировке.
func Generate() (string, error) {
	const op = "token.Generate"
	buf := make([]byte, Size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return hex.EncodeToString(buf), nil
}

// Digest возвращает SHA-256 дайджест токена в hex-кодировке.
// Именно дайджест хранится в поле magic_link_token таблицы subscribers.
func Digest(tokenStr string) string {
	sum := sha256.Sum256([]byte(tokenStr))
	return hex.EncodeToString(sum[:])
}

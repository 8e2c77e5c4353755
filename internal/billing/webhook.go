package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// SignatureTolerance максимально допустимый возраст подписанного события.
// Ограничивает окно повторного воспроизведения перехваченного запроса.
const SignatureTolerance = 5 * time.Minute

// VerifySignature проверяет подпись webhook-события.
//
// Заголовок имеет вид "t=<unix>,v1=<hex>", где v1 — HMAC-SHA256 от строки
// "<unix>.<тело запроса>" на webhook-секрете. Сравнение выполняется
// через hmac.Equal; событие старше tolerance отклоняется.
// Это главная граница доверия всей системы: до успешной проверки
// содержимому события верить нельзя.
func VerifySignature(secret string, body []byte, header string, now time.Time, tolerance time.Duration) bool {
	var timestamp int64
	var signatures []string

	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return false
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, value)
		}
	}

	if timestamp == 0 || len(signatures) == 0 {
		return false
	}

	age := now.Sub(time.Unix(timestamp, 0))
	if age > tolerance || age < -tolerance {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range signatures {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			return true
		}
	}
	return false
}

// SignPayload подписывает тело события для заданного момента времени.
// Используется в тестах и для локальной проверки интеграции.
func SignPayload(secret string, body []byte, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(body)
	return "t=" + ts + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

package models

// MagicLinkEmail — задание на отправку письма со ссылкой для входа.
// Публикуется API-сервисом в очередь и потребляется сервисом отправки.
// Token здесь — токен в открытом виде: в хранилище лежит только дайджест.
type MagicLinkEmail struct {
	Email           string `json:"email"`
	Token           string `json:"token"`
	EarlyBirdNumber *int   `json:"early_bird_number,omitempty"`
}

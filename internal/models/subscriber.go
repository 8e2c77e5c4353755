// Package models содержит доменные структуры платного доступа:
// подписчик, тарифы и цены, задания на отправку писем,
// а также вспомогательные типы для приёма данных из JSON-запросов.
package models

import "time"

// Статусы подписки, приходящие от платёжного провайдера.
// Статус меняется только обработчиком webhook-событий.
const (
	StatusActive    = "active"
	StatusPastDue   = "past_due"
	StatusCancelled = "cancelled"
)

// Тарифы подписки.
const (
	TierMonthly = "monthly"
	TierYearly  = "yearly"
)

// Subscriber представляет собой запись о платящем (или платившем ранее)
// подписчике. Запись создаётся при первой успешной оплате и никогда
// физически не удаляется: отмена подписки — это смена статуса.
type Subscriber struct {
	ID                    int        // Внутренний числовой ID
	UID                   string     // Стабильный уникальный идентификатор (uuid)
	Email                 string     // Email в нижнем регистре, уникальный ключ связи с провайдером
	BillingCustomerID     string     // ID клиента у платёжного провайдера
	BillingSubscriptionID string     // ID подписки у платёжного провайдера
	Status                string     // Статус подписки: active, past_due, cancelled...
	Tier                  string     // Тариф: monthly или yearly
	PriceCents            int        // Оплаченная цена в минорных единицах валюты
	IsEarlyBird           bool       // Ранний подписчик
	EarlyBirdNumber       *int       // Порядковый номер раннего подписчика (присваивается не более одного раза)
	MagicLinkToken        *string    // Дайджест одноразового токена входа
	MagicLinkExpiresAt    *time.Time // Срок действия токена
	CurrentPeriodStart    time.Time  // Начало текущего платёжного периода
	CurrentPeriodEnd      time.Time  // Конец текущего платёжного периода
	CancelledAt           *time.Time // Момент отмены подписки
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// UpsertSubscriber содержит поля, записываемые при событии успешной оплаты.
// Upsert идемпотентен: повторная доставка того же события перетирает
// те же значения, а ранее присвоенный early-bird номер сохраняется.
type UpsertSubscriber struct {
	Email                 string
	BillingCustomerID     string
	BillingSubscriptionID string
	Tier                  string
	PriceCents            int
	CurrentPeriodStart    time.Time
	CurrentPeriodEnd      time.Time
}

// SubscriptionUpdate содержит поля, переносимые на подписчика при событии
// обновления подписки. Поиск идёт по BillingCustomerID, а не по email:
// клиент мог сменить email у провайдера.
type SubscriptionUpdate struct {
	BillingCustomerID  string
	Status             string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
}

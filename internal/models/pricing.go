package models

// TierPricing описывает цены одного тарифа: обычную, раннюю и действующую.
// Current выбирает раннюю цену, пока ещё остались early-bird места.
type TierPricing struct {
	Regular   int    `json:"regular"`   // Обычная цена в минорных единицах
	EarlyBird int    `json:"earlyBird"` // Ранняя цена в минорных единицах
	Current   int    `json:"current"`   // Действующая цена
	PriceID   string `json:"priceId"`   // ID цены у платёжного провайдера
}

// Pricing — ответ ценового эндпоинта: доступность ранних мест и таблица цен.
// Результат безопасно кешировать на десятки секунд: доступность меняется
// только при новых оплатах.
type Pricing struct {
	IsEarlyBirdAvailable bool `json:"isEarlyBirdAvailable"`
	EarlyBirdRemaining   int  `json:"earlyBirdRemaining"`
	EarlyBirdLimit       int  `json:"earlyBirdLimit"`
	Prices               struct {
		Monthly TierPricing `json:"monthly"`
		Yearly  TierPricing `json:"yearly"`
	} `json:"prices"`
}

// EarlyBirdStats — состояние early-bird квоты, прочитанное из хранилища.
type EarlyBirdStats struct {
	Limit       int // Настроенный лимит ранних мест
	ActiveCount int // Количество активных ранних подписчиков
}

package billing

import "encoding/json"

// Интервалы оплаты подписки у провайдера.
const (
	IntervalMonth = "month"
	IntervalYear  = "year"
)

// Типы webhook-событий жизненного цикла подписки.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// CheckoutSession ответ провайдера при создании сессии оплаты.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// PortalSession ответ провайдера при создании сессии портала самообслуживания.
type PortalSession struct {
	URL string `json:"url"`
}

// Subscription подписка у провайдера. Интервал первой позиции определяет тариф.
type Subscription struct {
	ID                 string `json:"id"`
	Customer           string `json:"customer"`
	Status             string `json:"status"`
	CurrentPeriodStart int64  `json:"current_period_start"` // unix-время
	CurrentPeriodEnd   int64  `json:"current_period_end"`   // unix-время
	Items              struct {
		Data []struct {
			Price struct {
				ID         string `json:"id"`
				UnitAmount int    `json:"unit_amount"`
				Recurring  struct {
					Interval string `json:"interval"`
				} `json:"recurring"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

// Event webhook-событие провайдера. Содержимое Object зависит от типа
// события и разбирается обработчиком отдельно.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// CheckoutCompleted объект события checkout.session.completed.
type CheckoutCompleted struct {
	CustomerEmail string `json:"customer_email"`
	Customer      string `json:"customer"`
	Subscription  string `json:"subscription"`
}

// SubscriptionEvent объект событий customer.subscription.updated/deleted.
type SubscriptionEvent struct {
	ID                 string `json:"id"`
	Customer           string `json:"customer"`
	Status             string `json:"status"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
}

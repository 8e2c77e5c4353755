package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

const (
	// Exchange — обменник заданий на отправку писем.
	Exchange = "magiclink"
	// MagicLinkQueue — очередь заданий на отправку ссылок для входа.
	MagicLinkQueue = "magiclink.send"
	// MagicLinkRoutingKey — ключ маршрутизации заданий.
	MagicLinkRoutingKey = "send"
)

// SetupChannel открывает канал и объявляет обменник, очередь и привязку.
func SetupChannel(conn *amqp.Connection) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	err = ch.ExchangeDeclare(
		Exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	_, err = ch.QueueDeclare(
		MagicLinkQueue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	err = ch.QueueBind(MagicLinkQueue, MagicLinkRoutingKey, Exchange, false, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ch, err
}

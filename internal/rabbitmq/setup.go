package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"

	"github.com/billed-app/billed/internal/models"
)

// BillsExchange обменник событий о заметках (direct).
const BillsExchange = "bills"

// NotificationsQueue очередь уведомлений по e-mail.
const NotificationsQueue = "bills.notifications"

type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// NotificationQueues привязки очереди уведомлений: отправка заметки и её проверка.
func NotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: NotificationsQueue, RoutingKey: models.EventBillSubmitted},
		{QueueName: NotificationsQueue, RoutingKey: models.EventBillReviewed},
	}
}

// SetupChannel открывает канал, объявляет обменник exchange и привязывает к нему очереди.
// Одна очередь может встречаться несколько раз с разными ключами.
func SetupChannel(conn *amqp.Connection, exchange string, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = ch.Qos(MaxConcurrentHandlers, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	declared := make(map[string]bool, len(queues))
	for _, q := range queues {
		if !declared[q.QueueName] {
			if _, err = ch.QueueDeclare(q.QueueName, true, false, false, false, nil); err != nil {
				_ = ch.Close()
				return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
			}
			declared[q.QueueName] = true
		}
		if err = ch.QueueBind(q.QueueName, q.RoutingKey, exchange, false, nil); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w",
				op, q.QueueName, q.RoutingKey, err)
		}
	}

	return ch, nil
}

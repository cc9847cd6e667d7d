package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/billed-app/billed/internal/lib/sl"
)

// PublishMessage публикует сообщение в RabbitMQ в виде JSON.
func PublishMessage(ch *amqp.Channel, exchange string, routingkey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingkey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

type envelope struct {
	routingKey string
	message    any
}

// Publisher асинхронно публикует события в обменник из одной горутины:
// amqp.Channel нельзя использовать конкурентно.
type Publisher struct {
	ch       *amqp.Channel
	exchange string
	queue    chan envelope
	log      *slog.Logger
	wg       sync.WaitGroup
}

// NewPublisher создаёт публикатор с буфером size сообщений.
func NewPublisher(ch *amqp.Channel, exchange string, size int, log *slog.Logger) *Publisher {
	return &Publisher{
		ch:       ch,
		exchange: exchange,
		queue:    make(chan envelope, size),
		log:      log,
	}
}

// Publish ставит сообщение в очередь на отправку. Если буфер полон, сообщение
// отбрасывается с записью в лог.
func (p *Publisher) Publish(ctx context.Context, routingKey string, message any) error {
	const op = "rabbitmq.Publish"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	select {
	case p.queue <- envelope{routingKey: routingKey, message: message}:
	default:
		p.log.Warn("publish buffer is full, event dropped",
			slog.String("op", op), slog.String("routing_key", routingKey))
	}
	return nil
}

// Start запускает Run в отдельной горутине. Wait дождётся её завершения.
func (p *Publisher) Start(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.Run(ctx)
	}()
}

// Run отправляет сообщения до отмены ctx, затем дописывает остаток буфера.
func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case env := <-p.queue:
			p.send(env)
		case <-ctx.Done():
			for {
				select {
				case env := <-p.queue:
					p.send(env)
				default:
					return
				}
			}
		}
	}
}

// Wait ждёт завершения горутины, запущенной Start.
func (p *Publisher) Wait() {
	p.wg.Wait()
}

func (p *Publisher) send(env envelope) {
	if err := PublishMessage(p.ch, p.exchange, env.routingKey, env.message); err != nil {
		p.log.Error("failed to publish event", slog.String("routing_key", env.routingKey), sl.Err(err))
	}
}

// NopPublisher используется, когда брокер не настроен.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

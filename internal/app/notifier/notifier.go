package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/billed-app/billed/internal/config"
	"github.com/billed-app/billed/internal/lib/sl"
	"github.com/billed-app/billed/internal/lib/smtp"
	"github.com/billed-app/billed/internal/rabbitmq"
	senderservice "github.com/billed-app/billed/internal/services/sender"
)

type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.notifier.New"

	if cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("%s: rabbitmq url is not set", op)
	}
	if cfg.AdminEmail == "" {
		logger.Warn("admin email is not set, submitted bills will not be notified")
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.BillsExchange, rabbitmq.NotificationQueues())
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)
	senderService := senderservice.NewSenderService(transport, cfg.AdminEmail, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	wg, err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.NotificationsQueue, a.senderService.HandleBillEvent, a.logger)
	if err != nil {
		a.logger.Error("failed to start notifications consumer", sl.Err(err))
		a.close()
		return err
	}
	a.logger.Info("notifier started", slog.String("queue", rabbitmq.NotificationsQueue))

	<-ctx.Done()
	a.logger.Info("notifier shutting down gracefully")

	wg.Wait()
	a.close()
	return nil
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
}

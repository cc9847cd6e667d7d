// Package sender отправляет e-mail уведомления о событиях заметок.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/billed-app/billed/internal/lib/format"
	"github.com/billed-app/billed/internal/lib/sl"
	"github.com/billed-app/billed/internal/lib/smtp"
	"github.com/billed-app/billed/internal/metrics"
	"github.com/billed-app/billed/internal/models"
)

type SenderService struct {
	transport  smtp.TransportInterface
	adminEmail string
	log        *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService. Уведомления
// об отправленных заметках уходят на adminEmail.
func NewSenderService(transport smtp.TransportInterface, adminEmail string, log *slog.Logger) *SenderService {
	return &SenderService{
		transport:  transport,
		adminEmail: adminEmail,
		log:        log,
	}
}

// HandleBillEvent обрабатывает сообщение из очереди уведомлений.
// Нечитаемые сообщения и события без получателя отбрасываются;
// ошибка возвращается только при сбое отправки письма.
func (s *SenderService) HandleBillEvent(body []byte) error {
	const op = "sender.HandleBillEvent"
	log := s.log.With(slog.String("op", op))

	var event models.BillEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Error("failed to unmarshal message body, dropped", sl.Err(err))
		return nil
	}

	var to, subject, text string
	switch event.Kind {
	case models.EventBillSubmitted:
		to = s.adminEmail
		subject = fmt.Sprintf("Nouvelle note de frais de %s", event.Email)
		text = fmt.Sprintf("Bonjour,\n\n%s a envoyé la note de frais « %s » du %s pour un montant de %d €.\nElle est en attente de validation.",
			event.Email, event.Name, displayDate(event.Date), event.Amount)
	case models.EventBillReviewed:
		to = event.Email
		subject = fmt.Sprintf("Votre note de frais « %s » : %s", event.Name, format.Status(event.Status))
		text = fmt.Sprintf("Bonjour,\n\nVotre note de frais « %s » du %s (%d €) a été traitée.\nStatut : %s",
			event.Name, displayDate(event.Date), event.Amount, format.Status(event.Status))
		if event.CommentAdmin != "" {
			text += "\nCommentaire : " + event.CommentAdmin
		}
	default:
		log.Debug("event kind is not notified", slog.String("kind", event.Kind))
		return nil
	}

	if to == "" {
		log.Warn("no recipient for event, dropped", slog.String("kind", event.Kind), slog.String("bill_id", event.BillID))
		return nil
	}

	if err := s.sendEmail([]string{to}, subject, text); err != nil {
		metrics.NotificationsSent.WithLabelValues(event.Kind, "error").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.NotificationsSent.WithLabelValues(event.Kind, "ok").Inc()
	return nil
}

func displayDate(raw string) string {
	if d, err := format.Date(raw); err == nil {
		return d
	}
	return raw
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", s.transport.GetSMTPUser()), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.Any("to", to))
	return nil
}

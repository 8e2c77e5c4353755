// Package sender содержит логику отправки писем со ссылкой для входа.
// Сервис потребляет задания из очереди и отправляет письма через SMTP.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/magabrotheeeer/premium-paywall/internal/lib/sl"
	"github.com/magabrotheeeer/premium-paywall/internal/lib/smtp"
	"github.com/magabrotheeeer/premium-paywall/internal/models"
)

// Service реализует отправку писем со ссылкой для входа.
type Service struct {
	transport smtp.TransportInterface
	siteURL   string
	log       *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(transport smtp.TransportInterface, siteURL string, log *slog.Logger) *Service {
	return &Service{
		transport: transport,
		siteURL:   siteURL,
		log:       log,
	}
}

// SendMagicLink разбирает задание из очереди и отправляет письмо
// со ссылкой для входа.
func (s *Service) SendMagicLink(body []byte) error {
	const op = "sender.SendMagicLink"

	var job models.MagicLinkEmail
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if job.Email == "" || job.Token == "" {
		return fmt.Errorf("%s: empty email or token in job", op)
	}

	link := s.siteURL + "/auth/verify/?token=" + url.QueryEscape(job.Token)
	message := composeMessage(s.transport.GetSMTPUser(), job.Email, link, job.EarlyBirdNumber)

	if err := s.send(job.Email, message); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("magic link email sent")
	return nil
}

func (s *Service) send(to, message string) error {
	client, err := s.transport.Connect()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			s.log.Debug("failed to close smtp client", sl.Err(closeErr))
		}
	}()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}
	if _, err := w.Write([]byte(message)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}

// composeMessage собирает текст письма. Текст на английском:
// это язык продукта и его аудитории.
func composeMessage(from, to, link string, earlyBirdNumber *int) string {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: Your sign-in link\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString("Hi,\r\n\r\n")
	b.WriteString("Click the link below to access your premium subscription:\r\n\r\n")
	b.WriteString(link + "\r\n\r\n")
	if earlyBirdNumber != nil {
		fmt.Fprintf(&b, "You are early bird subscriber #%d. Your discounted price is locked in for as long as your subscription stays active.\r\n\r\n", *earlyBirdNumber)
	}
	b.WriteString("The link works once and expires soon, so use it while it's fresh.\r\n")
	b.WriteString("If you didn't request this email, you can safely ignore it.\r\n")
	return b.String()
}

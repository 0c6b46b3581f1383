// Пакет mailer — внешний коллаборатор для отправки почты.
// Контракт сознательно узкий: одно письмо — тема, получатели, текст.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"equipment-tracker/pkg/config"

	"go.uber.org/zap"
)

// MailerInterface — контракт отправки. Ошибка одной отправки перехватывается
// вызывающей стороной и не должна ронять процесс рассылки.
type MailerInterface interface {
	Send(ctx context.Context, subject string, recipients []string, body string) error
}

// -----------------------------------------------------------
// SMTP-реализация
// -----------------------------------------------------------

type SMTPMailer struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
}

func NewSMTPMailer(cfg config.SMTPConfig, logger *zap.Logger) MailerInterface {
	return &SMTPMailer{cfg: cfg, logger: logger}
}

func (m *SMTPMailer) Send(ctx context.Context, subject string, recipients []string, body string) error {
	if len(recipients) == 0 {
		return fmt.Errorf("пустой список получателей")
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	msg := BuildMessage(m.cfg.From, m.cfg.FromName, subject, recipients, body)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	// net/smtp не принимает контекст, поэтому отправку оборачиваем в горутину
	// и уважаем таймаут/отмену извне.
	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, m.cfg.From, recipients, msg)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("отправка письма прервана: %w", ctx.Err())
	}
}

// BuildMessage собирает RFC 822 сообщение. Вынесено отдельно ради тестов.
func BuildMessage(from, fromName, subject string, recipients []string, body string) []byte {
	var b strings.Builder
	if fromName != "" {
		fmt.Fprintf(&b, "From: %s <%s>\r\n", fromName, from)
	} else {
		fmt.Fprintf(&b, "From: %s\r\n", from)
	}
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(recipients, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// -----------------------------------------------------------
// Реализация-заглушка: пишет в лог вместо реальной отправки.
// Используется в dev-режиме и в тестах.
// -----------------------------------------------------------

type mockMailer struct {
	logger *zap.Logger
}

func NewMockMailer(logger *zap.Logger) MailerInterface {
	return &mockMailer{logger: logger}
}

func (m *mockMailer) Send(_ context.Context, subject string, recipients []string, body string) error {
	m.logger.Info("!!! ИМИТАЦИЯ ОТПРАВКИ EMAIL !!!",
		zap.String("тема", subject),
		zap.Strings("кому", recipients),
		zap.Int("длина_текста", len(body)),
	)
	return nil
}

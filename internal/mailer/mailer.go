package mailer

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type Message struct {
	To      string
	Subject string
	Body    string
	HTML    bool
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// dialer is the part of gomail.Dialer the sender uses
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPSender struct {
	dialer dialer
	from   string
	log    *zap.Logger
}

func NewSMTPSender(host string, port int, username, password, from string, log *zap.Logger) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
		log:    log.Named("mailer"),
	}
}

func (s *SMTPSender) build(msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	if msg.HTML {
		m.SetBody("text/html", msg.Body)
	} else {
		m.SetBody("text/plain", msg.Body)
	}
	return m
}

// Send blocks on the SMTP exchange; ctx is only checked before dialing
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(s.build(msg)); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}
	s.log.Info("email sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

// LogSender only logs; used when SMTP_HOST is unset
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log.Named("mailer")}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.log.Info("email delivery disabled, dropping message", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

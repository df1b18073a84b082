package mailer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ikkim/moda-backend/config"
	"github.com/ikkim/moda-backend/pkg/logger"
	"gopkg.in/gomail.v2"
)

var ErrNoRecipients = errors.New("mailer: message has no recipients")

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Message struct {
	To          []string
	Subject     string
	HTMLBody    string
	Attachments []Attachment
}

// Mailer delivers one message. Implementations make a single attempt.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New returns an SMTP mailer when SMTP is configured and a log-only mailer
// otherwise, so local runs never need a mail server.
func New(cfg config.SMTPConfig) Mailer {
	if !cfg.Enabled() {
		logger.Warn("SMTP not configured, emails will only be logged")
		return LogMailer{}
	}
	return NewSMTPMailer(cfg)
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// Send dials, sends and closes. gomail has no context support, so a
// cancelled ctx abandons the wait but not the underlying SMTP session.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	gm, err := buildMessage(m.from, msg)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- m.dialer.DialAndSend(gm)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("send %q: %w", msg.Subject, ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send %q: %w", msg.Subject, err)
		}
		return nil
	}
}

func buildMessage(from string, msg Message) (*gomail.Message, error) {
	if len(msg.To) == 0 {
		return nil, ErrNoRecipients
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", from)
	gm.SetHeader("To", msg.To...)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTMLBody)

	for _, a := range msg.Attachments {
		data := a.Data
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
		}
		if a.ContentType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{
				"Content-Type": {a.ContentType},
			}))
		}
		gm.Attach(a.Filename, settings...)
	}
	return gm, nil
}

// LogMailer only logs what would have been sent.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	logger.Info("Email not sent, SMTP disabled", map[string]interface{}{
		"to":          msg.To,
		"subject":     msg.Subject,
		"attachments": len(msg.Attachments),
	})
	return nil
}

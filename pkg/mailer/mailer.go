package mailer

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/visweshnarni/qptestbackend/config"
)

// Sender delivers a single HTML mail. Satisfied by Mailer; swapped for a
// fake in tests.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Mailer sends notification mail over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// New creates a Mailer from the mail configuration.
func New(cfg *config.MailConfig) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// Send delivers one mail, bounded by ctx. Each call dials a fresh SMTP
// session; notification volume is low enough that connection reuse is not
// worth the bookkeeping. The gomail dialer has no deadline hook, so the
// session runs on its own goroutine and the caller stops waiting when the
// context expires.
func (m *Mailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	errc := make(chan error, 1)
	go func() {
		errc <- m.dialer.DialAndSend(msg)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("send mail to %s: %w", to, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send mail to %s: %w", to, ctx.Err())
	}
}

package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"
)

type SMTPMailer struct {
	from     string
	fromName string
	dialer   *gomail.Dialer
}

func NewSMTPMailer(host string, port int, from, fromName, user, pass string) *SMTPMailer {
	host = strings.TrimSpace(host)
	d := gomail.NewDialer(host, port, strings.TrimSpace(user), strings.TrimSpace(pass))
	d.TLSConfig = &tls.Config{ServerName: host}
	// implicit TLS on 465, STARTTLS when offered otherwise
	d.SSL = port == 465

	return &SMTPMailer{
		from:     strings.TrimSpace(from),
		fromName: fromName,
		dialer:   d,
	}
}

func (s *SMTPMailer) Send(ctx context.Context, msg Message) error {
	to := strings.TrimSpace(msg.To)
	if to == "" {
		return fmt.Errorf("empty recipient email")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.fromName)
	if msg.ToName != "" {
		m.SetAddressHeader("To", to, msg.ToName)
	} else {
		m.SetHeader("To", to)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	if strings.TrimSpace(msg.HTML) != "" {
		m.AddAlternative("text/html", msg.HTML)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

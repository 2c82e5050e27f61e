package mailer

import "context"

// Message is a rendered email ready to hand to a transport.
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

type Service interface {
	Send(ctx context.Context, msg Message) error
}

// New picks the transport: dev mode logs, a MailerSend key wins over SMTP.
func New(devMode bool, mailerSendKey, smtpHost string, smtpPort int, from, fromName, user, pass string) Service {
	switch {
	case devMode:
		return NewDevMailer()
	case mailerSendKey != "":
		return NewMailerSend(mailerSendKey, fromName, from)
	default:
		return NewSMTPMailer(smtpHost, smtpPort, from, fromName, user, pass)
	}
}

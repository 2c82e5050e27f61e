package mailer

import (
	"context"
	"fmt"
	"sync"

	"github.com/diagnosis/hallbooking-admin/pkg/logger"
)

// DevMailer prints emails instead of sending them and keeps the last few
// for inspection.
type DevMailer struct {
	mu   sync.Mutex
	sent []Message
}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) Send(ctx context.Context, msg Message) error {
	logger.InfoContext(ctx, "📧 [DEV MAIL]",
		"to", msg.To,
		"name", msg.ToName,
		"subject", msg.Subject,
	)

	fmt.Printf("\n" +
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n" +
		"📧 EMAIL (DEV MODE)\n" +
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n" +
		"To: %s (%s)\n" +
		"Subject: %s\n" +
		"\n" +
		"%s\n" +
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n",
		msg.To, msg.ToName, msg.Subject, msg.Text)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, msg)
	if len(d.sent) > 50 {
		d.sent = d.sent[len(d.sent)-50:]
	}
	return nil
}

func (d *DevMailer) Sent() []Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Message, len(d.sent))
	copy(out, d.sent)
	return out
}

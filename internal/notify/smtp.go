package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// SMTPOptions configures the SMTP notifier.
type SMTPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier delivers messages through an SMTP relay.
type SMTPNotifier struct {
	addr   string
	from   string
	auth   smtp.Auth
	send   sendFunc
	logger zerolog.Logger
}

// NewSMTPNotifier builds a notifier; authentication is used only when a
// username is configured.
func NewSMTPNotifier(opts SMTPOptions, logger zerolog.Logger) (*SMTPNotifier, error) {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		return nil, fmt.Errorf("notify: smtp host is required")
	}
	if strings.TrimSpace(opts.From) == "" {
		return nil, fmt.Errorf("notify: sender address is required")
	}
	port := opts.Port
	if port == 0 {
		port = 587
	}
	var auth smtp.Auth
	if opts.Username != "" {
		auth = smtp.PlainAuth("", opts.Username, opts.Password, host)
	}
	return &SMTPNotifier{
		addr:   net.JoinHostPort(host, strconv.Itoa(port)),
		from:   opts.From,
		auth:   auth,
		send:   smtp.SendMail,
		logger: logger.With().Str("component", "smtp_notifier").Logger(),
	}, nil
}

func (n *SMTPNotifier) Notify(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := Compose(event)
	if err != nil {
		return err
	}
	if err := n.send(n.addr, n.auth, n.from, []string{msg.To}, n.encode(msg)); err != nil {
		return fmt.Errorf("notify: send %s to %s: %w", event.Kind, msg.To, err)
	}
	n.logger.Info().Str("kind", string(event.Kind)).Str("user_id", event.Contact.UserID).Msg("notification sent")
	return nil
}

func (n *SMTPNotifier) encode(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}

// LogNotifier writes messages to the log instead of sending them.
type LogNotifier struct {
	Logger zerolog.Logger
}

func (n LogNotifier) Notify(_ context.Context, event Event) error {
	msg, err := Compose(event)
	if err != nil {
		return err
	}
	n.Logger.Info().
		Str("kind", string(event.Kind)).
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("notification (not sent, smtp disabled)")
	return nil
}

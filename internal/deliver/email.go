package deliver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/wneessen/go-mail"
)

var (
	// ErrNoRecipients is returned when the email has nobody to go to.
	ErrNoRecipients = errors.New("no email recipients configured")

	// ErrNoSender is returned when no From address is configured.
	ErrNoSender = errors.New("no email sender configured")

	// ErrMissingAttachment is returned when an attachment does not exist.
	ErrMissingAttachment = errors.New("attachment not found")
)

// Message is an email to send.
type Message struct {
	Subject     string
	Body        string
	Attachments []string
}

// SendFunc delivers a built message.
type SendFunc func(ctx context.Context, msg *mail.Msg) error

// Email sends messages through an SMTP server.
type Email struct {
	host       string
	port       int
	from       string
	username   string
	password   string
	recipients []string
	send       SendFunc
	logger     *slog.Logger
}

// EmailOption configures an Email channel.
type EmailOption func(*Email)

// WithSMTPServer sets the SMTP host and port.
func WithSMTPServer(host string, port int) EmailOption {
	return func(e *Email) {
		if host != "" {
			e.host = host
		}
		if port > 0 {
			e.port = port
		}
	}
}

// WithCredentials sets the SMTP login. An empty username means the sender
// address.
func WithCredentials(username, password string) EmailOption {
	return func(e *Email) {
		e.username = username
		e.password = password
	}
}

// WithSendFunc replaces the SMTP transport.
func WithSendFunc(send SendFunc) EmailOption {
	return func(e *Email) {
		e.send = send
	}
}

// WithEmailLogger sets the logger.
func WithEmailLogger(logger *slog.Logger) EmailOption {
	return func(e *Email) {
		e.logger = logger
	}
}

// NewEmail creates an Email channel sending from from to recipients.
func NewEmail(from string, recipients []string, opts ...EmailOption) *Email {
	e := &Email{
		host:       "smtp.gmail.com",
		port:       587,
		from:       from,
		recipients: recipients,
		logger:     slog.Default(),
	}
	e.send = e.dialAndSend
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Recipients returns the configured recipient list.
func (e *Email) Recipients() []string {
	return e.recipients
}

// Build creates the MIME message. Every attachment must exist.
func (e *Email) Build(m Message) (*mail.Msg, error) {
	if e.from == "" {
		return nil, ErrNoSender
	}
	if len(e.recipients) == 0 {
		return nil, ErrNoRecipients
	}

	msg := mail.NewMsg()
	if err := msg.From(e.from); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(e.recipients...); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextPlain, m.Body)

	for _, path := range m.Attachments {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingAttachment, path)
		}
		msg.AttachFile(path)
	}
	return msg, nil
}

// Send builds and delivers the message.
func (e *Email) Send(ctx context.Context, m Message) error {
	msg, err := e.Build(m)
	if err != nil {
		return err
	}
	if err := e.send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	e.logger.Info("email sent", "subject", m.Subject, "recipients", len(e.recipients))
	return nil
}

func (e *Email) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	username := e.username
	if username == "" {
		username = e.from
	}

	client, err := mail.NewClient(e.host,
		mail.WithPort(e.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(username),
		mail.WithPassword(e.password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}

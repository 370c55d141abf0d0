package notify

import (
	mail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/starter-kit/account-service/internal/config"
)

// Sender delivers an assembled message to the mail relay.
type Sender interface {
	Send(msg *mail.Msg) error
}

// SMTPSender delivers messages over SMTP.
type SMTPSender struct {
	client *mail.Client
}

// NewSMTPSender builds a sender from mail configuration.
func NewSMTPSender(cfg config.MailConfig) (*SMTPSender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUsername),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}

	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, err
	}
	return &SMTPSender{client: client}, nil
}

// Send dials the relay and transmits the message.
func (s *SMTPSender) Send(msg *mail.Msg) error {
	return s.client.DialAndSend(msg)
}

// NopSender drops messages, logging them instead. Used when SMTP is not
// configured, typically in development.
type NopSender struct {
	logger *zap.Logger
}

// NewNopSender constructs a NopSender.
func NewNopSender(logger *zap.Logger) *NopSender {
	return &NopSender{logger: logger}
}

// Send logs the message envelope and discards it.
func (s *NopSender) Send(msg *mail.Msg) error {
	subject := ""
	if headers := msg.GetGenHeader(mail.HeaderSubject); len(headers) > 0 {
		subject = headers[0]
	}
	s.logger.Info("smtp not configured; dropping email",
		zap.Strings("to", msg.GetToString()),
		zap.String("subject", subject),
	)
	return nil
}

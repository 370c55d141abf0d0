package notify

import (
	"bytes"
	"io"

	"github.com/jaytaylor/html2text"
	mail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/starter-kit/account-service/internal/config"
)

// Renderer turns a template identifier and binding into an HTML body. The
// django view engine satisfies this.
type Renderer interface {
	Render(out io.Writer, template string, binding interface{}, layout ...string) error
}

// Dispatcher assembles multipart emails and hands them to a detached
// goroutine for delivery. Dispatch returns before any network I/O happens;
// there is no retry, no ordering and no delivery guarantee. Send failures are
// logged and go nowhere else, since the triggering response has already been
// committed by the time they can occur.
type Dispatcher struct {
	renderer Renderer
	sender   Sender
	logger   *zap.Logger
	siteURL  string
	from     string
}

// NewDispatcher constructs a Dispatcher. Site URL and sender address come
// from process-wide configuration, injected here rather than looked up
// ambiently.
func NewDispatcher(renderer Renderer, sender Sender, logger *zap.Logger, app config.AppConfig, mailCfg config.MailConfig) *Dispatcher {
	return &Dispatcher{
		renderer: renderer,
		sender:   sender,
		logger:   logger,
		siteURL:  app.SiteURL,
		from:     mailCfg.From,
	}
}

// Dispatch renders the template, builds a text+HTML multipart message and
// spawns the send. It returns nothing and cannot fail: an email that cannot
// be assembled is logged and dropped, never surfaced to the caller.
func (d *Dispatcher) Dispatch(subject, template string, context map[string]any, recipients []string) {
	binding := make(map[string]any, len(context)+1)
	for key, value := range context {
		binding[key] = value
	}
	if _, ok := binding["site_url"]; !ok {
		binding["site_url"] = d.siteURL
	}

	var buf bytes.Buffer
	if err := d.renderer.Render(&buf, template, binding); err != nil {
		d.logger.Error("render email template", zap.String("template", template), zap.Error(err))
		return
	}
	htmlBody := buf.String()

	plainBody, err := html2text.FromString(htmlBody, html2text.Options{TextOnly: true})
	if err != nil {
		d.logger.Warn("strip email markup", zap.String("template", template), zap.Error(err))
		plainBody = htmlBody
	}

	msg := mail.NewMsg()
	if err := msg.From(d.from); err != nil {
		d.logger.Error("invalid from address", zap.String("from", d.from), zap.Error(err))
		return
	}
	if err := msg.To(recipients...); err != nil {
		d.logger.Error("invalid recipients", zap.Strings("to", recipients), zap.Error(err))
		return
	}
	msg.Subject(subject)
	// Plain text is the primary body with HTML as the alternative part; mail
	// clients fall back to the text part when they cannot render HTML.
	msg.SetBodyString(mail.TypeTextPlain, plainBody)
	msg.AddAlternativeString(mail.TypeTextHTML, htmlBody)

	go func() {
		if err := d.sender.Send(msg); err != nil {
			d.logger.Error("send email",
				zap.String("subject", subject),
				zap.Strings("to", recipients),
				zap.Error(err),
			)
		}
	}()
}

package notify

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/template/django/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/starter-kit/account-service/internal/config"
)

type fakeRenderer struct {
	mu       sync.Mutex
	template string
	binding  map[string]any
	html     string
	err      error
}

func (r *fakeRenderer) Render(out io.Writer, template string, binding interface{}, layout ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.template = template
	if m, ok := binding.(map[string]any); ok {
		r.binding = m
	}
	html := r.html
	if html == "" {
		html = "<html><body><h1>Hello</h1><p>Body text</p></body></html>"
	}
	_, err := io.WriteString(out, html)
	return err
}

type recordingSender struct {
	mu    sync.Mutex
	sent  []*mail.Msg
	delay time.Duration
	err   error
	done  chan struct{}
}

func newRecordingSender(capacity int) *recordingSender {
	return &recordingSender{done: make(chan struct{}, capacity)}
}

func (s *recordingSender) Send(msg *mail.Msg) error {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()
	s.done <- struct{}{}
	return s.err
}

func (s *recordingSender) waitForSend(t *testing.T) *mail.Msg {
	t.Helper()
	select {
	case <-s.done:
	case <-time.After(2 * time.Second):
		t.Fatal("send did not complete")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.sent)
	return s.sent[len(s.sent)-1]
}

func newTestDispatcher(renderer Renderer, sender Sender) *Dispatcher {
	return NewDispatcher(renderer, sender, zap.NewNop(),
		config.AppConfig{SiteURL: "http://127.0.0.1:8080"},
		config.MailConfig{From: "noreply@yourdomain.com"},
	)
}

func TestDispatchReturnsBeforeSendCompletes(t *testing.T) {
	sender := newRecordingSender(1)
	sender.delay = 300 * time.Millisecond
	d := newTestDispatcher(&fakeRenderer{}, sender)

	start := time.Now()
	d.Dispatch("X", "template", map[string]any{"k": "v"}, []string{"a@b.com"})
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 100*time.Millisecond, "dispatch must not block on the send")

	msg := sender.waitForSend(t)
	assert.Equal(t, []string{"a@b.com"}, msg.GetToString())
}

func TestDispatchInjectsSiteURL(t *testing.T) {
	renderer := &fakeRenderer{}
	sender := newRecordingSender(1)
	d := newTestDispatcher(renderer, sender)

	d.Dispatch("Subject", "emails/welcome", map[string]any{"k": "v"}, []string{"a@b.com"})
	sender.waitForSend(t)

	assert.Equal(t, "emails/welcome", renderer.template)
	assert.Equal(t, "http://127.0.0.1:8080", renderer.binding["site_url"])
	assert.Equal(t, "v", renderer.binding["k"])
}

func TestDispatchKeepsCallerSiteURL(t *testing.T) {
	renderer := &fakeRenderer{}
	sender := newRecordingSender(1)
	d := newTestDispatcher(renderer, sender)

	d.Dispatch("Subject", "emails/welcome", map[string]any{"site_url": "https://example.com"}, []string{"a@b.com"})
	sender.waitForSend(t)

	assert.Equal(t, "https://example.com", renderer.binding["site_url"])
}

func TestDispatchBuildsTextPrimaryWithHTMLAlternative(t *testing.T) {
	sender := newRecordingSender(1)
	d := newTestDispatcher(&fakeRenderer{}, sender)

	d.Dispatch("Subject", "emails/welcome", nil, []string{"a@b.com"})
	msg := sender.waitForSend(t)

	parts := msg.GetParts()
	require.Len(t, parts, 2)
	first, err := parts[0].GetContent()
	require.NoError(t, err)
	assert.Contains(t, string(first), "Body text")
	assert.NotContains(t, string(first), "<p>")

	second, err := parts[1].GetContent()
	require.NoError(t, err)
	assert.Contains(t, string(second), "<p>Body text</p>")
}

func TestDispatchRenderFailureSendsNothing(t *testing.T) {
	sender := newRecordingSender(1)
	d := newTestDispatcher(&fakeRenderer{err: errors.New("no such template")}, sender)

	d.Dispatch("Subject", "missing", nil, []string{"a@b.com"})

	select {
	case <-sender.done:
		t.Fatal("nothing should have been sent")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDispatchSendErrorIsSwallowed(t *testing.T) {
	sender := newRecordingSender(1)
	sender.err = errors.New("relay down")
	d := newTestDispatcher(&fakeRenderer{}, sender)

	// must not panic and must not surface anything to the caller
	d.Dispatch("Subject", "emails/welcome", nil, []string{"a@b.com"})
	sender.waitForSend(t)
}

func TestDispatchConcurrentBurst(t *testing.T) {
	sender := newRecordingSender(10)
	d := newTestDispatcher(&fakeRenderer{}, sender)

	for i := 0; i < 10; i++ {
		d.Dispatch("Subject", "emails/welcome", nil, []string{"a@b.com"})
	}
	for i := 0; i < 10; i++ {
		select {
		case <-sender.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("send %d did not complete", i)
		}
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	assert.Len(t, sender.sent, 10)
}

// Renders the real email templates through the django engine to keep them
// honest.
func TestDispatchWithRealTemplates(t *testing.T) {
	engine := django.New("../../views", ".html")
	require.NoError(t, engine.Load())

	sender := newRecordingSender(1)
	d := newTestDispatcher(engine, sender)

	d.Dispatch("Welcome to Starter Kit, Anna!", "emails/welcome", map[string]any{
		"user": map[string]any{"FirstName": "Anna", "Email": "anna@example.com"},
	}, []string{"anna@example.com"})

	msg := sender.waitForSend(t)
	parts := msg.GetParts()
	require.Len(t, parts, 2)
	html, err := parts[1].GetContent()
	require.NoError(t, err)
	assert.Contains(t, string(html), "Welcome to Starter Kit, Anna!")
	assert.Contains(t, string(html), "http://127.0.0.1:8080/login")
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/starter-kit/account-service/internal/config"
	"github.com/starter-kit/account-service/internal/domain"
	"github.com/starter-kit/account-service/internal/events"
	"github.com/starter-kit/account-service/internal/notify"
)

type notificationFixture struct {
	dispatcher events.Dispatcher
	renderer   *stubRenderer
	sender     *channelSender
}

func newNotificationFixture(t *testing.T) *notificationFixture {
	t.Helper()
	dispatcher := events.NewInMemoryDispatcher()
	renderer := &stubRenderer{}
	sender := newChannelSender()
	mailer := notify.NewDispatcher(
		renderer,
		sender,
		zap.NewNop(),
		config.AppConfig{SiteURL: "http://127.0.0.1:8080"},
		config.MailConfig{From: "noreply@yourdomain.com"},
	)
	NewNotificationService(dispatcher, mailer, zap.NewNop()).RegisterHandlers()
	return &notificationFixture{dispatcher: dispatcher, renderer: renderer, sender: sender}
}

func (f *notificationFixture) waitForEmail(t *testing.T) *mail.Msg {
	t.Helper()
	select {
	case msg := <-f.sender.sent:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("email never sent")
		return nil
	}
}

func subjectOf(t *testing.T, msg *mail.Msg) string {
	t.Helper()
	subjects := msg.GetGenHeader(mail.HeaderSubject)
	require.NotEmpty(t, subjects)
	return subjects[0]
}

func alertUser() *domain.User {
	return &domain.User{
		ID:        "3e0a4f2b-0000-0000-0000-000000000001",
		FirstName: "Dana",
		LastName:  "Ellis",
		Email:     "dana@example.com",
		Role:      domain.RoleDefault,
		IsActive:  true,
	}
}

func TestNotificationWelcomeEmail(t *testing.T) {
	f := newNotificationFixture(t)
	user := alertUser()

	require.NoError(t, f.dispatcher.Publish(context.Background(), events.Event{
		Type:      events.EventUserRegistered,
		User:      user,
		Timestamp: time.Now(),
	}))

	msg := f.waitForEmail(t)
	assert.Equal(t, "Welcome to Starter Kit, Dana!", subjectOf(t, msg))
	assert.Equal(t, []string{"dana@example.com"}, msg.GetToString())
	assert.Equal(t, "emails/welcome", f.renderer.template)
}

func TestNotificationLoginAlert(t *testing.T) {
	f := newNotificationFixture(t)
	user := alertUser()
	when := time.Date(2026, 9, 1, 14, 30, 0, 0, time.UTC)

	require.NoError(t, f.dispatcher.Publish(context.Background(), events.Event{
		Type:      events.EventUserLoggedIn,
		User:      user,
		Timestamp: when,
		Payload:   events.LoginPayload{IPAddress: "203.0.113.7", UserAgent: "Mozilla/5.0"},
	}))

	msg := f.waitForEmail(t)
	assert.Equal(t, "New sign-in to your Starter Kit account", subjectOf(t, msg))
	assert.Equal(t, "emails/new_login_alert", f.renderer.template)

	binding := f.renderer.lastBinding()
	assert.Equal(t, "203.0.113.7", binding["ip_address"])
	assert.Equal(t, "Mozilla/5.0", binding["user_agent"])
	assert.Equal(t, when.Format(time.RFC1123), binding["time"])
	assert.Equal(t, "http://127.0.0.1:8080", binding["site_url"])
}

func TestNotificationAccountActivated(t *testing.T) {
	f := newNotificationFixture(t)

	require.NoError(t, f.dispatcher.Publish(context.Background(), events.Event{
		Type:      events.EventUserActivated,
		User:      alertUser(),
		Timestamp: time.Now(),
	}))

	msg := f.waitForEmail(t)
	assert.Equal(t, "Your account has been approved - Starter Kit", subjectOf(t, msg))
	assert.Equal(t, "emails/account_activated", f.renderer.template)
}

func TestNotificationPasswordChanged(t *testing.T) {
	f := newNotificationFixture(t)

	require.NoError(t, f.dispatcher.Publish(context.Background(), events.Event{
		Type:      events.EventPasswordChanged,
		User:      alertUser(),
		Timestamp: time.Now(),
		Payload:   events.PasswordChangedPayload{IPAddress: "198.51.100.4"},
	}))

	msg := f.waitForEmail(t)
	assert.Equal(t, "Your password was changed - Starter Kit", subjectOf(t, msg))
	assert.Equal(t, "emails/password_changed", f.renderer.template)
	assert.Equal(t, "198.51.100.4", f.renderer.lastBinding()["ip_address"])
}

package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/starter-kit/account-service/internal/events"
	"github.com/starter-kit/account-service/internal/notify"
)

// NotificationService turns account events into outbound emails. It is the
// conditional-trigger layer: handlers publish events after persisting, and
// every email leaves through the fire-and-forget dispatcher.
type NotificationService struct {
	dispatcher events.Dispatcher
	mailer     *notify.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, mailer *notify.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		mailer:     mailer,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserRegistered, n.handleUserRegistered)
	n.dispatcher.Subscribe(events.EventUserLoggedIn, n.handleUserLoggedIn)
	n.dispatcher.Subscribe(events.EventUserActivated, n.handleUserActivated)
	n.dispatcher.Subscribe(events.EventPasswordChanged, n.handlePasswordChanged)
}

func (n *NotificationService) handleUserRegistered(_ context.Context, event events.Event) error {
	n.logger.Info("UserRegistered", zap.String("email", event.User.Email))
	n.mailer.Dispatch(
		fmt.Sprintf("Welcome to Starter Kit, %s!", event.User.FirstName),
		"emails/welcome",
		map[string]any{"user": event.User},
		[]string{event.User.Email},
	)
	return nil
}

func (n *NotificationService) handleUserLoggedIn(_ context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.LoginPayload)
	n.logger.Info("UserLoggedIn", zap.String("email", event.User.Email), zap.String("ip", payload.IPAddress))
	n.mailer.Dispatch(
		"New sign-in to your Starter Kit account",
		"emails/new_login_alert",
		map[string]any{
			"user":       event.User,
			"ip_address": payload.IPAddress,
			"user_agent": payload.UserAgent,
			"time":       event.Timestamp.Format(time.RFC1123),
		},
		[]string{event.User.Email},
	)
	return nil
}

func (n *NotificationService) handleUserActivated(_ context.Context, event events.Event) error {
	n.logger.Info("UserActivated", zap.String("email", event.User.Email))
	n.mailer.Dispatch(
		"Your account has been approved - Starter Kit",
		"emails/account_activated",
		map[string]any{"user": event.User},
		[]string{event.User.Email},
	)
	return nil
}

func (n *NotificationService) handlePasswordChanged(_ context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.PasswordChangedPayload)
	n.logger.Info("PasswordChanged", zap.String("email", event.User.Email))
	n.mailer.Dispatch(
		"Your password was changed - Starter Kit",
		"emails/password_changed",
		map[string]any{
			"user":       event.User,
			"ip_address": payload.IPAddress,
		},
		[]string{event.User.Email},
	)
	return nil
}

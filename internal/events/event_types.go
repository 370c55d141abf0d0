package events

import (
	"time"

	"github.com/starter-kit/account-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered  EventType = "user_registered"
	EventUserLoggedIn    EventType = "user_logged_in"
	EventUserActivated   EventType = "user_activated"
	EventPasswordChanged EventType = "password_changed"
)

// Event represents a domain event emitted by services.
type Event struct {
	Type      EventType
	User      *domain.User
	Timestamp time.Time
	Payload   interface{}
}

// LoginPayload carries request origin details for sign-in alerts.
type LoginPayload struct {
	IPAddress string
	UserAgent string
}

// PasswordChangedPayload carries the origin of a password change.
type PasswordChangedPayload struct {
	IPAddress string
}

package auth

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/starter-kit/account-service/internal/domain"
	"github.com/starter-kit/account-service/internal/repository"
)

const (
	sessionKey   = "auth_session"
	principalKey = "auth_principal"
)

// SessionMiddleware loads the cookie session and resolves the logged-in
// principal. It never rejects a request itself; route gates decide access.
type SessionMiddleware struct {
	sessions *SessionManager
	users    repository.UserRepository
	logger   *zap.Logger
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(sessions *SessionManager, users repository.UserRepository, logger *zap.Logger) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions, users: users, logger: logger}
}

// Handle attaches session and principal to the request context and persists
// session changes after the handler chain runs.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	sess, err := m.sessions.Load(c.Context(), c.Cookies(m.sessions.CookieName()))
	if err != nil {
		return err
	}
	c.Locals(sessionKey, sess)

	if sess.Authenticated() {
		user, err := m.users.GetByID(c.Context(), sess.UserID)
		switch {
		case err == nil && user.IsActive && m.sessions.VerifyAuthHash(sess.AuthHash, user.PasswordHash):
			c.Locals(principalKey, user)
		case err == nil || errors.Is(err, pgx.ErrNoRows):
			// Deleted, deactivated, or password changed elsewhere.
			sess.Logout()
		default:
			return err
		}
	}

	handlerErr := c.Next()

	if err := m.sessions.Save(c.Context(), sess); err != nil {
		m.logger.Error("save session", zap.Error(err))
	}
	if sess.IsNew() || sess.Authenticated() {
		c.Cookie(&fiber.Cookie{
			Name:     m.sessions.CookieName(),
			Value:    sess.ID,
			Path:     "/",
			Expires:  time.Now().Add(m.sessions.TTL()),
			Secure:   m.sessions.CookieSecure(),
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	return handlerErr
}

// SessionFromContext retrieves the request session.
func SessionFromContext(c *fiber.Ctx) (*Session, bool) {
	sess, ok := c.Locals(sessionKey).(*Session)
	return sess, ok && sess != nil
}

// PrincipalFromContext retrieves the authenticated user, if any.
func PrincipalFromContext(c *fiber.Ctx) (*domain.User, bool) {
	user, ok := c.Locals(principalKey).(*domain.User)
	return user, ok && user != nil
}

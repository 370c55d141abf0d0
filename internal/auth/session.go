package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/starter-kit/account-service/internal/config"
)

// FlashMessage is a one-time notification stored in the session.
type FlashMessage struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// SessionManager orchestrates cookie based sessions backed by Redis.
type SessionManager struct {
	client     *redis.Client
	cookieName string
	ttl        time.Duration
	secure     bool
	secret     []byte
}

// Session holds per-request session data. The auth hash binds the login to
// the password hash it was established with, so stale sessions die when the
// password changes elsewhere.
type Session struct {
	ID        string
	UserID    string
	AuthHash  string
	flashes   []FlashMessage
	isNew     bool
	dirty     bool
	destroyed bool
}

type sessionPayload struct {
	UserID   string         `json:"user_id"`
	AuthHash string         `json:"auth_hash"`
	Flashes  []FlashMessage `json:"flashes"`
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, cfg config.SessionConfig) *SessionManager {
	return &SessionManager{
		client:     client,
		cookieName: cfg.CookieName,
		ttl:        cfg.SessionTTL(),
		secure:     cfg.Secure,
		secret:     []byte(cfg.Secret),
	}
}

// CookieName returns the configured session cookie name.
func (sm *SessionManager) CookieName() string {
	return sm.cookieName
}

// CookieSecure reports whether the session cookie requires HTTPS.
func (sm *SessionManager) CookieSecure() bool {
	return sm.secure
}

// TTL returns the session lifetime.
func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

// Load fetches the session for a cookie value, or creates a fresh one when
// the cookie is empty or the stored payload expired.
func (sm *SessionManager) Load(ctx context.Context, cookieValue string) (*Session, error) {
	if cookieValue == "" {
		return sm.newSession(), nil
	}

	payload, err := sm.client.Get(ctx, sm.redisKey(cookieValue)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return sm.newSession(), nil
		}
		return nil, err
	}

	var data sessionPayload
	if err := json.Unmarshal(payload, &data); err != nil {
		return sm.newSession(), nil
	}

	return &Session{
		ID:       cookieValue,
		UserID:   data.UserID,
		AuthHash: data.AuthHash,
		flashes:  data.Flashes,
	}, nil
}

// Save persists the session when it changed, refreshing its TTL.
func (sm *SessionManager) Save(ctx context.Context, sess *Session) error {
	if sess == nil {
		return nil
	}
	if sess.destroyed {
		return sm.client.Del(ctx, sm.redisKey(sess.ID)).Err()
	}
	if !sess.dirty {
		return nil
	}

	payload, err := json.Marshal(sessionPayload{
		UserID:   sess.UserID,
		AuthHash: sess.AuthHash,
		Flashes:  sess.flashes,
	})
	if err != nil {
		return err
	}

	if err := sm.client.Set(ctx, sm.redisKey(sess.ID), payload, sm.ttl).Err(); err != nil {
		return err
	}
	sess.dirty = false
	return nil
}

// AuthHash derives the session binding value for a password hash.
func (sm *SessionManager) AuthHash(passwordHash string) string {
	mac := hmac.New(sha256.New, sm.secret)
	mac.Write([]byte(passwordHash))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyAuthHash reports whether a stored session hash still matches the
// user's current password hash.
func (sm *SessionManager) VerifyAuthHash(sessionHash, passwordHash string) bool {
	return hmac.Equal([]byte(sessionHash), []byte(sm.AuthHash(passwordHash)))
}

func (sm *SessionManager) newSession() *Session {
	return &Session{
		ID:    uuid.NewString(),
		isNew: true,
	}
}

func (sm *SessionManager) redisKey(id string) string {
	return "session:" + id
}

// IsNew reports whether the session was created during this request.
func (s *Session) IsNew() bool {
	return s.isNew
}

// Authenticated reports whether the session carries a login.
func (s *Session) Authenticated() bool {
	return s.UserID != ""
}

// Login binds the session to a user and the auth hash for their password.
func (s *Session) Login(userID, authHash string) {
	s.UserID = userID
	s.AuthHash = authHash
	s.dirty = true
}

// RefreshAuthHash updates the binding in place so the current session stays
// valid after a password change, without forcing re-login.
func (s *Session) RefreshAuthHash(authHash string) {
	s.AuthHash = authHash
	s.dirty = true
}

// Logout clears the login but keeps the session (and its flashes) alive.
func (s *Session) Logout() {
	s.UserID = ""
	s.AuthHash = ""
	s.dirty = true
}

// Destroy marks the session for deletion.
func (s *Session) Destroy() {
	s.destroyed = true
	s.dirty = true
}

// Flash queues a one-time message for the next rendered page.
func (s *Session) Flash(kind, message string) {
	s.flashes = append(s.flashes, FlashMessage{Kind: kind, Message: message})
	s.dirty = true
}

// ConsumeFlashes returns queued messages and clears them.
func (s *Session) ConsumeFlashes() []FlashMessage {
	if len(s.flashes) == 0 {
		return nil
	}
	flashes := s.flashes
	s.flashes = nil
	s.dirty = true
	return flashes
}

package auth

import (
	"context"
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const resetPurpose = "password_reset"

// ErrResetTokenInvalid covers expired, malformed and already-used tokens.
var ErrResetTokenInvalid = errors.New("reset token invalid or expired")

// ResetTokenManager mints and redeems single-use password reset tokens.
// Tokens are signed HS256 claims; redemption leaves a tombstone in Redis so
// each token works exactly once.
type ResetTokenManager struct {
	secret []byte
	ttl    time.Duration
	client *redis.Client
}

// NewResetTokenManager builds a new manager.
func NewResetTokenManager(secret string, ttl time.Duration, client *redis.Client) *ResetTokenManager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &ResetTokenManager{secret: []byte(secret), ttl: ttl, client: client}
}

type resetClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// GenerateToken signs a reset token for the user.
func (tm *ResetTokenManager) GenerateToken(userID string) (string, error) {
	now := time.Now()
	claims := &resetClaims{
		Purpose: resetPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// Redeem validates a token and marks it used. Returns the user id the token
// was minted for.
func (tm *ResetTokenManager) Redeem(ctx context.Context, tokenStr string) (string, error) {
	claims, err := tm.parse(tokenStr)
	if err != nil {
		return "", ErrResetTokenInvalid
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 {
		return "", ErrResetTokenInvalid
	}

	ok, err := tm.client.SetNX(ctx, "pwreset:used:"+claims.ID, "1", remaining).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrResetTokenInvalid
	}
	return claims.Subject, nil
}

// Verify checks a token without consuming it, for the GET confirm page.
func (tm *ResetTokenManager) Verify(ctx context.Context, tokenStr string) (string, error) {
	claims, err := tm.parse(tokenStr)
	if err != nil {
		return "", ErrResetTokenInvalid
	}
	used, err := tm.client.Exists(ctx, "pwreset:used:"+claims.ID).Result()
	if err != nil {
		return "", err
	}
	if used > 0 {
		return "", ErrResetTokenInvalid
	}
	return claims.Subject, nil
}

func (tm *ResetTokenManager) parse(tokenStr string) (*resetClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &resetClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*resetClaims)
	if !ok || !parsed.Valid || claims.Purpose != resetPurpose || claims.ExpiresAt == nil {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

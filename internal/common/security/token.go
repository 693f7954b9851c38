package security

import (
	"strconv"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"

	"restaurant_menu/internal/common"
)

// SessionTTL is the fixed validity window of a session token. Tokens are never renewed.
const SessionTTL = 30 * 24 * time.Hour

// TokenIssuer mints and verifies HS256 session tokens bound to a user id.
// A zero-length secret yields an issuer that fails every call with common.ErrMissingSecret.
type TokenIssuer struct {
	auth   *jwtauth.JWTAuth
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret []byte) *TokenIssuer {
	t := &TokenIssuer{secret: secret, ttl: SessionTTL, now: time.Now}
	if len(secret) > 0 {
		t.auth = jwtauth.New("HS256", secret, nil)
	}
	return t
}

// WithClock replaces the time source used for iat/exp and for expiry checks.
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	t.now = now
	return t
}

// Configured reports whether a signing secret is present.
func (t *TokenIssuer) Configured() bool {
	return t.auth != nil
}

func (t *TokenIssuer) Issue(userID int64) (string, error) {
	if !t.Configured() {
		return "", common.ErrMissingSecret
	}
	issuedAt := t.now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(userID, 10),
		"iat": issuedAt.Unix(),
		"exp": issuedAt.Add(t.ttl).Unix(),
	}
	_, tokenString, err := t.auth.Encode(claims)
	if err != nil {
		return "", common.Errorf("encode session token: %w", err)
	}
	return tokenString, nil
}

// Verify returns the user id embedded in tokenString. Malformed, forged, expired and
// subject-less tokens all fail with common.ErrInvalidToken.
func (t *TokenIssuer) Verify(tokenString string) (int64, error) {
	if !t.Configured() {
		return 0, common.ErrMissingSecret
	}
	if tokenString == "" {
		return 0, common.ErrInvalidToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(t.now),
	)
	claims := &jwt.RegisteredClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, common.ErrInvalidToken
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, common.ErrInvalidToken
	}
	return userID, nil
}

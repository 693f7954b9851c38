package security

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant_menu/internal/common"
)

var testSecret = []byte("test-secret")

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer(testSecret)

	tok, err := issuer.Issue(42)
	require.NoError(t, err)

	id, err := issuer.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestTokenIssuer_ThirtyDayWindow(t *testing.T) {
	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewTokenIssuer(testSecret).WithClock(fixedClock(issuedAt))

	tok, err := issuer.Issue(7)
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(tok, claims)
	require.NoError(t, err)
	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	assert.Equal(t, issuedAt.Add(30*24*time.Hour).Unix(), exp.Unix())
	assert.Equal(t, "7", claims["sub"])
}

func TestTokenIssuer_ExpiryBoundary(t *testing.T) {
	issuedAt := time.Date(2026, 3, 10, 8, 30, 0, 0, time.UTC)
	tok, err := NewTokenIssuer(testSecret).WithClock(fixedClock(issuedAt)).Issue(3)
	require.NoError(t, err)

	expiry := issuedAt.Add(SessionTTL)

	_, err = NewTokenIssuer(testSecret).WithClock(fixedClock(expiry)).Verify(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken, "token at its expiry instant must fail")

	id, err := NewTokenIssuer(testSecret).WithClock(fixedClock(expiry.Add(-time.Second))).Verify(tok)
	require.NoError(t, err, "token one second before expiry must verify")
	assert.Equal(t, int64(3), id)
}

func TestTokenIssuer_AnyMutatedByteFails(t *testing.T) {
	issuer := NewTokenIssuer(testSecret)
	tok, err := issuer.Issue(99)
	require.NoError(t, err)

	for i := 0; i < len(tok); i++ {
		replacement := byte('A')
		if tok[i] == 'A' {
			replacement = 'B'
		}
		mutated := tok[:i] + string(replacement) + tok[i+1:]

		_, err := issuer.Verify(mutated)
		assert.ErrorIsf(t, err, common.ErrInvalidToken, "mutation at byte %d accepted", i)
	}
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	tok, err := NewTokenIssuer([]byte("right-secret")).Issue(1)
	require.NoError(t, err)

	_, err = NewTokenIssuer([]byte("wrong-secret")).Verify(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestTokenIssuer_MalformedAndEmpty(t *testing.T) {
	issuer := NewTokenIssuer(testSecret)

	for _, tok := range []string{"", "not.a.jwt", "abc", strings.Repeat("x", 64)} {
		_, err := issuer.Verify(tok)
		assert.ErrorIs(t, err, common.ErrInvalidToken, "token %q", tok)
	}
}

func TestTokenIssuer_RejectsOtherAlgorithms(t *testing.T) {
	claims := jwt.MapClaims{"sub": "5", "exp": time.Now().Add(time.Hour).Unix()}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(testSecret)
	require.NoError(t, err)

	_, err = NewTokenIssuer(testSecret).Verify(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestTokenIssuer_RequiresExpiryAndNumericSubject(t *testing.T) {
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "5"}).SignedString(testSecret)
	require.NoError(t, err)
	_, err = NewTokenIssuer(testSecret).Verify(noExp)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	badSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(testSecret)
	require.NoError(t, err)
	_, err = NewTokenIssuer(testSecret).Verify(badSub)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestTokenIssuer_MissingSecret(t *testing.T) {
	issuer := NewTokenIssuer(nil)
	assert.False(t, issuer.Configured())

	_, err := issuer.Issue(1)
	assert.ErrorIs(t, err, common.ErrMissingSecret)

	_, err = issuer.Verify("anything")
	assert.ErrorIs(t, err, common.ErrMissingSecret)
}

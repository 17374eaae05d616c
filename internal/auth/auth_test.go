package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)
	password := "correct horse battery staple"

	hash, err := HashPassword(password)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword(password, hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("wrong password", hash)
	req.NoError(err)
	req.False(match)

	other, err := HashPassword(password)
	req.NoError(err)
	req.NotEqual(hash, other)
}

func TestComparePassword_RejectsMalformedHash(t *testing.T) {
	for _, h := range []string{"", "plain", "$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA", "$argon2id$v=19$m=x$salt$hash", "$argon2id$v=19$m=1,t=1,p=1$!!$hash"} {
		_, err := ComparePassword("pw", h)
		require.ErrorIs(t, err, ErrInvalidHash, h)
	}
}

func TestIssuer_RoundTrip(t *testing.T) {
	req := require.New(t)
	iss := NewIssuer("secret", time.Hour)

	tok, err := iss.Generate("u1", "admin")
	req.NoError(err)

	claims, err := iss.Validate(tok)
	req.NoError(err)
	req.Equal("u1", claims.UserID)
	req.Equal("admin", claims.Role)
}

func TestIssuer_Rejects(t *testing.T) {
	req := require.New(t)
	iss := NewIssuer("secret", time.Hour)
	tok, err := iss.Generate("u1", "user")
	req.NoError(err)

	_, err = NewIssuer("other", time.Hour).Validate(tok)
	req.ErrorIs(err, ErrInvalidToken)

	_, err = iss.Validate(tok + "x")
	req.ErrorIs(err, ErrInvalidToken)

	_, err = iss.Validate("")
	req.ErrorIs(err, ErrInvalidToken)

	expired := NewIssuer("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Generate("u1", "user")
	req.NoError(err)
	_, err = iss.Validate(old)
	req.ErrorIs(err, ErrInvalidToken)
	req.ErrorIs(err, jwt.ErrTokenExpired)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "u1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	req.NoError(err)
	_, err = iss.Validate(unsigned)
	req.ErrorIs(err, ErrInvalidToken)
}

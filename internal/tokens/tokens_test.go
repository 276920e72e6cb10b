package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestIssueParse(t *testing.T) {
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	m := NewManager(secret).WithClock(func() time.Time { return fixed })

	raw, exp, err := m.Issue("user-1")
	require.NoError(t, err)
	assert.Equal(t, fixed.Add(30*time.Minute), exp)

	claims, err := m.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, exp.Unix(), claims.ExpiresAt.Unix())
	assert.Equal(t, fixed.Unix(), claims.IssuedAt.Unix())
}

func TestParse_Expired(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	raw, _, err := NewManager(secret).WithClock(func() time.Time { return past }).Issue("user-1")
	require.NoError(t, err)

	_, err = NewManager(secret).Parse(raw)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParse_StillValidJustBeforeExpiry(t *testing.T) {
	issued := time.Now()
	raw, _, err := NewManager(secret).WithClock(func() time.Time { return issued }).Issue("user-1")
	require.NoError(t, err)

	later := NewManager(secret).WithClock(func() time.Time { return issued.Add(29 * time.Minute) })
	_, err = later.Parse(raw)
	require.NoError(t, err)
}

func TestParse_WrongSecret(t *testing.T) {
	raw, _, err := NewManager([]byte("other")).Issue("user-1")
	require.NoError(t, err)

	_, err = NewManager(secret).Parse(raw)
	require.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestParse_WrongAlgorithm(t *testing.T) {
	claims := AccessClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(secret)
	require.NoError(t, err)

	_, err = NewManager(secret).Parse(raw)
	require.Error(t, err)
}

func TestParse_NoneAlgorithm(t *testing.T) {
	claims := AccessClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewManager(secret).Parse(raw)
	require.Error(t, err)
}

func TestParse_EmptySubject(t *testing.T) {
	raw, _, err := NewManager(secret).Issue("")
	require.NoError(t, err)

	_, err = NewManager(secret).Parse(raw)
	require.ErrorIs(t, err, jwt.ErrTokenInvalidSubject)
}

func TestParse_Malformed(t *testing.T) {
	_, err := NewManager(secret).Parse("not.a.jwt")
	require.ErrorIs(t, err, jwt.ErrTokenMalformed)
}

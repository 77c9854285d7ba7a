package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, cfg *JWTConfig) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(cfg)
	require.NoError(t, err)
	return m
}

func TestNewJWTManager(t *testing.T) {
	_, err := NewJWTManager(&JWTConfig{})
	assert.ErrorIs(t, err, ErrSecretKeyEmpty)

	_, err = NewJWTManager(&JWTConfig{SecretKey: "k", Algorithm: "RS256"})
	assert.ErrorIs(t, err, ErrAlgorithmInvalid)

	_, err = NewJWTManager(&JWTConfig{SecretKey: "k", Algorithm: "hs512"})
	assert.NoError(t, err)
}

func TestGenerateAndValidate(t *testing.T) {
	m := newManager(t, &JWTConfig{SecretKey: "secret", Issuer: "playground"})

	token, err := m.GenerateToken(&Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "p1"},
		Payload: map[string]any{
			"uid":     "p1",
			"profile": map[string]any{"alias": "Ann", "level": 7},
		},
	})
	require.NoError(t, err)

	claims, err := m.ValidateToken("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "p1", claims.Subject)
	assert.Equal(t, "playground", claims.Issuer)
	assert.Equal(t, "p1", claims.GetString("uid"))
	assert.Equal(t, "Ann", claims.GetString("profile.alias"))
	assert.Nil(t, claims.Get("profile.missing"))
	assert.Empty(t, claims.GetString("uid.nested"))

	var profile struct {
		Alias string
		Level int
	}
	require.NoError(t, claims.UnmarshalKey("profile", &profile))
	assert.Equal(t, "Ann", profile.Alias)
	assert.Equal(t, 7, profile.Level)
}

func TestValidateTokenErrors(t *testing.T) {
	m := newManager(t, &JWTConfig{SecretKey: "secret"})
	other := newManager(t, &JWTConfig{SecretKey: "other"})

	expired, err := m.GenerateToken(&Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
	})
	require.NoError(t, err)

	foreign, err := other.GenerateToken(&Claims{})
	require.NoError(t, err)

	hs512 := newManager(t, &JWTConfig{SecretKey: "secret", Algorithm: "HS512"})
	wrongAlg, err := hs512.GenerateToken(&Claims{})
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrTokenMissing},
		{"prefix only", "Bearer ", ErrTokenMissing},
		{"malformed", "not-a-jwt", ErrTokenMalformed},
		{"expired", expired, ErrTokenExpired},
		{"foreign signature", foreign, ErrSignatureInvalid},
		{"algorithm mismatch", wrongAlg, ErrAlgorithmMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.ValidateToken(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateTokenIssuer(t *testing.T) {
	issuer := newManager(t, &JWTConfig{SecretKey: "secret", Issuer: "a"})
	token, err := newManager(t, &JWTConfig{SecretKey: "secret", Issuer: "b"}).GenerateToken(&Claims{})
	require.NoError(t, err)

	_, err = issuer.ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

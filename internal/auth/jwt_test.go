package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestGenerateAndParse(t *testing.T) {
	tok, err := GenerateToken("u1", secret, time.Hour)
	require.NoError(t, err)

	uid, err := UserIDFromToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "u1", uid)

	sub, err := SubjectFromToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", sub)
}

func TestUserIDFromToken_Rejects(t *testing.T) {
	expired, err := GenerateToken("u1", secret, -time.Minute)
	require.NoError(t, err)
	valid, err := GenerateToken("u1", secret, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret []byte
	}{
		{"expired", expired, secret},
		{"wrong secret", valid, []byte("other")},
		{"garbage", "not.a.token", secret},
		{"empty", "", secret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UserIDFromToken(tt.token, tt.secret)
			assert.Error(t, err)
		})
	}
}

func TestGenerateToken_EmptyUser(t *testing.T) {
	_, err := GenerateToken("", secret, time.Hour)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestFromToken(t *testing.T) {
	tok, err := GenerateToken("u9", secret, time.Hour)
	require.NoError(t, err)

	s, err := FromToken(tok)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "u9", SignedIn: true}, s.Current())

	_, err = FromToken("garbage")
	assert.Error(t, err)
}

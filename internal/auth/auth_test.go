package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Kzkhanhacg547/FRC/internal/models"
)

func newTestGate(t *testing.T) *Gate {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	return New("admin", hash, []byte("test-signing-key"))
}

func TestLoginAndAuthenticate(t *testing.T) {
	g := newTestGate(t)
	token, id, err := g.Login("admin", "secret")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, "admin", id.Username)
	assert.Equal(t, "admin", id.Role)

	got, err := g.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	g := newTestGate(t)
	_, _, err := g.Login("admin", "wrong")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	_, _, err = g.Login("someone", "secret")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	var ve *models.ValidationError
	_, _, err = g.Login("", "")
	assert.ErrorAs(t, err, &ve)
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	g := newTestGate(t)
	_, err := g.Authenticate("not.a.token")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAuthenticateRejectsExpired(t *testing.T) {
	g := newTestGate(t)
	g.ttl = -time.Minute
	token, _, err := g.Login("admin", "secret")
	require.NoError(t, err)
	_, err = g.Authenticate(token)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAuthenticateRejectsForeignSignature(t *testing.T) {
	g := newTestGate(t)
	other := newTestGate(t)
	other.secret = []byte("different-key")
	token, _, err := other.Login("admin", "secret")
	require.NoError(t, err)
	_, err = g.Authenticate(token)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

package usecase

import (
	"testing"
	"time"

	"notification-agent/internal/domain/entity"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport implementa RealtimeTransport registrando las llamadas
type fakeTransport struct {
	openCalls  int
	closeCalls int
	userID     string
	token      string
	authorized func() bool
	openErr    error
	state      entity.ConnectionState
}

func (t *fakeTransport) Open(userID, token string, authorized func() bool) error {
	t.openCalls++
	t.userID = userID
	t.token = token
	t.authorized = authorized
	return t.openErr
}

func (t *fakeTransport) Close() error {
	t.closeCalls++
	return nil
}

func (t *fakeTransport) State() entity.ConnectionState {
	if t.state == "" {
		return entity.StateDisconnected
	}
	return t.state
}

func (t *fakeTransport) Attempts() int { return 0 }

func signedToken(t *testing.T, expiresAt time.Time) string {
	claims := jwt.RegisteredClaims{
		Subject:   "u-1",
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestSessionStartOpensTransport(t *testing.T) {
	transport := &fakeTransport{}
	session := NewSessionService(transport, nil)

	token := signedToken(t, time.Now().Add(time.Hour))
	require.NoError(t, session.Start("u-1", token))

	assert.Equal(t, 1, transport.openCalls)
	assert.Equal(t, "u-1", transport.userID)
	assert.Equal(t, token, transport.token)
	assert.Equal(t, "u-1", session.UserID())
	assert.True(t, session.Authenticated())
}

func TestSessionStartRejectsMissingCredentials(t *testing.T) {
	transport := &fakeTransport{}
	session := NewSessionService(transport, nil)

	assert.ErrorIs(t, session.Start("", "token"), ErrNotAuthenticated)
	assert.ErrorIs(t, session.Start("u-1", ""), ErrNotAuthenticated)
	assert.Equal(t, 0, transport.openCalls)
}

func TestSessionStartRejectsExpiredToken(t *testing.T) {
	transport := &fakeTransport{}
	session := NewSessionService(transport, nil)

	token := signedToken(t, time.Now().Add(-time.Minute))
	assert.ErrorIs(t, session.Start("u-1", token), ErrTokenExpired)
	assert.Equal(t, 0, transport.openCalls)
	assert.False(t, session.Authenticated())
}

func TestSessionAcceptsOpaqueToken(t *testing.T) {
	transport := &fakeTransport{}
	session := NewSessionService(transport, nil)

	require.NoError(t, session.Start("u-1", "opaque-session-token"))
	assert.True(t, session.Authenticated())
}

func TestSessionAuthorizedCallbackTracksExpiry(t *testing.T) {
	transport := &fakeTransport{}
	session := NewSessionService(transport, nil)

	token := signedToken(t, time.Now().Add(80*time.Millisecond))
	require.NoError(t, session.Start("u-1", token))
	require.NotNil(t, transport.authorized)

	assert.True(t, transport.authorized())
	time.Sleep(120 * time.Millisecond)
	assert.False(t, transport.authorized())
}

func TestSessionCloseClearsCredentials(t *testing.T) {
	transport := &fakeTransport{}
	session := NewSessionService(transport, nil)

	require.NoError(t, session.Start("u-1", signedToken(t, time.Now().Add(time.Hour))))
	require.NoError(t, session.Close())

	assert.Equal(t, 1, transport.closeCalls)
	assert.False(t, session.Authenticated())
	assert.Empty(t, session.UserID())
}

func TestSessionRestartReopensTransport(t *testing.T) {
	transport := &fakeTransport{}
	session := NewSessionService(transport, nil)

	require.NoError(t, session.Start("u-1", signedToken(t, time.Now().Add(time.Hour))))
	require.NoError(t, session.Start("u-1", signedToken(t, time.Now().Add(2*time.Hour))))

	assert.Equal(t, 2, transport.openCalls)
	assert.True(t, session.Authenticated())
}

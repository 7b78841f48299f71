package session

import (
	"path/filepath"
	"testing"
	"time"

	"platefeed/internal/auth"
	"platefeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issueToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	// The client never checks signatures, so any secret works here.
	svc, err := auth.NewService("client-side-does-not-verify", ttl)
	require.NoError(t, err)
	token, err := svc.Issue(auth.Identity{UserID: 3, Email: "ana@x.com", Name: "Ana"})
	require.NoError(t, err)
	return token
}

func newFileManager(t *testing.T) (*Manager, *FileStore) {
	t.Helper()
	store := NewFileStore(filepath.Join(t.TempDir(), "credentials.json"))
	return NewManager(store), store
}

func TestRestoreWithoutCredential(t *testing.T) {
	m, _ := newFileManager(t)
	assert.Equal(t, Unauthenticated, m.Restore())
	assert.Equal(t, Unauthenticated, m.State())
}

func TestRestoreWithLiveCredential(t *testing.T) {
	m, store := newFileManager(t)
	token := issueToken(t, 9*time.Hour)
	require.NoError(t, store.Save(&Credential{Token: token, User: models.PublicUser{ID: 3, Name: "Ana"}}))

	assert.Equal(t, Authenticated, m.Restore())

	id, ok := m.Identity()
	require.True(t, ok)
	assert.Equal(t, uint(3), id.UserID)
	assert.Equal(t, "ana@x.com", id.Email)

	got, ok := m.Token()
	require.True(t, ok)
	assert.Equal(t, token, got)
}

func TestRestoreWithExpiredCredentialPurges(t *testing.T) {
	m, store := newFileManager(t)
	token := issueToken(t, time.Nanosecond)
	require.NoError(t, store.Save(&Credential{Token: token}))
	time.Sleep(10 * time.Millisecond)

	// A credential that expired before startup never reaches Expired; the
	// user simply starts logged out, with the stale file gone.
	assert.Equal(t, Unauthenticated, m.Restore())

	cred, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestRestoreWithGarbageTokenPurges(t *testing.T) {
	m, store := newFileManager(t)
	require.NoError(t, store.Save(&Credential{Token: "not.a.jwt"}))

	assert.Equal(t, Unauthenticated, m.Restore())

	cred, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestAdoptPersistsAcrossRestart(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "credentials.json"))
	token := issueToken(t, 9*time.Hour)

	first := NewManager(store)
	require.NoError(t, first.Adopt(token, models.PublicUser{ID: 3, Name: "Ana", Email: "ana@x.com"}))
	assert.Equal(t, Authenticated, first.State())

	// A fresh manager over the same store restores straight to Authenticated.
	second := NewManager(store)
	assert.Equal(t, Authenticated, second.Restore())
}

func TestLogoutClearsStore(t *testing.T) {
	m, store := newFileManager(t)
	require.NoError(t, m.Adopt(issueToken(t, 9*time.Hour), models.PublicUser{ID: 3}))

	require.NoError(t, m.Logout())
	assert.Equal(t, Unauthenticated, m.State())

	cred, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestHandleUnauthorizedExpiresSession(t *testing.T) {
	m, store := newFileManager(t)
	require.NoError(t, m.Adopt(issueToken(t, 9*time.Hour), models.PublicUser{ID: 3}))

	m.HandleUnauthorized()
	assert.Equal(t, Expired, m.State())

	_, ok := m.Token()
	assert.False(t, ok)

	cred, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestTokenExpiresLazilyWhileOpen(t *testing.T) {
	m, store := newFileManager(t)
	require.NoError(t, m.Adopt(issueToken(t, time.Hour), models.PublicUser{ID: 3}))

	// Move the clock past the expiry without restarting.
	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, ok := m.Token()
	assert.False(t, ok)
	assert.Equal(t, Expired, m.State())

	cred, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, cred)
}

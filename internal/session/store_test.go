package session_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gidipin/authcore/internal/session"
)

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := session.NewFileStore(path)

	saved := &session.Session{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(time.Hour).UTC().Truncate(time.Second),
		UserID:       "user-1",
	}
	require.NoError(t, store.Save(saved))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, saved, loaded)

	require.NoError(t, store.Clear())
	loaded, err = store.Load()
	require.NoError(t, err)
	require.Nil(t, loaded)
}

func TestFileStore_MissingFileReadsAsNoSession(t *testing.T) {
	store := session.NewFileStore(filepath.Join(t.TempDir(), "absent.json"))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Nil(t, loaded)

	// Clearing an absent blob is fine too.
	require.NoError(t, store.Clear())
}

func TestFileStore_CorruptBlobReadsAsNoSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store := session.NewFileStore(path)
	loaded, err := store.Load()
	require.NoError(t, err)
	require.Nil(t, loaded)
}

func TestFileStore_IncompleteBlobReadsAsNoSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"accessToken":"only-half"}`), 0o600))

	store := session.NewFileStore(path)
	loaded, err := store.Load()
	require.NoError(t, err)
	require.Nil(t, loaded)
}

func TestMemStore_CopiesOnLoad(t *testing.T) {
	store := session.NewMemStore()
	require.NoError(t, store.Save(&session.Session{AccessToken: "a", RefreshToken: "r"}))

	first, err := store.Load()
	require.NoError(t, err)
	first.AccessToken = "mutated"

	second, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, "a", second.AccessToken)
}

package auth_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/2beens/fitstats/pkg/googlefit/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/oauth2"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestFileTokenStore_NoFile(t *testing.T) {
	store := auth.NewFileTokenStore(filepath.Join(t.TempDir(), ".google_fit_credentials"))
	token, err := store.Load()
	assert.ErrorIs(t, err, auth.ErrNoToken)
	assert.Nil(t, token)
}

func TestFileTokenStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ".google_fit_credentials")
	store := auth.NewFileTokenStore(path)
	assert.Equal(t, path, store.Path())

	expiry := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(&oauth2.Token{
		AccessToken:  "access",
		TokenType:    "Bearer",
		RefreshToken: "refresh",
		Expiry:       expiry,
	}))

	stat, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), stat.Mode().Perm())

	token, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "access", token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, "refresh", token.RefreshToken)
	assert.True(t, expiry.Equal(token.Expiry))
}

func TestFileTokenStore_Invalid(t *testing.T) {
	dir := t.TempDir()

	garbage := filepath.Join(dir, "garbage")
	require.NoError(t, os.WriteFile(garbage, []byte("not json"), 0o600))
	_, err := auth.NewFileTokenStore(garbage).Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrNoToken)

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(empty, []byte("{}"), 0o600))
	_, err = auth.NewFileTokenStore(empty).Load()
	assert.ErrorIs(t, err, auth.ErrNoToken)

	// a directory where the file should be
	_, err = auth.NewFileTokenStore(dir).Load()
	require.Error(t, err)

	assert.Error(t, auth.NewFileTokenStore(filepath.Join(dir, "nil")).Save(nil))
}

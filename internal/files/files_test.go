package files

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrylevesque/taskboard/internal/models"
)

func TestSessionKeyRoundTrip(t *testing.T) {
	t.Setenv(SessionKeyEnv, "")
	path := filepath.Join(t.TempDir(), "keys", "session.key")
	key := bytes.Repeat([]byte{7}, 32)

	require.NoError(t, WriteSessionKey(path, key))
	assert.ErrorIs(t, WriteSessionKey(path, key), ErrKeyExists)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err := ReadSessionKey(path)
	require.NoError(t, err)
	assert.Equal(t, key, got)
}

func TestSessionKeyFromEnv(t *testing.T) {
	key := bytes.Repeat([]byte{9}, 32)
	t.Setenv(SessionKeyEnv, hex.EncodeToString(key))

	got, err := ReadSessionKey(filepath.Join(t.TempDir(), "missing.key"))
	require.NoError(t, err)
	assert.Equal(t, key, got)
}

func TestSessionKeyErrors(t *testing.T) {
	t.Setenv(SessionKeyEnv, "")
	_, err := ReadSessionKey(filepath.Join(t.TempDir(), "missing.key"))
	assert.Error(t, err)

	t.Setenv(SessionKeyEnv, "abcd")
	_, err = ReadSessionKey("")
	assert.ErrorContains(t, err, "32 bytes")

	t.Setenv(SessionKeyEnv, "zz")
	_, err = ReadSessionKey("")
	assert.ErrorContains(t, err, "hex")
}

func TestProfileStore(t *testing.T) {
	dir := t.TempDir()
	s := NewProfileStore("", dir)
	assert.Equal(t, filepath.Join(dir, "profile.json"), s.Path())

	_, err := s.Load()
	assert.ErrorIs(t, err, ErrNotFound)

	want := models.CachedProfile{Job: "Engineer", Status: "None", MotivationalQuote: "Onward"}
	require.NoError(t, s.Save(want))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear())
	_, err = s.Load()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProfileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))
	_, err := NewProfileStore(path, "").Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestSessionStore(t *testing.T) {
	s := NewSessionStore(t.TempDir())
	want := SavedSession{Server: "http://localhost:3000", Email: "a@b.c", Cookie: "taskboard=abc"}
	require.NoError(t, s.Save(want))
	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
	require.NoError(t, s.Clear())
}

package prefs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/st-keller/inspection/errors"
	"github.com/st-keller/inspection/prefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore checks the semantics every Store shares.
func exerciseStore(t *testing.T, s prefs.Store) {
	t.Helper()

	_, ok := s.Expanded("General")
	assert.False(t, ok)

	require.NoError(t, s.RegisterDefaults(map[string]bool{"General": true, "States": false}))
	v, ok := s.Expanded("General")
	assert.True(t, ok)
	assert.True(t, v)

	require.NoError(t, s.SetExpanded("General", false))
	v, ok = s.Expanded("General")
	assert.True(t, ok)
	assert.False(t, v)

	// Registering defaults again never overrides a user value.
	require.NoError(t, s.RegisterDefaults(map[string]bool{"General": true, "Layout": true}))
	v, _ = s.Expanded("General")
	assert.False(t, v)

	all, err := s.All()
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"General": false, "States": false, "Layout": true}, all)
}

func TestMemoryStore(t *testing.T) {
	s := prefs.NewMemoryStore()
	defer s.Close()
	exerciseStore(t, s)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.yaml")
	s, err := prefs.OpenFile(path)
	require.NoError(t, err)
	exerciseStore(t, s)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "General: false")
	assert.NotContains(t, string(data), "Layout")

	reopened, err := prefs.OpenFile(path)
	require.NoError(t, err)
	v, ok := reopened.Expanded("General")
	assert.True(t, ok)
	assert.False(t, v)
	_, ok = reopened.Expanded("Layout")
	assert.False(t, ok)
}

func TestFileStoreTitlesWithDots(t *testing.T) {
	s, err := prefs.OpenFile(filepath.Join(t.TempDir(), "prefs.yaml"))
	require.NoError(t, err)

	require.NoError(t, s.SetExpanded("v1.2 Details", true))
	v, ok := s.Expanded("v1.2 Details")
	assert.True(t, ok)
	assert.True(t, v)
}

func TestFileStoreErrors(t *testing.T) {
	_, err := prefs.OpenFile("")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("expanded: [unclosed"), 0o644))
	_, err = prefs.OpenFile(path)
	assert.True(t, errors.IsErrorCode(err, errors.ErrPrefsRead))
}

func TestSQLiteStore(t *testing.T) {
	s, err := prefs.OpenSQLite(":memory:")
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestSQLiteStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")
	s, err := prefs.OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.SetExpanded("States", true))
	require.NoError(t, s.Close())

	reopened, err := prefs.OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()
	v, ok := reopened.Expanded("States")
	assert.True(t, ok)
	assert.True(t, v)
}

func TestDefaultExpansion(t *testing.T) {
	defaults := prefs.DefaultExpansion()
	assert.Equal(t, true, defaults["General"])
	assert.Equal(t, false, defaults["States"])
	assert.Equal(t, []string{"Appearance", "General", "Layout", "Preview", "States"}, prefs.Titles(defaults))
}

package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inspection "github.com/st-keller/inspection"
	"github.com/st-keller/inspection/config"
	"github.com/st-keller/inspection/errors"
	"github.com/st-keller/inspection/prefs"
	"github.com/st-keller/inspection/snapshot"
	"github.com/st-keller/inspection/standard"
	"github.com/st-keller/inspection/transport"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func useMemoryPrefs(t *testing.T) {
	t.Setenv("INSPECT_PREFS_BACKEND", config.BackendMemory)
}

func TestTextCmd_JSON(t *testing.T) {
	useMemoryPrefs(t)

	out, err := run(t, "text", "one two three", "--json")
	require.NoError(t, err)

	var snap snapshot.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, "standard.Text", snap.Target)
	general, ok := snap.Section("general")
	require.True(t, ok)
	assert.Equal(t, "Words", general.Rows[3].Title)
	assert.Equal(t, "3", general.Rows[3].Value)
}

func TestTextCmd_Report(t *testing.T) {
	useMemoryPrefs(t)

	out, err := run(t, "text", "hi")
	require.NoError(t, err)
	assert.Contains(t, out, "General")
	assert.Contains(t, out, "Length")
}

func TestProcessCmd(t *testing.T) {
	useMemoryPrefs(t)

	out, err := run(t, "process", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"PID"`)
}

func TestCertCmd_MissingFile(t *testing.T) {
	useMemoryPrefs(t)

	_, err := run(t, "cert", filepath.Join(t.TempDir(), "nope.pem"))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
}

func TestExpandCmd_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	t.Setenv("INSPECT_PREFS_BACKEND", config.BackendFile)
	t.Setenv("INSPECT_PREFS_PATH", path)

	out, err := run(t, "expand", "States", "true")
	require.NoError(t, err)
	assert.Contains(t, out, "States: expanded=true")

	store, err := prefs.OpenFile(path)
	require.NoError(t, err)
	v, ok := store.Expanded("States")
	assert.True(t, ok)
	assert.True(t, v)
}

func TestExpandCmd_BadBool(t *testing.T) {
	useMemoryPrefs(t)

	_, err := run(t, "expand", "States", "maybe")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inspect.yaml")
	require.NoError(t, os.WriteFile(path, []byte("prefs:\n  backend: nowhere\n"), 0644))

	_, err := run(t, "--config", path, "text", "x")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigValid))
}

func TestEditCmd_AgainstServer(t *testing.T) {
	useMemoryPrefs(t)

	cfg := config.Default()
	cfg.Prefs.Backend = config.BackendMemory
	in, err := inspection.New(cfg)
	require.NoError(t, err)
	defer in.Close()
	in.Publish("greeting", standard.Text("hello"))

	srv := httptest.NewServer(transport.NewServer("", transport.NewHandler(in, zerolog.Nop())).Handler)
	defer srv.Close()
	t.Setenv("INSPECT_SERVER_ADDR", strings.TrimPrefix(srv.URL, "http://"))

	_, err = run(t, "edit", "greeting", "general", "0", "12")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotWritable))

	_, err = run(t, "edit", "greeting", "general", "zero", "12")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestWatchCmd_BadInterval(t *testing.T) {
	useMemoryPrefs(t)

	_, err := run(t, "watch", "host", "--interval", "sometimes")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

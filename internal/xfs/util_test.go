package xfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, home, ExpandTilde("~"))
	assert.Equal(t, filepath.Join(home, "logs", "a.log"), ExpandTilde("~/logs/a.log"))
	assert.Equal(t, "/var/log/a.log", ExpandTilde("/var/log/a.log"))
	assert.Equal(t, "~other/x", ExpandTilde("~other/x"))
}

func TestWriteTempAndRemove(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteTemp(dir, "audio-*.wav", []byte("RIFF"))
	require.NoError(t, err)
	assert.Equal(t, ".wav", filepath.Ext(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data))

	require.NoError(t, RemoveIfExists(path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, RemoveIfExists(path))
	assert.NoError(t, RemoveIfExists(""))
}

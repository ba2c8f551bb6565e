package diskio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	dir, err := NewWorkDir(t.TempDir())
	require.NoError(t, err)

	path := PathFor(dir, 42)
	payload := []byte("matrix bytes go here")

	require.NoError(t, Write(path, payload))

	got, err := Read(path)
	require.NoError(t, err)
	require.Equal(t, payload, got)

	require.NoError(t, Remove(path))
	_, err = Read(path)
	require.Error(t, err)
}

func TestNewWorkDirIsUniquePerCall(t *testing.T) {
	base := t.TempDir()
	a, err := NewWorkDir(base)
	require.NoError(t, err)
	b, err := NewWorkDir(base)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

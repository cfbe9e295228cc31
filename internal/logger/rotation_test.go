package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotatingWriter_WriteAndRotate(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "baxter.log")

	w, err := NewRotatingWriter(logFile, 1, 0, false)
	require.NoError(t, err)
	defer w.Close()

	// Force rotation by pretending the file is already at the size limit.
	_, err = w.Write([]byte("first line\n"))
	require.NoError(t, err)
	w.currentSize = w.maxSize

	_, err = w.Write([]byte("after rotation\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Equal(t, "after rotation\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	rotated := 0
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "baxter.log.") {
			rotated++
		}
	}
	assert.Equal(t, 1, rotated)
}

func TestRotatingWriter_PruneOld(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "baxter.log")

	stalePath := filepath.Join(dir, "baxter.log.20200101-000000")
	require.NoError(t, os.WriteFile(stalePath, []byte("old"), 0644))
	stale := time.Now().AddDate(0, 0, -30)
	require.NoError(t, os.Chtimes(stalePath, stale, stale))

	w, err := NewRotatingWriter(logFile, 1, 7, false)
	require.NoError(t, err)
	defer w.Close()

	// pruneOld runs in a goroutine; run it again synchronously.
	w.pruneOld()

	assert.NoFileExists(t, stalePath)
	assert.FileExists(t, logFile)
}

func TestRotatingWriter_CreatesDirectory(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "nested", "logs", "baxter.log")

	w, err := NewRotatingWriter(logFile, 1, 0, false)
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write([]byte("hello\n"))
	require.NoError(t, err)
	assert.FileExists(t, logFile)
}

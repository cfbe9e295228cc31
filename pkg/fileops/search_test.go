package fileops

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSearchTree(t *testing.T, root string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".hidden"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "server.py"),
		[]byte("from flask import Flask\napp = Flask(__name__)\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"),
		[]byte("A demo Flask app.\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".hidden", "notes.txt"),
		[]byte("Flask secrets\n"), 0644))
}

func TestSearch_FindsMatches(t *testing.T) {
	eng, root := newTestEngine(t)
	seedSearchTree(t, root)

	res, err := eng.Search(context.Background(), SearchOptions{Query: "flask"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Matches)

	files := map[string]bool{}
	for _, m := range res.Matches {
		files[m.File] = true
		assert.Positive(t, m.Line)
		assert.Positive(t, m.Column)
	}
	assert.True(t, files["src/server.py"])
	assert.True(t, files["README.md"])
	assert.False(t, files[".hidden/notes.txt"], "hidden files excluded by default")
}

func TestSearch_CaseSensitive(t *testing.T) {
	eng, root := newTestEngine(t)
	seedSearchTree(t, root)

	res, err := eng.Search(context.Background(), SearchOptions{Query: "flask", CaseSensitive: true})
	require.NoError(t, err)
	for _, m := range res.Matches {
		assert.Contains(t, m.Text, "flask")
	}
}

func TestSearch_FilenameFallback(t *testing.T) {
	eng, root := newTestEngine(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<html></html>\n"), 0644))

	res, err := eng.Search(context.Background(), SearchOptions{Query: "index.html"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Matches)
	assert.Equal(t, "index.html", res.Matches[0].File)
	assert.Equal(t, "[filename match]", res.Matches[0].Text)
}

func TestSearch_MaxResultsClamped(t *testing.T) {
	eng, root := newTestEngine(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(
			filepath.Join(root, string(rune('a'+i))+".txt"),
			[]byte("needle\nneedle\n"), 0644))
	}

	res, err := eng.Search(context.Background(), SearchOptions{Query: "needle", MaxResults: 3})
	require.NoError(t, err)
	assert.Len(t, res.Matches, 3)
	assert.True(t, res.Truncated)
}

func TestSearch_InvalidInputs(t *testing.T) {
	eng, root := newTestEngine(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "f.txt"), []byte("x"), 0644))

	_, err := eng.Search(context.Background(), SearchOptions{Query: "  "})
	assert.ErrorContains(t, err, "missing/invalid query")

	_, err = eng.Search(context.Background(), SearchOptions{Query: "x", Path: "f.txt"})
	assert.ErrorContains(t, err, "not a directory")
}

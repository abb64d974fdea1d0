package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<html></html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "assets", "app.js"), []byte("console.log(1)"), 0o644))

	files, err := collectFiles(root)
	require.NoError(t, err)
	require.Len(t, files, 2)

	byName := map[string]int{}
	for i, f := range files {
		byName[f.Name] = i
	}
	require.Contains(t, byName, "index.html")
	require.Contains(t, byName, "assets/app.js")

	html := files[byName["index.html"]]
	assert.Contains(t, html.MimeType, "text/html")
	assert.EqualValues(t, 13, html.Size)

	rc, err := html.Open()
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(body))
}

func TestCollectFilesMissingDir(t *testing.T) {
	_, err := collectFiles(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

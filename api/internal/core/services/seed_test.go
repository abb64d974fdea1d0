package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSeed_Embedded(t *testing.T) {
	seed, err := LoadSeed("")
	require.NoError(t, err)

	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	projects := seed.Projects(now)
	require.Len(t, projects, 1)
	assert.Equal(t, now, projects[0].CreatedAt)
	assert.Equal(t, []string{"[Build] Optimized chunks...", "[CDN] Propagation 100%"}, projects[0].Logs)

	// Each call hands out an independent copy.
	projects[0].Logs[0] = "changed"
	assert.Equal(t, "[Build] Optimized chunks...", seed.Projects(now)[0].Logs[0])
}

func TestLoadSeed_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	body := `
- id: demo
  name: docs-site
  status: Ready
  url: https://docs-site.example.dev
  createdAt: 2024-06-01T10:00:00Z
  framework: Vite
  logs: []
  metrics: {cpu: "0%", ram: 0MB, requests: 0}
  env:
    - {id: e1, key: NODE_ENV, value: production}
  filesCount: 3
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	seed, err := LoadSeed(path)
	require.NoError(t, err)

	projects := seed.Projects(time.Now())
	require.Len(t, projects, 1)
	assert.Equal(t, "docs-site", projects[0].Name)
	assert.Equal(t, 2024, projects[0].CreatedAt.Year(), "explicit dates are kept")
	assert.Equal(t, "NODE_ENV", projects[0].Env[0].Key)
}

func TestLoadSeed_Invalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"empty.yaml":     "[]",
		"broken.yaml":    "- id: [",
		"badstatus.yaml": "- {id: x, name: a, status: Gone, url: u, framework: React, logs: [], metrics: {cpu: a, ram: b}, env: []}",
	}
	for file, body := range cases {
		path := filepath.Join(dir, file)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
		_, err := LoadSeed(path)
		assert.Error(t, err, file)
	}

	_, err := LoadSeed(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

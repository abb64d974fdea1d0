package services

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reacthost/console/api/internal/core/domain"
	"github.com/reacthost/console/api/internal/db/snapshot"
	"github.com/reacthost/console/api/internal/infrastructure/crypto"
)

var testKey = strings.Repeat("ab", 32)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T, backend domain.SnapshotStore, sealed bool) *ProjectStore {
	t.Helper()

	seed, err := LoadSeed("")
	require.NoError(t, err)

	var envVars *EnvVarService
	if sealed {
		aes, err := crypto.NewDerivedAESCryptoService(testKey, crypto.PurposeEnvVars)
		require.NoError(t, err)
		envVars = NewEnvVarService(aes, testLogger())
	}
	return NewProjectStore(backend, envVars, seed, domain.DefaultDomain, testLogger())
}

func loadedStore(t *testing.T) (*ProjectStore, *snapshot.MemoryStore) {
	t.Helper()
	backend := snapshot.NewMemoryStore()
	store := newTestStore(t, backend, false)
	_, err := store.Load(context.Background())
	require.NoError(t, err)
	return store, backend
}

// brokenBackend fails every read with a transport error.
type brokenBackend struct {
	*snapshot.MemoryStore
}

func (brokenBackend) Load(ctx context.Context, key string) ([]byte, error) {
	return nil, io.ErrUnexpectedEOF
}

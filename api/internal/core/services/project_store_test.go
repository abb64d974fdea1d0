package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reacthost/console/api/internal/core/domain"
	"github.com/reacthost/console/api/internal/db/snapshot"
)

func ids(projects []domain.Project) []string {
	out := make([]string, len(projects))
	for i, p := range projects {
		out[i] = p.ID
	}
	return out
}

func TestLoad_AbsentSnapshotYieldsSeed(t *testing.T) {
	backend := snapshot.NewMemoryStore()
	store := newTestStore(t, backend, false)

	projects, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)

	seed := projects[0]
	assert.Equal(t, "1", seed.ID)
	assert.Equal(t, "ecommerce-store-v2", seed.Name)
	assert.Equal(t, "https://store-v2.reacthost.ai", seed.URL)
	assert.Equal(t, domain.StatusDeployed, seed.Status)
	assert.Equal(t, 42, seed.FilesCount)
	assert.Equal(t, 1250, seed.Metrics.Requests)
	assert.Empty(t, seed.Env)
	assert.False(t, seed.CreatedAt.IsZero())

	// The seed is written back so the next start reads it from the backend.
	raw, err := backend.Load(context.Background(), domain.SnapshotKey)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "ecommerce-store-v2")
}

func TestLoad_UnusableSnapshotYieldsSeed(t *testing.T) {
	valid := `{"id":"x","name":"a","status":"Deployed","url":"https://a.reacthost.ai","createdAt":"2024-01-01T00:00:00Z","framework":"React","logs":[],"metrics":{"cpu":"1%","ram":"1MB","requests":0},"env":[],"filesCount":1`

	tests := []struct {
		name string
		raw  string
	}{
		{"empty bytes", ""},
		{"empty array", "[]"},
		{"not json", "{oops"},
		{"object instead of array", `{"id":"1"}`},
		{"unknown field", "[" + valid + `,"owner":"bob"}]`},
		{"missing metrics", `[{"id":"x","name":"a","status":"Deployed","url":"u","createdAt":"2024-01-01T00:00:00Z","framework":"React","logs":[],"env":[],"filesCount":1}]`},
		{"bad status", strings.Replace("["+valid+"}]", `"Deployed"`, `"Exploded"`, 1)},
		{"duplicate ids", "[" + valid + "}," + valid + "}]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := snapshot.NewMemoryStore()
			backend.Put(domain.SnapshotKey, []byte(tt.raw))
			store := newTestStore(t, backend, false)

			projects, err := store.Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, []string{"1"}, ids(projects))
		})
	}
}

func TestLoad_BackendFailureIsReturned(t *testing.T) {
	store := newTestStore(t, brokenBackend{snapshot.NewMemoryStore()}, false)

	_, err := store.Load(context.Background())
	assert.Error(t, err)
}

func TestAppend_SurvivesRestartInOrder(t *testing.T) {
	ctx := context.Background()
	store, backend := loadedStore(t)

	for _, name := range []string{"alpha", "beta", "gamma"} {
		require.NoError(t, store.Append(ctx, store.NewDeployedProject(name)))
	}
	before := ids(store.List())
	require.Len(t, before, 4)
	assert.Equal(t, "1", before[3], "newest first, seed last")

	restarted := newTestStore(t, backend, false)
	after, err := restarted.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, ids(after))
}

func TestAppend_FailedSaveLeavesMemoryUntouched(t *testing.T) {
	store, backend := loadedStore(t)
	backend.SaveErr = assert.AnError

	err := store.Append(context.Background(), store.NewDeployedProject("doomed"))
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, []string{"1"}, ids(store.List()))
}

func TestAppend_RejectsDuplicateID(t *testing.T) {
	store, _ := loadedStore(t)
	p := store.NewDeployedProject("again")

	require.NoError(t, store.Append(context.Background(), p))
	assert.Error(t, store.Append(context.Background(), p))
}

func TestSave_RoundTripsWholeCollection(t *testing.T) {
	ctx := context.Background()
	store, backend := loadedStore(t)

	a := store.NewDeployedProject("alpha")
	b := store.NewDeployedProject("beta")
	require.NoError(t, store.Save(ctx, append(store.List(), a, b)))
	assert.Equal(t, []string{"1", a.ID, b.ID}, ids(store.List()))

	restarted := newTestStore(t, backend, false)
	after, err := restarted.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", a.ID, b.ID}, ids(after))
}

func TestSave_RejectsWhatLoadWouldDiscard(t *testing.T) {
	ctx := context.Background()
	store, backend := loadedStore(t)

	good := store.NewDeployedProject("alpha")
	require.NoError(t, store.Append(ctx, good))

	noStatus := store.NewDeployedProject("beta")
	noStatus.Status = ""
	noURL := store.NewDeployedProject("gamma")
	noURL.URL = ""

	tests := []struct {
		name     string
		projects []domain.Project
	}{
		{"missing status", append(store.List(), noStatus)},
		{"missing url", append(store.List(), noURL)},
		{"duplicate id", append(store.List(), good)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, store.Save(ctx, tt.projects))
			assert.Equal(t, []string{good.ID, "1"}, ids(store.List()))

			restarted := newTestStore(t, backend, false)
			after, err := restarted.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{good.ID, "1"}, ids(after))
		})
	}
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	store, backend := loadedStore(t)
	p := store.NewDeployedProject("short-lived")
	require.NoError(t, store.Append(ctx, p))

	t.Run("unknown id is a no-op", func(t *testing.T) {
		before := ids(store.List())
		require.NoError(t, store.Remove(ctx, "does-not-exist"))
		assert.Equal(t, before, ids(store.List()))
	})

	t.Run("known id is removed and persisted", func(t *testing.T) {
		require.NoError(t, store.Remove(ctx, p.ID))
		assert.Equal(t, []string{"1"}, ids(store.List()))

		raw, err := backend.Load(ctx, domain.SnapshotKey)
		require.NoError(t, err)
		assert.NotContains(t, string(raw), p.ID)
	})
}

func TestGet_NotFound(t *testing.T) {
	store, _ := loadedStore(t)
	_, err := store.Get("nope")
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}

func TestList_ReturnsCopies(t *testing.T) {
	store, _ := loadedStore(t)

	list := store.List()
	list[0].Logs[0] = "tampered"

	fresh, err := store.Get("1")
	require.NoError(t, err)
	assert.Equal(t, "[Build] Optimized chunks...", fresh.Logs[0])
}

func TestNewDeployedProject(t *testing.T) {
	store, _ := loadedStore(t)
	p := store.NewDeployedProject("  my-app  ")

	assert.Equal(t, "my-app", p.Name)
	assert.Equal(t, "https://my-app.reacthost.ai", p.URL)
	assert.Equal(t, domain.StatusDeployed, p.Status)
	assert.Equal(t, domain.FrameworkReact, p.Framework)
	assert.Len(t, p.Logs, 3)
	assert.NotNil(t, p.Env)
	assert.Empty(t, p.Env)
	assert.Equal(t, 15, p.FilesCount)
}

func TestUpdateEnv_NormalizesKeys(t *testing.T) {
	ctx := context.Background()
	store, _ := loadedStore(t)

	updated, err := store.UpdateEnv(ctx, "1", []domain.EnvVar{{Key: "api key", Value: "x"}})
	require.NoError(t, err)
	require.Len(t, updated.Env, 1)
	assert.Equal(t, "API_KEY", updated.Env[0].Key)
	assert.Equal(t, "x", updated.Env[0].Value)
	assert.NotEmpty(t, updated.Env[0].ID)

	stored, err := store.Get("1")
	require.NoError(t, err)
	assert.Equal(t, updated.Env, stored.Env)
}

func TestUpdateEnv_Errors(t *testing.T) {
	store, _ := loadedStore(t)

	_, err := store.UpdateEnv(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)

	_, err = store.UpdateEnv(context.Background(), "1", []domain.EnvVar{{Key: "  ", Value: "x"}})
	assert.ErrorIs(t, err, domain.ErrEnvVarInvalid)
}

func TestAddAndRemoveEnvVar(t *testing.T) {
	ctx := context.Background()
	store, _ := loadedStore(t)

	_, err := store.AddEnvVar(ctx, "1", "", "x")
	assert.ErrorIs(t, err, domain.ErrEnvVarInvalid)
	_, err = store.AddEnvVar(ctx, "1", "KEY", "")
	assert.ErrorIs(t, err, domain.ErrEnvVarInvalid)

	first, err := store.AddEnvVar(ctx, "1", "database url", "postgres://a")
	require.NoError(t, err)
	second, err := store.AddEnvVar(ctx, "1", "DATABASE_URL", "postgres://b")
	require.NoError(t, err)
	assert.Equal(t, "DATABASE_URL", first.Key)
	assert.NotEqual(t, first.ID, second.ID)

	p, err := store.Get("1")
	require.NoError(t, err)
	assert.Len(t, p.Env, 2, "duplicate keys are kept")

	p, err = store.RemoveEnvVar(ctx, "1", first.ID)
	require.NoError(t, err)
	require.Len(t, p.Env, 1)
	assert.Equal(t, second.ID, p.Env[0].ID)

	p, err = store.RemoveEnvVar(ctx, "1", "unknown")
	require.NoError(t, err)
	assert.Len(t, p.Env, 1)
}

func TestSealing_ValuesEncryptedAtRest(t *testing.T) {
	ctx := context.Background()
	backend := snapshot.NewMemoryStore()
	store := newTestStore(t, backend, true)
	_, err := store.Load(ctx)
	require.NoError(t, err)

	_, err = store.AddEnvVar(ctx, "1", "STRIPE_SECRET", "sk_live_123")
	require.NoError(t, err)

	raw, err := backend.Load(ctx, domain.SnapshotKey)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "sk_live_123")
	assert.Contains(t, string(raw), "STRIPE_SECRET")

	restarted := newTestStore(t, backend, true)
	projects, err := restarted.Load(ctx)
	require.NoError(t, err)
	require.Len(t, projects[0].Env, 1)
	assert.Equal(t, "sk_live_123", projects[0].Env[0].Value)
}

func TestSealing_ValueMovedToAnotherProjectIsRejected(t *testing.T) {
	ctx := context.Background()
	backend := snapshot.NewMemoryStore()
	store := newTestStore(t, backend, true)
	_, err := store.Load(ctx)
	require.NoError(t, err)
	_, err = store.AddEnvVar(ctx, "1", "TOKEN", "secret")
	require.NoError(t, err)

	raw, err := backend.Load(ctx, domain.SnapshotKey)
	require.NoError(t, err)

	var projects []map[string]any
	require.NoError(t, json.Unmarshal(raw, &projects))
	projects[0]["id"] = "2"
	tampered, err := json.Marshal(projects)
	require.NoError(t, err)
	backend.Put(domain.SnapshotKey, tampered)

	restarted := newTestStore(t, backend, true)
	loaded, err := restarted.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids(loaded), "falls back to the seed")
	assert.Empty(t, loaded[0].Env)
}

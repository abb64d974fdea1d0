package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reacthost/console/api/internal/core/domain"
)

func TestViewState_Defaults(t *testing.T) {
	store, _ := loadedStore(t)
	view := NewViewState(store)

	v := view.Snapshot()
	assert.Equal(t, TabProjects, v.ActiveTab)
	assert.Empty(t, v.SelectedProjectID)
	assert.False(t, v.DeployModalOpen)
}

func TestViewState_SelectAndReturnToList(t *testing.T) {
	store, _ := loadedStore(t)
	view := NewViewState(store)

	v, err := view.Apply(ViewPatch{SelectedProjectID: ptr("1")})
	require.NoError(t, err)
	assert.Equal(t, "1", v.SelectedProjectID)

	p, ok := view.SelectedProject()
	require.True(t, ok)
	assert.Equal(t, "ecommerce-store-v2", p.Name)

	v, err = view.Apply(ViewPatch{ActiveTab: ptr(TabSettings)})
	require.NoError(t, err)
	assert.Equal(t, "1", v.SelectedProjectID, "settings keeps the selection")

	v, err = view.Apply(ViewPatch{ActiveTab: ptr(TabProjects)})
	require.NoError(t, err)
	assert.Empty(t, v.SelectedProjectID)
}

func TestViewState_Rejections(t *testing.T) {
	store, _ := loadedStore(t)
	view := NewViewState(store)

	_, err := view.Apply(ViewPatch{SelectedProjectID: ptr("ghost")})
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)

	_, err = view.Apply(ViewPatch{ActiveTab: ptr(Tab("billing"))})
	assert.Error(t, err)
}

func TestViewState_ForgetRemovedProject(t *testing.T) {
	ctx := context.Background()
	store, _ := loadedStore(t)
	view := NewViewState(store)

	_, err := view.Apply(ViewPatch{SelectedProjectID: ptr("1")})
	require.NoError(t, err)

	require.NoError(t, store.Remove(ctx, "1"))
	view.Forget("1")

	assert.Empty(t, view.Snapshot().SelectedProjectID)
	_, ok := view.SelectedProject()
	assert.False(t, ok)
}

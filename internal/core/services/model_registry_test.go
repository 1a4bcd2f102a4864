package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstudio/studio-core/internal/core/domain"
)

func TestModelRegistryGet(t *testing.T) {
	registry, err := NewModelRegistry(testLogger(t), testCatalog())
	require.NoError(t, err)

	desc, err := registry.Get("sdxl-turbo")
	require.NoError(t, err)
	assert.Equal(t, domain.ModelTypeImage, desc.Type)

	_, err = registry.Get("unknown")
	assert.ErrorIs(t, err, domain.ErrModelNotFound)
}

func TestModelRegistryRejectsDuplicates(t *testing.T) {
	catalog := testCatalog()
	catalog = append(catalog, catalog[0])

	_, err := NewModelRegistry(testLogger(t), catalog)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate model id")
}

func TestModelRegistryListSortedAndFiltered(t *testing.T) {
	registry, err := NewModelRegistry(testLogger(t), testCatalog())
	require.NoError(t, err)

	all := registry.List()
	require.Len(t, all, 4)
	assert.Equal(t, "bark", all[0].ID)
	assert.Equal(t, "sdxl-turbo", all[3].ID)

	images := registry.List(domain.ModelTypeImage)
	require.Len(t, images, 2)
	for _, desc := range images {
		assert.Equal(t, domain.ModelTypeImage, desc.Type)
	}
}

func TestModelRegistrySetEnabled(t *testing.T) {
	registry, err := NewModelRegistry(testLogger(t), testCatalog())
	require.NoError(t, err)

	require.NoError(t, registry.SetEnabled("dalle3", false))
	desc, err := registry.Get("dalle3")
	require.NoError(t, err)
	assert.False(t, desc.Enabled)

	require.NoError(t, registry.SetEnabled("dalle3", true))
	desc, _ = registry.Get("dalle3")
	assert.True(t, desc.Enabled)

	assert.ErrorIs(t, registry.SetEnabled("unknown", true), domain.ErrModelNotFound)
}

func TestDefaultCatalogWellFormed(t *testing.T) {
	registry, err := NewModelRegistry(testLogger(t), domain.DefaultCatalog())
	require.NoError(t, err)

	for _, desc := range registry.List() {
		assert.NotEmpty(t, desc.ID)
		assert.NotEmpty(t, desc.Version)
		assert.True(t, desc.OnlineCapable || desc.OfflineCapable, "model %s has no route at all", desc.ID)
	}
}

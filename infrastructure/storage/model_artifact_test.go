package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vips_analyzer/domain/entities"
)

func TestModelArtifact_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "vips-model.json")
	store := NewModelArtifact(path)

	root := &entities.VisualNode{
		Tag:        "html",
		Geometry:   entities.Geometry{Width: 1920, Height: 1080},
		DocOrder:   1,
		Importance: 6.5,
		Children: []*entities.VisualNode{
			{Tag: "h1", ID: "t", Text: "Title", DocOrder: 3, Importance: 4.1},
		},
	}
	require.NoError(t, store.SaveModel(root))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"tag\": \"html\"")

	loaded, err := LoadModel(path)
	require.NoError(t, err)
	assert.Equal(t, root.Children[0].Text, loaded.Children[0].Text)
	assert.Equal(t, 2, loaded.Count())

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestLoadModel_Missing(t *testing.T) {
	_, err := LoadModel(filepath.Join(t.TempDir(), "none.json"))
	assert.True(t, os.IsNotExist(err))
}

package assets

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-resources/engine/core"
	"github.com/spaghettifunk/anima-resources/engine/resources"
)

func newResourceFolder(t *testing.T) *ResourceFolder {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "Foo/Bar.txt", "bar text")
	writeFile(t, dir, "Foo/Bar.amt", "name = bar\nshader = Shader.Builtin.Material\n")
	writeFile(t, dir, "Foo/Bar.amt.meta", "guid: 2")
	writeFile(t, dir, "Root.bytes", "\x00\x01\x02")
	return NewResourceFolder(dir, nil)
}

func TestResourceFolderLoad(t *testing.T) {
	rf := newResourceFolder(t)

	res, err := rf.Load("Foo/Bar", resources.ResourceTypeText)
	require.NoError(t, err)
	assert.Equal(t, "bar text", res.Data)
	assert.Equal(t, ResourcesStoreName, res.Origin)
	assert.Equal(t, filepath.Join(rf.Root(), "Foo", "Bar.txt"), res.FullPath)

	mat, err := rf.Load("Foo/Bar", resources.ResourceTypeMaterial)
	require.NoError(t, err)
	assert.Equal(t, "bar", mat.Data.(*resources.MaterialConfig).Name)

	raw, err := rf.Load("Root", resources.ResourceTypeBinary)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2}, raw.Data)
	assert.Equal(t, uint64(3), raw.DataSize)
}

func TestResourceFolderMisses(t *testing.T) {
	rf := newResourceFolder(t)

	_, err := rf.Load("Foo/Baz", resources.ResourceTypeText)
	assert.ErrorIs(t, err, core.ErrAssetNotFound)

	_, err = rf.Load("Nope/Bar", resources.ResourceTypeText)
	assert.ErrorIs(t, err, core.ErrAssetNotFound)

	_, err = rf.Load("Foo/Bar", resources.ResourceTypeImage)
	assert.ErrorIs(t, err, core.ErrAssetNotFound)

	_, err = rf.Load("../outside", resources.ResourceTypeText)
	assert.ErrorIs(t, err, core.ErrInvalidPath)

	_, err = rf.Load("", resources.ResourceTypeText)
	assert.ErrorIs(t, err, core.ErrInvalidPath)
}

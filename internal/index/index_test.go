package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xlatefs/xlatefs/internal/store"
)

func TestLoadAndResolve(t *testing.T) {
	idx := New()
	idx.Load([]store.Translation{{Original: "/a/b/orig.mkv", Translated: "/shows/S/E.mkv"}})

	backing, ok := idx.Resolve("/shows/S/E.mkv")
	assert.True(t, ok)
	assert.Equal(t, "/a/b/orig.mkv", backing)

	backing, ok = idx.Resolve("/shows/S/E.mkv/nested")
	assert.True(t, ok)
	assert.Equal(t, "/a/b/orig.mkv/nested", backing)

	_, ok = idx.Resolve("/unrelated/path")
	assert.False(t, ok)

	assert.True(t, idx.IsVirtualDir("/shows"))
	assert.True(t, idx.IsVirtualDir("/shows/S"))
	assert.Contains(t, idx.ChildNames("/shows/S"), "E.mkv")
}

func TestAddRepoint(t *testing.T) {
	idx := New()
	idx.Add("/x", "/p/q")
	idx.Add("/x", "/p/r")

	assert.Equal(t, "/p/r", idx.Forward["/x"])
	_, hasQ := idx.Reverse["/p/q"]
	assert.False(t, hasQ)
	assert.Equal(t, "/x", idx.Reverse["/p/r"])
	assert.True(t, idx.IsVirtualDir("/p"))
}

func TestRemoveIdempotent(t *testing.T) {
	idx := New()
	idx.Add("/x", "/p/q")
	idx.Remove("/unknown")
	assert.Equal(t, "/p/q", idx.Forward["/x"])

	idx.Remove("/x")
	_, ok := idx.Forward["/x"]
	assert.False(t, ok)
	assert.False(t, idx.IsVirtualDir("/p"))
}

func TestPurge(t *testing.T) {
	idx := New()
	idx.Add("/x", "/p/q")
	idx.Purge()
	assert.Empty(t, idx.Forward)
	assert.Empty(t, idx.Reverse)
	assert.Empty(t, idx.VirtualDirs)
}

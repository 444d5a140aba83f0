package pathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinRoot(t *testing.T) {
	assert.Equal(t, "/backing/a/b.mkv", JoinRoot("/backing", "/a/b.mkv"))
	assert.Equal(t, "/backing", JoinRoot("/backing", "/"))
}

func TestIsShadowed(t *testing.T) {
	originals := map[string]string{"/a/b/orig.mkv": "/shows/S/E.mkv"}
	assert.True(t, IsShadowed("/a/b/orig.mkv", originals))
	assert.False(t, IsShadowed("/a/b/orig2.mkv", originals))
	assert.False(t, IsShadowed("/a/b", originals))
}

func TestAddAndRemoveAncestors(t *testing.T) {
	virtual := map[string]struct{}{}
	AddAncestors(virtual, "/shows/S")
	assert.Contains(t, virtual, "/shows")
	assert.Contains(t, virtual, "/shows/S")
	assert.NotContains(t, virtual, "/")

	dirStructure := map[string]map[string]struct{}{
		"/shows/S": {"E.mkv": {}},
		"/shows/T": {"F.mkv": {}},
	}
	// index.unlink deletes a directory's own dirStructure entry once its
	// last child is gone, before calling RemoveAncestors for it; simulate
	// that here.
	delete(dirStructure, "/shows/S")
	RemoveAncestors(virtual, dirStructure, "/shows/S")
	// /shows is still needed: /shows/T is still a live parent under it.
	assert.Contains(t, virtual, "/shows")
	assert.NotContains(t, virtual, "/shows/S")

	delete(dirStructure, "/shows/T")
	RemoveAncestors(virtual, dirStructure, "/shows/T")
	assert.NotContains(t, virtual, "/shows")
}

func TestRemoveAncestorsStopsWhenStillNeeded(t *testing.T) {
	virtual := map[string]struct{}{"/a": {}, "/a/b": {}, "/a/c": {}}
	dirStructure := map[string]map[string]struct{}{
		"/a/b": {"x": {}},
		"/a/c": {"y": {}},
	}
	delete(dirStructure, "/a/c")
	RemoveAncestors(virtual, dirStructure, "/a/c")
	assert.NotContains(t, virtual, "/a/c")
	// /a is still needed because /a/b is a live parent under it.
	assert.Contains(t, virtual, "/a")
}

package facade

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xlatefs/xlatefs/internal/store"
)

func newTestFacade(t *testing.T) (*Facade, string) {
	t.Helper()
	root := t.TempDir()
	storePath := filepath.Join(t.TempDir(), "translations.db")

	st, err := store.Open(storePath)
	require.NoError(t, err)

	f, err := New(root, st, Options{})
	require.NoError(t, err)
	t.Cleanup(f.Destroy)

	return f, root
}

func writeBacking(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func TestAddTranslationThenStatAndRead(t *testing.T) {
	f, root := newTestFacade(t)
	writeBacking(t, root, "movies/Alien.1979.mkv", "movie-bytes")

	require.NoError(t, f.AddTranslation("/movies/Alien.1979.mkv", "/Library/Alien (1979)/Alien.1979.mkv"))

	attr, err := f.Getattr("/Library/Alien (1979)/Alien.1979.mkv")
	require.NoError(t, err)
	assert.EqualValues(t, len("movie-bytes"), attr.Size)

	data, err := f.Read("/Library/Alien (1979)/Alien.1979.mkv", 64, 0)
	require.NoError(t, err)
	assert.Equal(t, "movie-bytes", string(data))

	// The virtual ancestor directory must also be synthesized.
	vattr, err := f.Getattr("/Library/Alien (1979)")
	require.NoError(t, err)
	assert.True(t, vattr.Mode.IsDir())
}

func TestOriginalPathIsShadowedOnceTranslated(t *testing.T) {
	f, root := newTestFacade(t)
	writeBacking(t, root, "movies/Alien.1979.mkv", "x")
	require.NoError(t, f.AddTranslation("/movies/Alien.1979.mkv", "/Library/Alien.mkv"))

	entries, err := f.Readdir("/movies")
	require.NoError(t, err)
	assert.NotContains(t, entries, "Alien.1979.mkv")
}

func TestRepointTranslationRetractsOldVirtualDir(t *testing.T) {
	f, root := newTestFacade(t)
	writeBacking(t, root, "movies/Alien.1979.mkv", "x")

	require.NoError(t, f.AddTranslation("/movies/Alien.1979.mkv", "/Library/A/Alien.mkv"))
	require.True(t, f.idx.IsVirtualDir("/Library/A"))

	require.NoError(t, f.AddTranslation("/movies/Alien.1979.mkv", "/Library/B/Alien.mkv"))
	assert.False(t, f.idx.IsVirtualDir("/Library/A"))
	assert.True(t, f.idx.IsVirtualDir("/Library/B"))
}

func TestPlexCompatibilityFilesAlwaysPresent(t *testing.T) {
	f, _ := newTestFacade(t)

	attr, err := f.Getattr("/Library/A/.plexmatch")
	require.NoError(t, err)
	assert.False(t, attr.Mode.IsDir())

	entries, err := f.Readdir("/anything")
	require.NoError(t, err)
	assert.Contains(t, entries, ".plexmatch")
	assert.Contains(t, entries, ".grab")
}

func TestGetattrUnknownPathIsENOENT(t *testing.T) {
	f, _ := newTestFacade(t)
	_, err := f.Getattr("/nope/nothing")
	assert.Equal(t, syscall.ENOENT, err)
}

func TestRemoveTranslationIsIdempotent(t *testing.T) {
	f, root := newTestFacade(t)
	writeBacking(t, root, "a.txt", "x")
	require.NoError(t, f.AddTranslation("/a.txt", "/b.txt"))
	require.NoError(t, f.RemoveTranslation("/a.txt"))
	require.NoError(t, f.RemoveTranslation("/a.txt"))

	_, err := f.Getattr("/b.txt")
	assert.Equal(t, syscall.ENOENT, err)
}

func TestListTranslations(t *testing.T) {
	f, root := newTestFacade(t)
	writeBacking(t, root, "a.txt", "x")
	writeBacking(t, root, "c.txt", "y")
	require.NoError(t, f.AddTranslation("/a.txt", "/b.txt"))
	require.NoError(t, f.AddTranslation("/c.txt", "/d.txt"))

	rows, err := f.ListTranslations()
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestPurgeAllClearsEverything(t *testing.T) {
	f, root := newTestFacade(t)
	writeBacking(t, root, "a.txt", "x")
	require.NoError(t, f.AddTranslation("/a.txt", "/b.txt"))

	require.NoError(t, f.PurgeAll())

	rows, err := f.ListTranslations()
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = f.Getattr("/b.txt")
	assert.Equal(t, syscall.ENOENT, err)
}

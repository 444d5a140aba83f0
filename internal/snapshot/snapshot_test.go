package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCycleRetainsNewest24(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "store.db")
	require.NoError(t, os.WriteFile(storePath, []byte("data"), 0o644))
	backupDir := filepath.Join(dir, "backups")
	require.NoError(t, os.MkdirAll(backupDir, 0o755))

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	w := newWorker(storePath, backupDir, func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})

	for i := 0; i < 25; i++ {
		require.NoError(t, w.cycle())
	}

	entries, err := os.ReadDir(backupDir)
	require.NoError(t, err)
	assert.Len(t, entries, Retain)
}

// Package facade implements the filesystem facade from spec.md §4.8:
// the read-side operations a kernel binding invokes (getattr, access,
// readdir, read, open/release, getxattr, an advisory-lock stub) plus
// the public mutators that front the mutation serializer. It owns the
// index, the store connection (through the serializer), the three
// background workers, and the handle cache, and is the sole place the
// facade lock spec.md §5 describes is held.
package facade

import (
	"path"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/xlatefs/xlatefs/internal/handlecache"
	"github.com/xlatefs/xlatefs/internal/index"
	"github.com/xlatefs/xlatefs/internal/metrics"
	"github.com/xlatefs/xlatefs/internal/pathutil"
	"github.com/xlatefs/xlatefs/internal/serializer"
	"github.com/xlatefs/xlatefs/internal/snapshot"
	"github.com/xlatefs/xlatefs/internal/store"
	"github.com/xlatefs/xlatefs/internal/watcher"
	"github.com/xlatefs/xlatefs/internal/xlog"
)

// plexNames are the marker basenames the Plex-compatibility allowance
// (spec.md §4.8) always answers for, regardless of the translation
// table. Any path containing a hidden ("/.") component gets the same
// treatment, matching original_source/translation_fs.py.
var plexNames = map[string]bool{
	".grab":       true,
	".plexmatch":  true,
	".plexignore": true,
}

// Options configures a Facade. Zero values fall back to the spec's
// literal defaults.
type Options struct {
	HandleCacheCapacity int
	ResolveCacheSize    int
	NegativeStatTTL     time.Duration
	BackupDir           string
	Metrics             *metrics.Metrics
}

// Facade is the filesystem-facing entry point.
type Facade struct {
	root string
	opt  Options

	mu  sync.RWMutex
	idx *index.Index

	st      *store.Store
	ser     *serializer.Serializer
	watch   *watcher.Watcher
	snap    *snapshot.Worker
	handles *handlecache.Cache

	resolveCache *lru.Cache[string, string]
	negStat      *gocache.Cache

	log *logrus.Entry

	shutdownOnce sync.Once
}

func opOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func durOr(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

// New builds a Facade rooted at backingRoot, backed by st, and starts
// its background workers: the serializer and the watcher always, the
// snapshot worker only when opt.BackupDir is set.
func New(backingRoot string, st *store.Store, opt Options) (*Facade, error) {
	handleCap := opOr(opt.HandleCacheCapacity, handlecache.DefaultCapacity)
	resolveCacheSize := opOr(opt.ResolveCacheSize, 1000)
	negTTL := durOr(opt.NegativeStatTTL, 2*time.Second)

	handles, err := handlecache.New(handleCap)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build handle cache")
	}
	resolveCache, err := lru.New[string, string](resolveCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build resolve cache")
	}

	f := &Facade{
		root:         backingRoot,
		opt:          opt,
		idx:          index.New(),
		st:           st,
		handles:      handles,
		resolveCache: resolveCache,
		negStat:      gocache.New(negTTL, negTTL*5),
		log:          xlog.Tagged("facade"),
	}

	rows, err := st.List()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load translations at startup")
	}
	f.idx.Load(rows)

	f.ser = serializer.New()
	f.watch = watcher.New(st.ModTime, f.rebuildIndex)
	if opt.BackupDir != "" {
		f.snap = snapshot.New(st.Path(), opt.BackupDir, nil)
	}

	return f, nil
}

// Reload forces an immediate index rebuild from the store, bypassing
// the watcher's mtime check. cmd/xlatefs calls this on SIGHUP.
func (f *Facade) Reload() error {
	return f.rebuildIndex()
}

// rebuildIndex reloads the index from the store under the facade
// lock, invalidating the resolved-path memoization. Called by the
// watcher, and directly on SIGHUP (see cmd/xlatefs).
func (f *Facade) rebuildIndex() error {
	rows, err := f.st.List()
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.idx.Load(rows)
	f.resolveCache.Purge()
	f.mu.Unlock()
	f.updateMetrics()
	return nil
}

func (f *Facade) updateMetrics() {
	if f.opt.Metrics == nil {
		return
	}
	f.mu.RLock()
	rows := len(f.idx.Forward)
	virt := len(f.idx.VirtualDirs)
	f.mu.RUnlock()
	f.opt.Metrics.TranslationRows.Set(float64(rows))
	f.opt.Metrics.VirtualDirs.Set(float64(virt))
	f.opt.Metrics.HandleCacheSize.Set(float64(f.handles.Len()))
}

func (f *Facade) countOp(name string) {
	if f.opt.Metrics != nil {
		f.opt.Metrics.Operations.WithLabelValues(name).Inc()
	}
}

// isPlexCompat reports whether p is one of the always-present
// Plex-compatibility entries (spec.md §4.8).
func isPlexCompat(p string) bool {
	if plexNames[path.Base(p)] {
		return true
	}
	return strings.Contains(p, "/.")
}

// resolve returns the backing filesystem path for presented path p,
// consulting and populating the resolved-path memoization cache. It
// must be called with f.mu held (read or write).
func (f *Facade) resolve(p string) string {
	if cached, ok := f.resolveCache.Get(p); ok {
		return cached
	}
	backing, _ := f.idx.Resolve(p)
	full := pathutil.JoinRoot(f.root, backing)
	f.resolveCache.Add(p, full)
	return full
}

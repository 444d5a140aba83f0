package facade

import (
	"io"
	"os"
	"path"
	"sort"
	"syscall"
	"time"

	"github.com/pkg/xattr"
	"github.com/xlatefs/xlatefs/internal/pathutil"
)

// Attr is the subset of file metadata spec.md §4.8 requires getattr
// to return.
type Attr struct {
	Mode  os.FileMode
	Nlink uint32
	Size  int64
	UID   uint32
	GID   uint32
	Atime time.Time
	Mtime time.Time
	Ctime time.Time
}

func synthesizedFileAttr() Attr {
	now := time.Now()
	return Attr{
		Mode:  0644,
		Nlink: 1,
		Size:  0,
		UID:   uint32(os.Getuid()),
		GID:   uint32(os.Getgid()),
		Atime: now, Mtime: now, Ctime: now,
	}
}

func synthesizedDirAttr() Attr {
	now := time.Now()
	return Attr{
		Mode:  os.ModeDir | 0755,
		Nlink: 2,
		Size:  0,
		UID:   uint32(os.Getuid()),
		GID:   uint32(os.Getgid()),
		Atime: now, Mtime: now, Ctime: now,
	}
}

func attrFromStat(fi os.FileInfo) Attr {
	a := Attr{
		Mode:  fi.Mode(),
		Nlink: 1,
		Size:  fi.Size(),
		Atime: fi.ModTime(),
		Mtime: fi.ModTime(),
		Ctime: fi.ModTime(),
	}
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		a.Nlink = uint32(st.Nlink)
		a.UID = st.Uid
		a.GID = st.Gid
		a.Atime = time.Unix(st.Atim.Sec, st.Atim.Nsec)
		a.Ctime = time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
	}
	return a
}

// Getattr implements spec.md §4.8's getattr contract.
func (f *Facade) Getattr(p string) (Attr, error) {
	f.countOp("getattr")
	if isPlexCompat(p) {
		return synthesizedFileAttr(), nil
	}

	f.mu.RLock()
	isVirtual := f.idx.IsVirtualDir(p)
	var backing string
	if !isVirtual {
		backing = f.resolve(p)
	}
	f.mu.RUnlock()

	if isVirtual {
		return synthesizedDirAttr(), nil
	}

	if neg, ok := f.negStat.Get(backing); ok && neg.(bool) {
		return Attr{}, syscall.ENOENT
	}

	fi, err := os.Lstat(backing)
	if err != nil {
		if os.IsNotExist(err) {
			f.negStat.SetDefault(backing, true)
			return Attr{}, syscall.ENOENT
		}
		return Attr{}, guard(err)
	}
	return attrFromStat(fi), nil
}

// Access implements spec.md §4.8's access contract. EACCES is used
// unconditionally for denied access, per the Open Question decision in
// DESIGN.md.
func (f *Facade) Access(p string, mode uint32) error {
	f.countOp("access")
	if isPlexCompat(p) {
		return nil
	}

	f.mu.RLock()
	isVirtual := f.idx.IsVirtualDir(p)
	var backing string
	if !isVirtual {
		backing = f.resolve(p)
	}
	f.mu.RUnlock()

	if isVirtual {
		return nil
	}

	if _, err := os.Lstat(backing); err != nil {
		if os.IsNotExist(err) {
			return syscall.ENOENT
		}
		return guard(err)
	}
	if err := unixAccess(backing, mode); err != nil {
		return syscall.EACCES
	}
	return nil
}

// Readdir implements spec.md §4.8's readdir contract: "." and "..",
// plus either the virtual directory's synthesized children or the
// backing directory's unshadowed entries, plus any virtual-directory
// children of p, plus the Plex-compatibility basenames, deduplicated.
func (f *Facade) Readdir(p string) ([]string, error) {
	f.countOp("readdir")

	f.mu.RLock()
	defer f.mu.RUnlock()

	seen := map[string]struct{}{".": {}, "..": {}}
	add := func(names ...string) {
		for _, n := range names {
			seen[n] = struct{}{}
		}
	}
	add(".", "..")

	if f.idx.IsVirtualDir(p) {
		add(f.idx.ChildNames(p)...)
	} else {
		backing := f.resolve(p)
		if fi, err := os.Stat(backing); err == nil && fi.IsDir() {
			entries, err := os.ReadDir(backing)
			if err != nil {
				return nil, guard(err)
			}
			originals := f.idx.Originals()
			for _, e := range entries {
				childPresented := path.Join(p, e.Name())
				if !pathutil.IsShadowed(childPresented, originals) {
					add(e.Name())
				}
			}
		}
	}

	add(".grab", ".plexmatch", ".plexignore")
	add(f.idx.VirtualChildNames(p)...)

	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

// Read implements spec.md §4.8's read contract.
func (f *Facade) Read(p string, size int, offset int64) ([]byte, error) {
	f.countOp("read")
	if isPlexCompat(p) {
		return []byte{}, nil
	}

	f.mu.Lock()
	backing := f.resolve(p)
	handle, err := f.handles.Get(backing)
	f.mu.Unlock()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, syscall.ENOENT
		}
		if e := guard(err); e != syscall.ENOTSUP {
			return nil, e
		}
		return []byte{}, nil
	}

	buf := make([]byte, size)
	n, err := handle.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		if e := guard(err); e != syscall.ENOTSUP {
			return nil, e
		}
		return []byte{}, nil
	}
	if f.opt.Metrics != nil {
		f.opt.Metrics.BackingReads.Inc()
	}
	return buf[:n], nil
}

// Open implements spec.md §4.8's open contract: resolve, prime the
// handle cache, and return the degenerate handle 0 (see DESIGN.md's
// Open Question (a)).
func (f *Facade) Open(p string) (uint64, error) {
	f.countOp("open")
	if isPlexCompat(p) {
		return 0, nil
	}

	f.mu.Lock()
	backing := f.resolve(p)
	_, err := f.handles.Get(backing)
	f.mu.Unlock()
	if err != nil {
		if os.IsNotExist(err) {
			return 0, syscall.ENOENT
		}
		return 0, guard(err)
	}
	return 0, nil
}

// Release implements spec.md §4.8's release contract.
func (f *Facade) Release(p string) error {
	f.countOp("release")
	if isPlexCompat(p) {
		return nil
	}
	f.mu.Lock()
	backing := f.resolve(p)
	f.handles.Close(backing)
	f.mu.Unlock()
	return nil
}

// Getxattr implements spec.md §4.8's getxattr contract, via
// github.com/pkg/xattr (the same library backend/local/xattr.go uses).
// Unknown attributes or unsupported operations yield an empty result,
// never an error, matching the original's behavior.
func (f *Facade) Getxattr(p, name string) ([]byte, error) {
	f.countOp("getxattr")

	f.mu.RLock()
	backing := f.resolve(p)
	f.mu.RUnlock()

	v, err := xattr.Get(backing, name)
	if err != nil {
		return []byte{}, nil
	}
	return v, nil
}

// Lock implements spec.md §4.8's advisory-lock stub: it always
// succeeds without doing anything.
func (f *Facade) Lock(p string) error {
	f.countOp("lock")
	return nil
}

// guard is the unifying error guard from spec.md §4.8/§7. It never
// returns nil for a non-nil input: unsupported-operation failures are
// left to the caller (which substitutes the empty-result contract for
// read-type calls); anything else becomes a generic invalid-argument
// failure. ENOENT/EACCES are handled by callers before reaching here.
func guard(err error) error {
	if errno, ok := underlyingErrno(err); ok {
		switch errno {
		case syscall.ENOENT:
			return syscall.ENOENT
		case syscall.EACCES:
			return syscall.EACCES
		case syscall.ENOTSUP:
			return syscall.ENOTSUP
		}
	}
	return syscall.EINVAL
}

func underlyingErrno(err error) (syscall.Errno, bool) {
	type causer interface{ Unwrap() error }
	for err != nil {
		if errno, ok := err.(syscall.Errno); ok {
			return errno, true
		}
		if pe, ok := err.(*os.PathError); ok {
			err = pe.Err
			continue
		}
		if c, ok := err.(causer); ok {
			err = c.Unwrap()
			continue
		}
		return 0, false
	}
	return 0, false
}

// unixAccess checks mode (a syscall.F_OK/R_OK/W_OK/X_OK bitmask
// passed through from the kernel binding) against backing.
func unixAccess(backing string, mode uint32) error {
	return syscall.Access(backing, mode)
}

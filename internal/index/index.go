// Package index holds the in-memory projection of the durable store:
// a forward map, a reverse map, a per-parent child-basename set, and
// the set of synthesized virtual directories. It is pure data — the
// caller (internal/facade) is responsible for the locking spec.md §5
// requires around it.
package index

import (
	"path"

	"github.com/xlatefs/xlatefs/internal/pathutil"
	"github.com/xlatefs/xlatefs/internal/store"
)

// Index is the four structures described in spec.md §3.
type Index struct {
	Forward      map[string]string              // original -> translated
	Reverse      map[string]string              // translated -> original
	DirStructure map[string]map[string]struct{} // parent -> child basenames
	VirtualDirs  map[string]struct{}
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		Forward:      make(map[string]string),
		Reverse:      make(map[string]string),
		DirStructure: make(map[string]map[string]struct{}),
		VirtualDirs:  make(map[string]struct{}),
	}
}

// Load rebuilds the index from scratch given the full set of rows from
// the store. It allocates four fresh maps, so a map reference captured
// before the call keeps the old contents and does not see the reload.
func (idx *Index) Load(rows []store.Translation) {
	idx.Forward = make(map[string]string, len(rows))
	idx.Reverse = make(map[string]string, len(rows))
	idx.DirStructure = make(map[string]map[string]struct{})
	idx.VirtualDirs = make(map[string]struct{})

	for _, r := range rows {
		idx.insert(r.Original, r.Translated)
	}
}

func (idx *Index) insert(original, translated string) {
	idx.Forward[original] = translated
	idx.Reverse[translated] = original

	dir := path.Dir(translated)
	if idx.DirStructure[dir] == nil {
		idx.DirStructure[dir] = make(map[string]struct{})
	}
	idx.DirStructure[dir][path.Base(translated)] = struct{}{}
	pathutil.AddAncestors(idx.VirtualDirs, dir)
}

// Add applies an add-translation mutation to the index in place,
// retracting the previous pairing for original if one existed. It
// mirrors original_source/translation_fs.py's _add_translation.
func (idx *Index) Add(original, translated string) {
	if prevTranslated, ok := idx.Forward[original]; ok {
		idx.unlink(original, prevTranslated)
	}
	idx.insert(original, translated)
}

// Remove applies a remove-translation mutation. Removing an unknown
// original is a no-op, matching the spec's idempotence requirement.
func (idx *Index) Remove(original string) {
	translated, ok := idx.Forward[original]
	if !ok {
		return
	}
	idx.unlink(original, translated)
}

func (idx *Index) unlink(original, translated string) {
	delete(idx.Forward, original)
	delete(idx.Reverse, translated)

	dir := path.Dir(translated)
	if children, ok := idx.DirStructure[dir]; ok {
		delete(children, path.Base(translated))
		if len(children) == 0 {
			delete(idx.DirStructure, dir)
		}
	}
	pathutil.RemoveAncestors(idx.VirtualDirs, idx.DirStructure, dir)
}

// Purge clears all four structures.
func (idx *Index) Purge() {
	idx.Forward = make(map[string]string)
	idx.Reverse = make(map[string]string)
	idx.DirStructure = make(map[string]map[string]struct{})
	idx.VirtualDirs = make(map[string]struct{})
}

// IsVirtualDir reports whether p is a synthesized virtual directory.
func (idx *Index) IsVirtualDir(p string) bool {
	_, ok := idx.VirtualDirs[p]
	return ok
}

// Resolve implements the presented-path resolution rule from spec.md
// §4.8: an exact reverse-map hit, else the first mapped ancestor
// rewritten with the remaining suffix, else pass-through.
//
// The second return value is true only when the path passed through an
// explicit translation (exact or ancestor-based), matching
// original_source/translation_fs.py's _translate_path.
func (idx *Index) Resolve(presented string) (backing string, translated bool) {
	if original, ok := idx.Reverse[presented]; ok {
		return original, true
	}

	parent := path.Dir(presented)
	for parent != "/" {
		if originalParent, ok := idx.Reverse[parent]; ok {
			suffix := presented[len(parent):]
			return originalParent + suffix, true
		}
		parent = path.Dir(parent)
	}

	return presented, false
}

// ChildNames returns the child basenames synthesized under virtual
// directory p.
func (idx *Index) ChildNames(p string) []string {
	children := idx.DirStructure[p]
	if children == nil {
		return nil
	}
	out := make([]string, 0, len(children))
	for name := range children {
		out = append(out, name)
	}
	return out
}

// VirtualChildNames returns the basenames of virtual directories whose
// parent is exactly p.
func (idx *Index) VirtualChildNames(p string) []string {
	var out []string
	for d := range idx.VirtualDirs {
		if d != p && path.Dir(d) == p {
			out = append(out, path.Base(d))
		}
	}
	return out
}

// Originals returns the forward map, used by the shadow check. Callers
// must not mutate it and must hold at least a read lock on the facade
// while using it.
func (idx *Index) Originals() map[string]string {
	return idx.Forward
}

// Package pathutil implements the pure path algebra the translation
// engine needs: joining the backing root with a presented sub-path,
// deciding whether a presented path is shadowed by a translation, and
// maintaining the set of synthesized virtual-directory ancestors.
package pathutil

import "path"

// JoinRoot joins the backing root R with an absolute sub-path P,
// stripping exactly one leading separator from P first.
func JoinRoot(root, sub string) string {
	if len(sub) > 0 && sub[0] == '/' {
		sub = sub[1:]
	}
	return path.Join(root, sub)
}

// IsShadowed reports whether presented path p is hidden because it is
// itself an original, or lies under one.
func IsShadowed(p string, originals map[string]string) bool {
	if _, ok := originals[p]; ok {
		return true
	}
	for orig := range originals {
		if len(p) > len(orig) && p[:len(orig)] == orig && p[len(orig)] == '/' {
			return true
		}
	}
	return false
}

// AddAncestors inserts d and every proper ancestor of d (other than
// the root "/") into the virtual-dir set.
func AddAncestors(virtual map[string]struct{}, d string) {
	for d != "/" && d != "." && d != "" {
		if _, ok := virtual[d]; ok {
			return
		}
		virtual[d] = struct{}{}
		d = path.Dir(d)
	}
}

// RemoveAncestors walks upward from d toward the root, deleting each
// level from the virtual-dir set as long as no remaining entry in
// dirStructure still needs it as an ancestor. It stops at the first
// level that is still needed, since that level's ancestors are too.
func RemoveAncestors(virtual map[string]struct{}, dirStructure map[string]map[string]struct{}, d string) {
	for d != "/" && d != "." && d != "" {
		if stillNeeded(dirStructure, d) {
			return
		}
		delete(virtual, d)
		d = path.Dir(d)
	}
}

// stillNeeded reports whether any known directory in dirStructure is d
// itself or lies under d, meaning d must remain a virtual ancestor.
func stillNeeded(dirStructure map[string]map[string]struct{}, d string) bool {
	for parent := range dirStructure {
		if parent == d || (len(parent) > len(d) && parent[:len(d)] == d && parent[len(d)] == '/') {
			return true
		}
	}
	return false
}

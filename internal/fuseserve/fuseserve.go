// Package fuseserve adapts internal/facade's path-keyed operations to
// bazil.org/fuse's node-tree interfaces, the same kernel binding
// _examples/other_examples's upspinfs uses. Every fs.Node this package
// hands to the kernel is a thin wrapper around a presented path; all
// real state lives in the facade.
package fuseserve

import (
	"context"
	"os"
	"path"
	"syscall"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
	"github.com/xlatefs/xlatefs/internal/facade"
)

// FS is the bazil.org/fuse root of a mounted translation overlay.
type FS struct {
	Facade *facade.Facade
}

var _ fs.FS = (*FS)(nil)

// Root returns the filesystem's root node.
func (f *FS) Root() (fs.Node, error) {
	return &node{fs: f, path: "/"}, nil
}

// node represents one presented path. It doubles as its own fs.Handle
// once opened, since internal/facade's handle cache makes a separate
// handle object unnecessary.
type node struct {
	fs   *FS
	path string
}

var (
	_ fs.Node              = (*node)(nil)
	_ fs.NodeStringLookuper = (*node)(nil)
	_ fs.NodeAccesser      = (*node)(nil)
	_ fs.HandleReadDirAller = (*node)(nil)
	_ fs.NodeOpener        = (*node)(nil)
	_ fs.HandleReader      = (*node)(nil)
	_ fs.HandleReleaser    = (*node)(nil)
	_ fs.NodeGetxattrer    = (*node)(nil)
)

// Attr implements fs.Node.
func (n *node) Attr(ctx context.Context, attr *fuse.Attr) error {
	a, err := n.fs.Facade.Getattr(n.path)
	if err != nil {
		return toErrno(err)
	}
	attr.Mode = a.Mode
	attr.Size = uint64(a.Size)
	attr.Nlink = a.Nlink
	attr.Uid = a.UID
	attr.Gid = a.GID
	attr.Atime = a.Atime
	attr.Mtime = a.Mtime
	attr.Ctime = a.Ctime
	return nil
}

// Lookup implements fs.NodeStringLookuper.
func (n *node) Lookup(ctx context.Context, name string) (fs.Node, error) {
	child := path.Join(n.path, name)
	if _, err := n.fs.Facade.Getattr(child); err != nil {
		return nil, toErrno(err)
	}
	return &node{fs: n.fs, path: child}, nil
}

// Access implements fs.NodeAccesser.
func (n *node) Access(ctx context.Context, req *fuse.AccessRequest) error {
	if err := n.fs.Facade.Access(n.path, uint32(req.Mask)); err != nil {
		return toErrno(err)
	}
	return nil
}

// ReadDirAll implements fs.HandleReadDirAller. Entry types are left
// unknown; the kernel resolves them with a follow-up Lookup.
func (n *node) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	names, err := n.fs.Facade.Readdir(n.path)
	if err != nil {
		return nil, toErrno(err)
	}
	dirents := make([]fuse.Dirent, 0, len(names))
	for _, name := range names {
		if name == "." || name == ".." {
			continue
		}
		dirents = append(dirents, fuse.Dirent{Name: name})
	}
	return dirents, nil
}

// Open implements fs.NodeOpener. The node itself is returned as the
// handle since all per-open state lives in the facade's handle cache.
func (n *node) Open(ctx context.Context, req *fuse.OpenRequest, resp *fuse.OpenResponse) (fs.Handle, error) {
	if _, err := n.fs.Facade.Open(n.path); err != nil {
		return nil, toErrno(err)
	}
	return n, nil
}

// Read implements fs.HandleReader.
func (n *node) Read(ctx context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	data, err := n.fs.Facade.Read(n.path, req.Size, req.Offset)
	if err != nil {
		return toErrno(err)
	}
	resp.Data = data
	return nil
}

// Release implements fs.HandleReleaser.
func (n *node) Release(ctx context.Context, req *fuse.ReleaseRequest) error {
	return toErrnoOrNil(n.fs.Facade.Release(n.path))
}

// Getxattr implements fs.NodeGetxattrer.
func (n *node) Getxattr(ctx context.Context, req *fuse.GetxattrRequest, resp *fuse.GetxattrResponse) error {
	data, err := n.fs.Facade.Getxattr(n.path, req.Name)
	if err != nil {
		return toErrno(err)
	}
	resp.Xattr = data
	return nil
}

func toErrno(err error) error {
	if err == nil {
		return nil
	}
	if errno, ok := err.(syscall.Errno); ok {
		return fuse.Errno(errno)
	}
	if os.IsNotExist(err) {
		return fuse.Errno(syscall.ENOENT)
	}
	return fuse.Errno(syscall.EIO)
}

func toErrnoOrNil(err error) error {
	if err == nil {
		return nil
	}
	return toErrno(err)
}

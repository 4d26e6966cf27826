package fuse

import (
	"context"
	"sort"
	"strings"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/systemshift/gitlet/internal/repo"
)

// treeEntry is one name directly under a directory of a snapshot.
type treeEntry struct {
	name string
	dir  bool
	blob string // set for files
}

// treeEntries lists the names directly under prefix ("" or "a/b/") in a
// snapshot of slash-separated paths, sorted.
func treeEntries(files map[string]string, prefix string) []treeEntry {
	seen := make(map[string]treeEntry)
	for p, blob := range files {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := p[len(prefix):]
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			seen[rest[:i]] = treeEntry{name: rest[:i], dir: true}
			continue
		}
		seen[rest] = treeEntry{name: rest, blob: blob}
	}
	out := make([]treeEntry, 0, len(seen))
	for _, e := range seen {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// TreeDir is one directory of a commit snapshot.
type TreeDir struct {
	fs.Inode
	repo   *repo.Repository
	files  map[string]string // whole snapshot, path -> blob id
	prefix string            // "" at the snapshot root, else "dir/"
	key    string            // inode key of the snapshot root
}

var _ = (fs.NodeLookuper)((*TreeDir)(nil))
var _ = (fs.NodeReaddirer)((*TreeDir)(nil))
var _ = (fs.NodeGetattrer)((*TreeDir)(nil))

func (d *TreeDir) path(name string) string {
	return d.key + "/" + d.prefix + name
}

func (d *TreeDir) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = 0555
	out.Ino = stableIno(d.key + "/" + strings.TrimSuffix(d.prefix, "/"))
	return fs.OK
}

func (d *TreeDir) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	children := treeEntries(d.files, d.prefix)
	entries := make([]fuse.DirEntry, len(children))
	for i, c := range children {
		mode := uint32(syscall.S_IFREG)
		if c.dir {
			mode = syscall.S_IFDIR
		}
		entries[i] = fuse.DirEntry{Name: c.name, Mode: mode, Ino: stableIno(d.path(c.name))}
	}
	return fs.NewListDirStream(entries), fs.OK
}

func (d *TreeDir) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	for _, c := range treeEntries(d.files, d.prefix) {
		if c.name != name {
			continue
		}
		if c.dir {
			sub := &TreeDir{repo: d.repo, files: d.files, prefix: d.prefix + name + "/", key: d.key}
			return d.NewInode(ctx, sub, fs.StableAttr{Mode: syscall.S_IFDIR, Ino: stableIno(d.path(name))}), fs.OK
		}
		f := &BlobFile{repo: d.repo, blob: c.blob, ino: stableIno(d.path(name))}
		return d.NewInode(ctx, f, fs.StableAttr{Mode: syscall.S_IFREG, Ino: f.ino}), fs.OK
	}
	return nil, syscall.ENOENT
}

// BlobFile serves the content of one stored blob.
type BlobFile struct {
	fs.Inode
	repo *repo.Repository
	blob string
	ino  uint64
}

var _ = (fs.NodeGetattrer)((*BlobFile)(nil))
var _ = (fs.NodeReader)((*BlobFile)(nil))
var _ = (fs.NodeOpener)((*BlobFile)(nil))

func (f *BlobFile) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	data, err := f.repo.ReadBlob(f.blob)
	if err != nil {
		return syscall.EIO
	}
	out.Mode = 0444
	out.Size = uint64(len(data))
	out.Ino = f.ino
	return fs.OK
}

func (f *BlobFile) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	if flags&(syscall.O_WRONLY|syscall.O_RDWR) != 0 {
		return nil, 0, syscall.EROFS
	}
	return nil, fuse.FOPEN_KEEP_CACHE, fs.OK
}

func (f *BlobFile) Read(ctx context.Context, fh fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	data, err := f.repo.ReadBlob(f.blob)
	if err != nil {
		return nil, syscall.EIO
	}
	return readAt(data, dest, off), fs.OK
}

// readAt serves one read request from an in-memory file body.
func readAt(data, dest []byte, off int64) fuse.ReadResult {
	if off >= int64(len(data)) {
		return fuse.ReadResultData(nil)
	}
	end := off + int64(len(dest))
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	return fuse.ReadResultData(data[off:end])
}

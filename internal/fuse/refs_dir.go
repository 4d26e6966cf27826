package fuse

import (
	"context"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/systemshift/gitlet/internal/repo"
)

// BranchesDir lists every branch as a directory holding its head snapshot.
type BranchesDir struct {
	fs.Inode
	repo *repo.Repository
}

var _ = (fs.NodeLookuper)((*BranchesDir)(nil))
var _ = (fs.NodeReaddirer)((*BranchesDir)(nil))
var _ = (fs.NodeGetattrer)((*BranchesDir)(nil))

func (d *BranchesDir) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = 0555
	out.Ino = stableIno("branches")
	return fs.OK
}

func (d *BranchesDir) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	names, err := d.repo.ListBranches()
	if err != nil {
		return nil, syscall.EIO
	}
	entries := make([]fuse.DirEntry, len(names))
	for i, name := range names {
		entries[i] = fuse.DirEntry{
			Name: name,
			Mode: syscall.S_IFDIR,
			Ino:  stableIno("branches/" + name),
		}
	}
	return fs.NewListDirStream(entries), fs.OK
}

func (d *BranchesDir) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	id, commit, err := d.repo.BranchHead(name)
	if err != nil {
		return nil, syscall.ENOENT
	}
	// keyed by head so a moved branch gets a fresh inode
	tree := &TreeDir{repo: d.repo, files: commit.Files, key: "branches/" + name + "@" + id}
	child := d.NewInode(ctx, tree, fs.StableAttr{
		Mode: syscall.S_IFDIR,
		Ino:  stableIno(tree.key),
	})
	return child, fs.OK
}

// CommitsDir lists every stored commit by id. Abbreviated ids resolve on lookup.
type CommitsDir struct {
	fs.Inode
	repo *repo.Repository
}

var _ = (fs.NodeLookuper)((*CommitsDir)(nil))
var _ = (fs.NodeReaddirer)((*CommitsDir)(nil))
var _ = (fs.NodeGetattrer)((*CommitsDir)(nil))

func (d *CommitsDir) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = 0555
	out.Ino = stableIno("commits")
	return fs.OK
}

func (d *CommitsDir) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	var entries []fuse.DirEntry
	for entry, err := range d.repo.GlobalLog() {
		if err != nil {
			return nil, syscall.EIO
		}
		entries = append(entries, fuse.DirEntry{
			Name: entry.ID,
			Mode: syscall.S_IFDIR,
			Ino:  stableIno("commits/" + entry.ID),
		})
	}
	return fs.NewListDirStream(entries), fs.OK
}

func (d *CommitsDir) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	id, commit, err := d.repo.ResolveCommit(name)
	if err != nil {
		return nil, syscall.ENOENT
	}
	tree := &TreeDir{repo: d.repo, files: commit.Files, key: "commits/" + id}
	child := d.NewInode(ctx, tree, fs.StableAttr{
		Mode: syscall.S_IFDIR,
		Ino:  stableIno(tree.key),
	})
	return child, fs.OK
}

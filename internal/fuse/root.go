// Package fuse exposes a repository as a read-only FUSE filesystem:
//
//	branches/<name>/<path>   snapshot at the head of each branch
//	commits/<id>/<path>      snapshot of every stored commit
//	log/HEAD, log/<n>        current head id and first-parent history
package fuse

import (
	"context"
	"hash/fnv"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/systemshift/gitlet/internal/repo"
)

// stableIno returns a stable inode number for a given path string.
func stableIno(path string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(path))
	return h.Sum64()
}

// RootNode is the mountpoint directory. Contains "branches/", "commits/" and "log/".
type RootNode struct {
	fs.Inode
	repo *repo.Repository
}

var _ = (fs.NodeOnAdder)((*RootNode)(nil))
var _ = (fs.NodeGetattrer)((*RootNode)(nil))

func (r *RootNode) OnAdd(ctx context.Context) {
	dirs := []struct {
		name string
		node fs.InodeEmbedder
	}{
		{"branches", &BranchesDir{repo: r.repo}},
		{"commits", &CommitsDir{repo: r.repo}},
		{"log", &LogDir{repo: r.repo}},
	}
	for _, d := range dirs {
		child := r.NewPersistentInode(ctx, d.node, fs.StableAttr{
			Mode: syscall.S_IFDIR,
			Ino:  stableIno(d.name),
		})
		r.AddChild(d.name, child, true)
	}
}

func (r *RootNode) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = 0555
	out.Ino = stableIno("/")
	return fs.OK
}

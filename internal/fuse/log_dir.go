package fuse

import (
	"context"
	"encoding/json"
	"strconv"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/systemshift/gitlet/internal/dag"
	"github.com/systemshift/gitlet/internal/repo"
)

const maxLogEntries = 64

// LogDir exposes the current branch's first-parent history as files.
// Layout: log/HEAD (commit id), log/0 (newest commit JSON), log/1, ...
type LogDir struct {
	fs.Inode
	repo *repo.Repository
}

var _ = (fs.NodeLookuper)((*LogDir)(nil))
var _ = (fs.NodeReaddirer)((*LogDir)(nil))
var _ = (fs.NodeGetattrer)((*LogDir)(nil))

// recentCommits reads HEAD from disk on every call so the view follows
// commands run while mounted.
func recentCommits(r *repo.Repository, limit int) ([]dag.LogEntry, error) {
	branch, err := r.ReadCurrentBranch()
	if err != nil {
		return nil, err
	}
	head, _, err := r.BranchHead(branch)
	if err != nil {
		return nil, err
	}
	var out []dag.LogEntry
	for entry, err := range r.Commits.History(head) {
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (d *LogDir) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = 0555
	out.Ino = stableIno("log")
	return fs.OK
}

func (d *LogDir) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	entries := []fuse.DirEntry{
		{Name: "HEAD", Mode: syscall.S_IFREG, Ino: stableIno("log/HEAD")},
	}
	commits, _ := recentCommits(d.repo, maxLogEntries)
	for i := range commits {
		name := strconv.Itoa(i)
		entries = append(entries, fuse.DirEntry{
			Name: name,
			Mode: syscall.S_IFREG,
			Ino:  stableIno("log/" + name),
		})
	}
	return fs.NewListDirStream(entries), fs.OK
}

func (d *LogDir) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	if name == "HEAD" {
		f := &LogHeadFile{repo: d.repo}
		child := d.NewInode(ctx, f, fs.StableAttr{
			Mode: syscall.S_IFREG,
			Ino:  stableIno("log/HEAD"),
		})
		return child, fs.OK
	}

	idx, err := strconv.Atoi(name)
	if err != nil || idx < 0 || idx >= maxLogEntries || strconv.Itoa(idx) != name {
		return nil, syscall.ENOENT
	}
	commits, _ := recentCommits(d.repo, idx+1)
	if idx >= len(commits) {
		return nil, syscall.ENOENT
	}

	f := &LogEntryFile{entry: commits[idx], name: name}
	child := d.NewInode(ctx, f, fs.StableAttr{
		Mode: syscall.S_IFREG,
		Ino:  stableIno("log/" + name + "@" + commits[idx].ID),
	})
	return child, fs.OK
}

// LogHeadFile returns the id at the tip of the current branch.
type LogHeadFile struct {
	fs.Inode
	repo *repo.Repository
}

var _ = (fs.NodeGetattrer)((*LogHeadFile)(nil))
var _ = (fs.NodeReader)((*LogHeadFile)(nil))
var _ = (fs.NodeOpener)((*LogHeadFile)(nil))

func (f *LogHeadFile) headBytes() []byte {
	commits, err := recentCommits(f.repo, 1)
	if err != nil || len(commits) == 0 {
		return []byte("(none)\n")
	}
	return []byte(commits[0].ID + "\n")
}

func (f *LogHeadFile) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = 0444
	out.Size = uint64(len(f.headBytes()))
	out.Ino = stableIno("log/HEAD")
	return fs.OK
}

func (f *LogHeadFile) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	return nil, fuse.FOPEN_DIRECT_IO, fs.OK
}

func (f *LogHeadFile) Read(ctx context.Context, fh fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	return readAt(f.headBytes(), dest, off), fs.OK
}

// LogEntryFile returns indented JSON for a single commit.
type LogEntryFile struct {
	fs.Inode
	entry dag.LogEntry
	name  string
}

var _ = (fs.NodeGetattrer)((*LogEntryFile)(nil))
var _ = (fs.NodeReader)((*LogEntryFile)(nil))
var _ = (fs.NodeOpener)((*LogEntryFile)(nil))

// commitJSON renders a log entry with its id alongside the commit fields.
func commitJSON(entry dag.LogEntry) []byte {
	data, _ := json.MarshalIndent(struct {
		ID string `json:"id"`
		*dag.Commit
	}{entry.ID, entry.Commit}, "", "  ")
	return append(data, '\n')
}

func (f *LogEntryFile) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = 0444
	out.Size = uint64(len(commitJSON(f.entry)))
	out.Ino = stableIno("log/" + f.name + "@" + f.entry.ID)
	return fs.OK
}

func (f *LogEntryFile) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	return nil, fuse.FOPEN_KEEP_CACHE, fs.OK
}

func (f *LogEntryFile) Read(ctx context.Context, fh fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	return readAt(commitJSON(f.entry), dest, off), fs.OK
}

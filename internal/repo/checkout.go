package repo

import (
	"path"
	"sort"
	"strings"

	"github.com/systemshift/gitlet/internal/dag"
	gerrors "github.com/systemshift/gitlet/internal/errors"
	"github.com/systemshift/gitlet/internal/logging"
)

const msgUntrackedInTheWay = "There is an untracked file in the way; delete it, or add and commit it first."

// CheckoutFile overwrites the working copy of path with its version in the
// commit named by commitRef, or in the current head when commitRef is empty.
// The stage is left alone.
func (r *Repository) CheckoutFile(commitRef, path string) error {
	defer logging.LogOperationStart(r.log, "checkout-file")()

	var commit *dag.Commit
	var err error
	if commitRef == "" {
		_, commit, err = r.Head()
	} else {
		_, commit, err = r.ResolveCommit(commitRef)
	}
	if err != nil {
		return err
	}

	notInCommit := gerrors.New(gerrors.ErrFileNotInCommit, "File does not exist in that commit.")
	p, err := r.Work.Clean(path)
	if err != nil {
		return notInCommit
	}
	blob, ok := commit.Files[p]
	if !ok {
		return notInCommit
	}
	data, err := r.ReadBlob(blob)
	if err != nil {
		return err
	}
	if err := r.Work.Write(p, data); err != nil {
		return internal(err, "write %s", p)
	}
	return nil
}

// CheckoutBranch replaces the working tree with the head of branch name,
// makes it the current branch and clears the stage.
func (r *Repository) CheckoutBranch(name string) error {
	defer logging.LogOperationStart(r.log, "checkout-branch")()

	if !dag.ValidRefName(name) || !r.Branches.Has(name) {
		return gerrors.New(gerrors.ErrNoSuchBranch, "No such branch exists.")
	}
	if name == r.branch {
		return gerrors.New(gerrors.ErrSameBranch, "No need to checkout the current branch.")
	}
	_, cur, err := r.Head()
	if err != nil {
		return err
	}
	_, target, err := r.BranchHead(name)
	if err != nil {
		return err
	}
	if err := r.checkSnapshot(cur, target); err != nil {
		return err
	}
	if err := r.applySnapshot(cur, target); err != nil {
		return err
	}

	if err := r.head.SetBranch(name); err != nil {
		return internal(err, "write HEAD")
	}
	r.branch = name
	r.stage.Clear()
	if err := r.saveStage(); err != nil {
		return err
	}
	r.log.Info().Str("branch", name).Msg("Switched branch")
	return nil
}

// Reset checks out the commit named by ref, moves the current branch to it
// regardless of ancestry and clears the stage.
func (r *Repository) Reset(ref string) error {
	defer logging.LogOperationStart(r.log, "reset")()

	id, target, err := r.ResolveCommit(ref)
	if err != nil {
		return err
	}
	_, cur, err := r.Head()
	if err != nil {
		return err
	}
	if err := r.checkSnapshot(cur, target); err != nil {
		return err
	}
	if err := r.applySnapshot(cur, target); err != nil {
		return err
	}

	if err := r.Branches.Set(r.branch, id); err != nil {
		return internal(err, "move branch %s", r.branch)
	}
	r.stage.Clear()
	if err := r.saveStage(); err != nil {
		return err
	}
	r.log.Info().Str("branch", r.branch).Str("commit", id).Msg("Reset branch")
	return nil
}

// dropped returns the paths cur tracks and target does not.
func dropped(cur, target *dag.Commit) map[string]bool {
	gone := make(map[string]bool)
	for p := range cur.Files {
		if !target.Tracks(p) {
			gone[p] = true
		}
	}
	return gone
}

// checkSnapshot fails when replacing cur with target would clobber anything
// cur does not track.
func (r *Repository) checkSnapshot(cur, target *dag.Commit) error {
	return r.checkUntracked(cur, target.Files, dropped(cur, target))
}

// checkUntracked fails when writing writes (path to blob) after deleting
// removes would overwrite or need to delete anything cur does not track.
// Parent directories and directories at written paths are checked too.
func (r *Repository) checkUntracked(cur *dag.Commit, writes map[string]string, removes map[string]bool) error {
	for _, p := range sortedKeys(writes) {
		blocker, err := r.blocker(cur, p, writes[p], removes)
		if err != nil {
			return err
		}
		if blocker != "" {
			return gerrors.New(gerrors.ErrUntrackedOverwrite, msgUntrackedInTheWay).
				WithDetail("path", blocker)
		}
	}
	return nil
}

// blocker returns the working path that keeps blob from being written at p,
// or "" when nothing untracked is in the way.
func (r *Repository) blocker(cur *dag.Commit, p, blob string, removes map[string]bool) (string, error) {
	parts := strings.Split(p, "/")
	for i := 1; i < len(parts); i++ {
		dir := strings.Join(parts[:i], "/")
		kind, err := r.Work.Kind(dir)
		if err != nil {
			return "", internal(err, "inspect %s", dir)
		}
		switch {
		case kind == EntryDir:
			continue
		case kind == EntryMissing:
			return "", nil
		case kind == EntryFile && removes[dir]:
			return "", nil
		}
		return dir, nil
	}

	kind, err := r.Work.Kind(p)
	if err != nil {
		return "", internal(err, "inspect %s", p)
	}
	switch kind {
	case EntryMissing:
		return "", nil
	case EntryDir:
		entries, err := r.Work.Entries(p)
		if err != nil {
			return "", internal(err, "list %s", p)
		}
		for _, e := range entries {
			if !removes[e] {
				return e, nil
			}
		}
		return "", nil
	case EntryFile:
		if cur.Tracks(p) {
			return "", nil
		}
		data, err := r.Work.Read(p)
		if err != nil {
			return "", internal(err, "read %s", p)
		}
		id, err := r.Blobs.IDOf(data)
		if err != nil {
			return "", internal(err, "hash %s", p)
		}
		if id == blob {
			return "", nil
		}
	}
	return p, nil
}

// applySnapshot rewrites the working tree from cur to target. Every blob is
// read before the first file is touched.
func (r *Repository) applySnapshot(cur, target *dag.Commit) error {
	contents := make(map[string][]byte, len(target.Files))
	for p, blob := range target.Files {
		data, err := r.ReadBlob(blob)
		if err != nil {
			return err
		}
		contents[p] = data
	}
	return r.rewrite(contents, dropped(cur, target))
}

// rewrite deletes removes, pruning directories they leave empty, then writes
// every file in writes. A directory left at a written path is cleared first.
func (r *Repository) rewrite(writes map[string][]byte, removes map[string]bool) error {
	gone := make([]string, 0, len(removes))
	for p := range removes {
		gone = append(gone, p)
	}
	sort.Strings(gone)
	for _, p := range gone {
		if err := r.Work.Remove(p); err != nil {
			return internal(err, "remove %s", p)
		}
		r.Work.PruneDirs(path.Dir(p))
	}

	paths := make([]string, 0, len(writes))
	for p := range writes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		kind, err := r.Work.Kind(p)
		if err != nil {
			return internal(err, "inspect %s", p)
		}
		if kind == EntryDir {
			if err := r.Work.RemoveEmptyDir(p); err != nil {
				return internal(err, "clear %s", p)
			}
		}
		if err := r.Work.Write(p, writes[p]); err != nil {
			return internal(err, "write %s", p)
		}
	}
	return nil
}

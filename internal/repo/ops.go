package repo

import (
	"iter"
	"time"

	"github.com/systemshift/gitlet/internal/dag"
	gerrors "github.com/systemshift/gitlet/internal/errors"
	"github.com/systemshift/gitlet/internal/logging"
)

// Add stages the working copy of path. Staging content identical to the
// tracked version unstages the path instead.
func (r *Repository) Add(path string) error {
	defer logging.LogOperationStart(r.log, "add")()

	p, err := r.Work.Clean(path)
	if err != nil || !r.Work.Exists(p) {
		return gerrors.New(gerrors.ErrFileNotFound, "File does not exist.")
	}
	data, err := r.Work.Read(p)
	if err != nil {
		return internal(err, "read %s", p)
	}
	_, head, err := r.Head()
	if err != nil {
		return err
	}
	blob, err := r.Blobs.Put(data)
	if err != nil {
		return internal(err, "store blob")
	}

	r.stage.AddWithUnstageCheck(p, blob, head.Files)
	r.log.Debug().Str("path", p).Str("blob", blob).Msg("Staged file")
	return r.saveStage()
}

// Commit records the stage on top of the current head and advances the
// current branch. now is the commit timestamp.
func (r *Repository) Commit(message string, now time.Time) (string, error) {
	defer logging.LogOperationStart(r.log, "commit")()

	if message == "" {
		return "", gerrors.New(gerrors.ErrEmptyMessage, "Please enter a commit message.")
	}
	if r.stage.Empty() {
		return "", gerrors.New(gerrors.ErrEmptyCommit, "No changes added to the commit.")
	}
	return r.commitStage(message, now, "")
}

// commitStage writes a commit of the current stage, moves the current branch
// to it and clears the stage. secondParent is set only for merges.
func (r *Repository) commitStage(message string, now time.Time, secondParent string) (string, error) {
	headID, head, err := r.Head()
	if err != nil {
		return "", err
	}
	c := dag.NewCommit(message, now, headID, secondParent, r.stage.Apply(head.Files))
	id, err := r.Commits.Write(c)
	if err != nil {
		return "", internal(err, "write commit")
	}
	if r.log.Debug().Enabled() {
		r.log.Debug().Str("commit", id).Strs("changed", dag.DiffFiles(head.Files, c.Files)).Msg("Wrote commit")
	}
	if err := r.Branches.Set(r.branch, id); err != nil {
		return "", internal(err, "advance branch %s", r.branch)
	}
	r.stage.Clear()
	if err := r.saveStage(); err != nil {
		return "", err
	}
	return id, nil
}

// Remove unstages path and, when the current commit tracks it, stages its
// removal and deletes the working copy.
func (r *Repository) Remove(path string) error {
	defer logging.LogOperationStart(r.log, "rm")()

	nothing := gerrors.New(gerrors.ErrNothingToRemove, "No reason to remove the file.")
	p, err := r.Work.Clean(path)
	if err != nil {
		return nothing
	}
	_, head, err := r.Head()
	if err != nil {
		return err
	}
	_, staged := r.stage.Staged(p)
	tracked := head.Tracks(p)
	if !staged && !tracked {
		return nothing
	}

	r.stage.Unstage(p)
	if tracked {
		r.stage.MarkRemoved(p)
		if err := r.Work.Remove(p); err != nil {
			return internal(err, "remove %s", p)
		}
	}
	return r.saveStage()
}

// CreateBranch points a new branch at the current head. HEAD does not move.
func (r *Repository) CreateBranch(name string) error {
	if !dag.ValidRefName(name) {
		return gerrors.Newf(gerrors.ErrInvalidBranchName, "Invalid branch name: %s", name)
	}
	if r.Branches.Has(name) {
		return gerrors.New(gerrors.ErrBranchExists, "A branch with that name already exists.")
	}
	headID, _, err := r.Head()
	if err != nil {
		return err
	}
	if err := r.Branches.Set(name, headID); err != nil {
		return internal(err, "create branch %s", name)
	}
	r.log.Debug().Str("branch", name).Str("commit", headID).Msg("Created branch")
	return nil
}

// RemoveBranch deletes the pointer only; its commits stay in the store.
func (r *Repository) RemoveBranch(name string) error {
	if !dag.ValidRefName(name) || !r.Branches.Has(name) {
		return gerrors.New(gerrors.ErrNoSuchBranch, "A branch with that name does not exist.")
	}
	if name == r.branch {
		return gerrors.New(gerrors.ErrRemoveCurrentBranch, "Cannot remove the current branch.")
	}
	if err := r.Branches.Delete(name); err != nil {
		return internal(err, "remove branch %s", name)
	}
	return nil
}

// ListBranches returns every branch name, sorted.
func (r *Repository) ListBranches() ([]string, error) {
	names, err := r.Branches.List()
	if err != nil {
		return nil, internal(err, "list branches")
	}
	return names, nil
}

// Log walks the current branch's first-parent history, newest first.
func (r *Repository) Log() (iter.Seq2[dag.LogEntry, error], error) {
	headID, _, err := r.Head()
	if err != nil {
		return nil, err
	}
	return r.Commits.History(headID), nil
}

// GlobalLog yields every commit ever made, reachable or not.
func (r *Repository) GlobalLog() iter.Seq2[dag.LogEntry, error] {
	return r.Commits.All()
}

// Find returns the ids of every commit whose message equals message exactly.
func (r *Repository) Find(message string) ([]string, error) {
	var ids []string
	for entry, err := range r.Commits.All() {
		if err != nil {
			return nil, internal(err, "scan commits")
		}
		if entry.Commit.Message == message {
			ids = append(ids, entry.ID)
		}
	}
	if len(ids) == 0 {
		return nil, gerrors.New(gerrors.ErrNoMatchingCommit, "Found no commit with that message.")
	}
	return ids, nil
}

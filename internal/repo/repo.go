// Package repo implements the version-control operations on top of the
// content-addressed store in internal/dag. A Repository value is the whole
// per-command context: it holds the repository lock, the current branch and
// the stage, and persists them as operations succeed.
package repo

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	gocid "github.com/ipfs/go-cid"
	"github.com/rs/zerolog"

	"github.com/systemshift/gitlet/internal/dag"
	gerrors "github.com/systemshift/gitlet/internal/errors"
	"github.com/systemshift/gitlet/internal/logging"
)

const (
	// DirName is the repository directory inside the working directory.
	DirName = ".gitlet"

	DefaultBranch  = "master"
	InitialMessage = "initial commit"
)

const (
	msgAlreadyInitialized = "A Gitlet version-control system already exists in the current directory."
	msgUninitialized      = "Not in an initialized Gitlet directory."
)

// Options tunes repository creation.
type Options struct {
	DefaultBranch  string
	InitialMessage string
}

func (o Options) withDefaults() Options {
	if o.DefaultBranch == "" {
		o.DefaultBranch = DefaultBranch
	}
	if o.InitialMessage == "" {
		o.InitialMessage = InitialMessage
	}
	return o
}

// Repository is the top-level facade for one repository.
type Repository struct {
	workDir  string
	dir      string
	Blobs    *dag.ObjectStore
	Commits  *dag.CommitGraph
	Branches *dag.RefStore
	Work     *Worktree

	head      *dag.HeadFile
	indexPath string
	lock      *Lock

	branch string // checked-out branch, loaded from HEAD
	stage  *Stage
	log    zerolog.Logger
}

// Dir returns the path to the .gitlet/ directory under workDir.
func Dir(workDir string) string {
	return filepath.Join(workDir, DirName)
}

// Exists reports whether workDir holds an initialized repository.
func Exists(workDir string) bool {
	dir := Dir(workDir)
	for _, p := range []string{
		dir,
		filepath.Join(dir, "objects", "commits"),
		filepath.Join(dir, "objects", "blobs"),
		filepath.Join(dir, "refs", "heads"),
	} {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			return false
		}
	}
	_, err := os.Stat(filepath.Join(dir, "HEAD"))
	return err == nil
}

// Init creates a repository in workDir with a root commit on the default
// branch, and returns it opened and locked.
func Init(workDir string, opts Options) (*Repository, error) {
	opts = opts.withDefaults()
	if !dag.ValidRefName(opts.DefaultBranch) {
		return nil, gerrors.Newf(gerrors.ErrInvalidBranchName, "Invalid branch name: %s", opts.DefaultBranch)
	}
	dir := Dir(workDir)
	if _, err := os.Stat(dir); err == nil {
		return nil, gerrors.New(gerrors.ErrAlreadyInitialized, msgAlreadyInitialized)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, internal(err, "create repository directory")
	}

	r, err := open(workDir)
	if err != nil {
		return nil, err
	}
	if err := r.acquire(); err != nil {
		return nil, err
	}

	// Every repository starts from the same root commit, so all roots share an id.
	root := dag.NewCommit(opts.InitialMessage, time.Unix(0, 0), "", "", nil)
	rootID, err := r.Commits.Write(root)
	if err != nil {
		r.Close()
		return nil, internal(err, "write root commit")
	}
	if err := r.Branches.Set(opts.DefaultBranch, rootID); err != nil {
		r.Close()
		return nil, internal(err, "create default branch")
	}
	if err := r.head.SetBranch(opts.DefaultBranch); err != nil {
		r.Close()
		return nil, internal(err, "write HEAD")
	}
	r.branch = opts.DefaultBranch
	r.stage = NewStage()
	if err := r.saveStage(); err != nil {
		r.Close()
		return nil, err
	}

	r.log.Info().Str("branch", r.branch).Str("root", rootID).Msg("Initialized repository")
	return r, nil
}

// Open opens the repository in workDir, blocking until it holds the
// repository lock, and loads HEAD and the stage.
func Open(workDir string) (*Repository, error) {
	if !Exists(workDir) {
		return nil, gerrors.New(gerrors.ErrUninitialized, msgUninitialized)
	}
	r, err := open(workDir)
	if err != nil {
		return nil, err
	}
	if err := r.acquire(); err != nil {
		return nil, err
	}
	if err := r.load(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// OpenReadOnly opens the repository without taking the lock. Only immutable
// objects and atomically replaced refs may be read through it; it must not
// be used for any mutating operation.
func OpenReadOnly(workDir string) (*Repository, error) {
	if !Exists(workDir) {
		return nil, gerrors.New(gerrors.ErrUninitialized, msgUninitialized)
	}
	r, err := open(workDir)
	if err != nil {
		return nil, err
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func open(workDir string) (*Repository, error) {
	dir := Dir(workDir)

	blobs, err := dag.NewObjectStore(filepath.Join(dir, "objects", "blobs"), gocid.Raw)
	if err != nil {
		return nil, internal(err, "open blob store")
	}
	commits, err := dag.NewObjectStore(filepath.Join(dir, "objects", "commits"), gocid.DagJSON)
	if err != nil {
		return nil, internal(err, "open commit store")
	}
	branches, err := dag.NewRefStore(filepath.Join(dir, "refs", "heads"))
	if err != nil {
		return nil, internal(err, "open branch registry")
	}

	return &Repository{
		workDir:   workDir,
		dir:       dir,
		Blobs:     blobs,
		Commits:   dag.NewCommitGraph(commits),
		Branches:  branches,
		Work:      NewWorktree(workDir),
		head:      dag.NewHeadFile(filepath.Join(dir, "HEAD")),
		indexPath: filepath.Join(dir, "index"),
		stage:     NewStage(),
		log:       logging.GetLogger("repo"),
	}, nil
}

func (r *Repository) acquire() error {
	path := filepath.Join(r.dir, "lock")
	lock, ok, err := TryAcquireLock(path)
	if err != nil {
		return internal(err, "lock repository")
	}
	if !ok {
		r.log.Info().Str("lock", path).Msg("Waiting for another gitlet command to finish")
		if lock, err = AcquireLock(path); err != nil {
			return internal(err, "lock repository")
		}
	}
	r.lock = lock
	return nil
}

func (r *Repository) load() error {
	branch, err := r.head.Branch()
	if err != nil {
		return internal(err, "read HEAD")
	}
	if !r.Branches.Has(branch) {
		return gerrors.Newf(gerrors.ErrInternal, "HEAD names missing branch %s", branch)
	}
	stage, err := LoadStage(r.indexPath)
	if err != nil {
		return internal(err, "load index")
	}
	r.branch = branch
	r.stage = stage
	return nil
}

// Close releases the repository lock.
func (r *Repository) Close() error {
	err := r.lock.Release()
	r.lock = nil
	return err
}

// Dir returns the path to the .gitlet/ directory.
func (r *Repository) Dir() string {
	return r.dir
}

// WorkDir returns the working directory root.
func (r *Repository) WorkDir() string {
	return r.workDir
}

// CurrentBranch returns the checked-out branch.
func (r *Repository) CurrentBranch() string {
	return r.branch
}

// ReadCurrentBranch re-reads HEAD from disk. Used by long-lived readers that
// do not hold the lock.
func (r *Repository) ReadCurrentBranch() (string, error) {
	return r.head.Branch()
}

// Stage returns the loaded stage. Callers must not modify it.
func (r *Repository) Stage() *Stage {
	return r.stage
}

// Head returns the id and commit at the tip of the current branch.
func (r *Repository) Head() (string, *dag.Commit, error) {
	return r.BranchHead(r.branch)
}

// BranchHead returns the id and commit at the tip of branch.
func (r *Repository) BranchHead(branch string) (string, *dag.Commit, error) {
	id, err := r.Branches.Get(branch)
	if errors.Is(err, dag.ErrRefNotFound) {
		return "", nil, gerrors.Wrap(err, gerrors.ErrNoSuchBranch, "No such branch exists.")
	}
	if err != nil {
		return "", nil, internal(err, "read branch %s", branch)
	}
	commit, err := r.Commits.Get(id)
	if err != nil {
		return "", nil, internal(err, "read commit %s", id)
	}
	return id, commit, nil
}

// ResolveCommit expands a full or abbreviated commit id.
func (r *Repository) ResolveCommit(ref string) (string, *dag.Commit, error) {
	id, err := r.Commits.Resolve(ref)
	switch {
	case errors.Is(err, dag.ErrObjectNotFound):
		return "", nil, gerrors.Wrap(err, gerrors.ErrNoSuchCommit, "No commit with that id exists.")
	case errors.Is(err, dag.ErrAmbiguousID):
		return "", nil, gerrors.Wrap(err, gerrors.ErrAmbiguousID, "More than one commit matches that id.")
	case err != nil:
		return "", nil, internal(err, "resolve commit")
	}
	commit, err := r.Commits.Get(id)
	if err != nil {
		return "", nil, internal(err, "read commit %s", id)
	}
	return id, commit, nil
}

// ReadBlob returns a blob's content.
func (r *Repository) ReadBlob(id string) ([]byte, error) {
	data, err := r.Blobs.Get(id)
	if err != nil {
		return nil, internal(err, "read blob")
	}
	return data, nil
}

func (r *Repository) saveStage() error {
	if err := r.stage.Save(r.indexPath); err != nil {
		return internal(err, "save index")
	}
	return nil
}

// internal wraps an unexpected failure. Typed failures pass through.
func internal(err error, format string, args ...interface{}) error {
	var typed *gerrors.Error
	if errors.As(err, &typed) {
		return err
	}
	return gerrors.Wrapf(err, gerrors.ErrInternal, format, args...)
}

package repo

import (
	"bytes"
	"fmt"
	"time"

	"github.com/systemshift/gitlet/internal/dag"
	gerrors "github.com/systemshift/gitlet/internal/errors"
	"github.com/systemshift/gitlet/internal/logging"
)

// MergeOutcome tells how a merge ended.
type MergeOutcome int

const (
	// MergeCommitted means a two-parent merge commit was created.
	MergeCommitted MergeOutcome = iota
	// MergeAlreadyAncestor means the given branch was already contained in
	// the current one. Nothing changed.
	MergeAlreadyAncestor
	// MergeFastForwarded means the current branch was moved to the given
	// branch's head.
	MergeFastForwarded
)

func (o MergeOutcome) String() string {
	switch o {
	case MergeCommitted:
		return "committed"
	case MergeAlreadyAncestor:
		return "already-ancestor"
	case MergeFastForwarded:
		return "fast-forwarded"
	default:
		return fmt.Sprintf("MergeOutcome(%d)", int(o))
	}
}

// MergeResult reports a successful merge.
type MergeResult struct {
	Outcome   MergeOutcome
	CommitID  string   // merge commit, or the new head after a fast-forward
	Conflicts []string // paths written with conflict markers, sorted
}

// Conflicted reports whether any path hit a conflict.
func (m *MergeResult) Conflicted() bool {
	return len(m.Conflicts) > 0
}

type mergeAction int

const (
	keepCurrent mergeAction = iota
	takeGiven
	removeFile
	conflict
)

// classify decides what a merge does with one path given its blob id in the
// current head, the given head and the split point ("" when absent).
func classify(c, g, s string) mergeAction {
	switch {
	case g == s:
		return keepCurrent
	case c == s && g == "":
		return removeFile
	case c == s:
		return takeGiven
	case c == g:
		return keepCurrent
	default:
		return conflict
	}
}

// ConflictContent returns the working-file body recorded for a conflicted
// path. An absent side contributes nothing.
func ConflictContent(current, given []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("<<<<<<< HEAD\n")
	buf.Write(current)
	buf.WriteString("=======\n")
	buf.Write(given)
	buf.WriteString(">>>>>>>\n")
	return buf.Bytes()
}

type mergeStep struct {
	path   string
	action mergeAction
	blob   string
	data   []byte
}

// Merge merges branch given into the current branch. now is the timestamp of
// the merge commit.
func (r *Repository) Merge(given string, now time.Time) (*MergeResult, error) {
	defer logging.LogOperationStart(r.log, "merge")()

	if !r.stage.Empty() {
		return nil, gerrors.New(gerrors.ErrDirtyState, "You have uncommitted changes.")
	}
	if given == r.branch {
		return nil, gerrors.New(gerrors.ErrSelfMerge, "Cannot merge a branch with itself.")
	}
	if !r.Branches.Has(given) {
		return nil, gerrors.New(gerrors.ErrNoSuchBranch, "A branch with that name does not exist.")
	}

	curID, cur, err := r.Head()
	if err != nil {
		return nil, err
	}
	givenID, giv, err := r.BranchHead(given)
	if err != nil {
		return nil, err
	}
	if err := r.checkSnapshot(cur, giv); err != nil {
		return nil, err
	}

	splitID, err := r.Commits.SplitPoint(curID, givenID)
	if err != nil {
		return nil, internal(err, "find split point")
	}
	r.log.Debug().Str("current", curID).Str("given", givenID).Str("split", splitID).Msg("Found split point")

	switch splitID {
	case givenID:
		return &MergeResult{Outcome: MergeAlreadyAncestor, CommitID: curID}, nil
	case curID:
		return r.fastForward(cur, giv, given, givenID)
	}

	split := dag.NewCommit("", time.Time{}, "", "", nil)
	if splitID != "" {
		if split, err = r.Commits.Get(splitID); err != nil {
			return nil, internal(err, "read split point")
		}
	}

	steps, err := r.planMerge(cur, giv, split)
	if err != nil {
		return nil, err
	}

	result := &MergeResult{Outcome: MergeCommitted}
	writes := make(map[string][]byte)
	blobs := make(map[string]string)
	removes := make(map[string]bool)
	for _, st := range steps {
		switch st.action {
		case takeGiven, conflict:
			writes[st.path], blobs[st.path] = st.data, st.blob
			if st.action == conflict {
				result.Conflicts = append(result.Conflicts, st.path)
			}
		case removeFile:
			removes[st.path] = true
		}
	}
	if err := r.checkUntracked(cur, blobs, removes); err != nil {
		return nil, err
	}
	if err := r.rewrite(writes, removes); err != nil {
		return nil, err
	}
	for p, blob := range blobs {
		r.stage.Add(p, blob)
	}
	for p := range removes {
		r.stage.MarkRemoved(p)
	}

	message := fmt.Sprintf("Merged %s into %s.", given, r.branch)
	id, err := r.commitStage(message, now, givenID)
	if err != nil {
		return nil, err
	}
	result.CommitID = id
	if result.Conflicted() {
		r.log.Warn().Strs("paths", result.Conflicts).Msg("Merge recorded conflicts")
	}
	return result, nil
}

// planMerge classifies every path of the three snapshots and loads the
// content each change needs. Nothing is written.
func (r *Repository) planMerge(cur, giv, split *dag.Commit) ([]mergeStep, error) {
	union := make(map[string]string)
	for _, snap := range []*dag.Commit{cur, giv, split} {
		for p, id := range snap.Files {
			union[p] = id
		}
	}

	var steps []mergeStep
	for _, p := range sortedKeys(union) {
		c, g, s := cur.Files[p], giv.Files[p], split.Files[p]
		st := mergeStep{path: p, action: classify(c, g, s)}

		switch st.action {
		case keepCurrent:
			continue
		case takeGiven:
			data, err := r.ReadBlob(g)
			if err != nil {
				return nil, err
			}
			st.blob, st.data = g, data
		case conflict:
			current, err := r.readOptionalBlob(c)
			if err != nil {
				return nil, err
			}
			other, err := r.readOptionalBlob(g)
			if err != nil {
				return nil, err
			}
			st.data = ConflictContent(current, other)
			if st.blob, err = r.Blobs.Put(st.data); err != nil {
				return nil, internal(err, "store conflict for %s", p)
			}
		}
		steps = append(steps, st)
	}
	return steps, nil
}

// fastForward checks out the given branch: its files replace the working
// tree, HEAD names it and the stage is cleared. No commit is made.
func (r *Repository) fastForward(cur, giv *dag.Commit, given, givenID string) (*MergeResult, error) {
	if err := r.applySnapshot(cur, giv); err != nil {
		return nil, err
	}
	if err := r.head.SetBranch(given); err != nil {
		return nil, internal(err, "write HEAD")
	}
	r.log.Info().Str("from", r.branch).Str("branch", given).Msg("Fast-forwarded to given branch")
	r.branch = given
	r.stage.Clear()
	if err := r.saveStage(); err != nil {
		return nil, err
	}
	return &MergeResult{Outcome: MergeFastForwarded, CommitID: givenID}, nil
}

func (r *Repository) readOptionalBlob(id string) ([]byte, error) {
	if id == "" {
		return nil, nil
	}
	return r.ReadBlob(id)
}

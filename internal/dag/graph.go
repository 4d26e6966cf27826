package dag

import (
	"encoding/json"
	"fmt"
	"iter"
)

// LogEntry pairs a commit with its id.
type LogEntry struct {
	ID     string
	Commit *Commit
}

// CommitGraph reads and writes commits and walks the parent links between them.
type CommitGraph struct {
	store *ObjectStore
}

// NewCommitGraph creates a CommitGraph over an ObjectStore of commits.
func NewCommitGraph(store *ObjectStore) *CommitGraph {
	return &CommitGraph{store: store}
}

// Write serializes and stores a commit, returning its id. Writing a commit
// that already exists is a no-op that returns the same id.
func (g *CommitGraph) Write(c *Commit) (string, error) {
	if c.Files == nil {
		c.Files = map[string]string{}
	}
	data, err := CanonicalJSON(c)
	if err != nil {
		return "", fmt.Errorf("serialize commit: %w", err)
	}
	id, err := g.store.Put(data)
	if err != nil {
		return "", fmt.Errorf("store commit: %w", err)
	}
	return id, nil
}

// Get reads and unmarshals a commit by id.
func (g *CommitGraph) Get(id string) (*Commit, error) {
	data, err := g.store.Get(id)
	if err != nil {
		return nil, err
	}
	var commit Commit
	if err := json.Unmarshal(data, &commit); err != nil {
		return nil, fmt.Errorf("unmarshal commit %s: %w", id, err)
	}
	if commit.Files == nil {
		commit.Files = map[string]string{}
	}
	return &commit, nil
}

// Has checks if a commit exists.
func (g *CommitGraph) Has(id string) bool {
	return g.store.Has(id)
}

// Resolve expands an abbreviated commit id.
func (g *CommitGraph) Resolve(prefix string) (string, error) {
	return g.store.Resolve(prefix)
}

// History walks the first-parent chain from head, newest first, until the
// root commit. The walk is lazy; a read failure is yielded once and ends it.
func (g *CommitGraph) History(head string) iter.Seq2[LogEntry, error] {
	return func(yield func(LogEntry, error) bool) {
		seen := make(map[string]bool)
		for current := head; current != "" && !seen[current]; {
			seen[current] = true
			commit, err := g.Get(current)
			if err != nil {
				yield(LogEntry{}, err)
				return
			}
			if !yield(LogEntry{ID: current, Commit: commit}, nil) {
				return
			}
			current = commit.Parent
		}
	}
}

// All yields every stored commit regardless of reachability, in id order.
func (g *CommitGraph) All() iter.Seq2[LogEntry, error] {
	return func(yield func(LogEntry, error) bool) {
		ids, err := g.store.List()
		if err != nil {
			yield(LogEntry{}, err)
			return
		}
		for _, id := range ids {
			commit, err := g.Get(id)
			if err != nil {
				yield(LogEntry{}, err)
				return
			}
			if !yield(LogEntry{ID: id, Commit: commit}, nil) {
				return
			}
		}
	}
}

// Ancestors returns every commit reachable from id through first and second
// parent links, id included.
func (g *CommitGraph) Ancestors(id string) (map[string]bool, error) {
	visited := map[string]bool{id: true}
	queue := []string{id}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		commit, err := g.Get(current)
		if err != nil {
			return nil, fmt.Errorf("ancestors of %s: %w", id, err)
		}
		for _, p := range commit.Parents() {
			if !visited[p] {
				visited[p] = true
				queue = append(queue, p)
			}
		}
	}
	return visited, nil
}

// SplitPoint returns the merge base of a and b: the first commit on b's
// first-parent chain that is an ancestor of a. Returns "" when the two
// histories share nothing.
func (g *CommitGraph) SplitPoint(a, b string) (string, error) {
	ancestors, err := g.Ancestors(a)
	if err != nil {
		return "", err
	}
	for entry, err := range g.History(b) {
		if err != nil {
			return "", fmt.Errorf("split point: %w", err)
		}
		if ancestors[entry.ID] {
			return entry.ID, nil
		}
	}
	return "", nil
}

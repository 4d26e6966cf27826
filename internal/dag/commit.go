package dag

import (
	"sort"
	"time"
)

// Commit is an immutable snapshot of every tracked path plus its metadata.
// Serialized via CanonicalJSON and stored in the commit ObjectStore; its id is
// the hash of that encoding and nothing else.
type Commit struct {
	V            int               `json:"v"`
	Message      string            `json:"message"`
	Timestamp    time.Time         `json:"timestamp"`
	Parent       string            `json:"parent,omitempty"`        // id of the first parent
	SecondParent string            `json:"second_parent,omitempty"` // id of the merged-in parent
	Files        map[string]string `json:"files"`                   // path → blob id
}

// NewCommit builds a commit whose snapshot is a copy of files.
// The timestamp is normalized to UTC so the encoding does not depend on the
// local zone.
func NewCommit(message string, ts time.Time, parent, secondParent string, files map[string]string) *Commit {
	snapshot := make(map[string]string, len(files))
	for p, id := range files {
		snapshot[p] = id
	}
	return &Commit{
		V:            1,
		Message:      message,
		Timestamp:    ts.UTC(),
		Parent:       parent,
		SecondParent: secondParent,
		Files:        snapshot,
	}
}

// IsMerge reports whether the commit has two parents.
func (c *Commit) IsMerge() bool {
	return c.SecondParent != ""
}

// Parents returns the commit's parent ids, first parent first.
func (c *Commit) Parents() []string {
	var ps []string
	if c.Parent != "" {
		ps = append(ps, c.Parent)
	}
	if c.SecondParent != "" {
		ps = append(ps, c.SecondParent)
	}
	return ps
}

// Tracks reports whether path is part of the snapshot.
func (c *Commit) Tracks(path string) bool {
	_, ok := c.Files[path]
	return ok
}

// Paths returns the tracked paths in sorted order.
func (c *Commit) Paths() []string {
	paths := make([]string, 0, len(c.Files))
	for p := range c.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// DiffFiles compares two snapshots and returns the paths that changed
// (different blob, added, or removed), sorted.
func DiffFiles(parent, child map[string]string) []string {
	changed := make(map[string]bool)

	// Check for changed or added paths
	for p, id := range child {
		parentID, exists := parent[p]
		if !exists || parentID != id {
			changed[p] = true
		}
	}

	// Check for removed paths
	for p := range parent {
		if _, exists := child[p]; !exists {
			changed[p] = true
		}
	}

	result := make([]string, 0, len(changed))
	for p := range changed {
		result = append(result, p)
	}
	sort.Strings(result)
	return result
}

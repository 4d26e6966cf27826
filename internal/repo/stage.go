package repo

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/systemshift/gitlet/internal/dag"
)

// Stage is the set of pending changes for the next commit: paths staged for
// addition (path → blob id) and paths staged for removal.
type Stage struct {
	added   map[string]string
	removed map[string]bool
}

// stageFile is the on-disk form of a Stage.
type stageFile struct {
	V       int               `json:"v"`
	Added   map[string]string `json:"added"`
	Removed []string          `json:"removed"`
}

// NewStage returns an empty stage.
func NewStage() *Stage {
	return &Stage{
		added:   make(map[string]string),
		removed: make(map[string]bool),
	}
}

// LoadStage reads a stage from path. A missing file is an empty stage.
func LoadStage(path string) (*Stage, error) {
	s := NewStage()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	var f stageFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse index: %w", err)
	}
	for p, id := range f.Added {
		s.added[p] = id
	}
	for _, p := range f.Removed {
		s.removed[p] = true
	}
	return s, nil
}

// Save writes the stage to path atomically.
func (s *Stage) Save(path string) error {
	data, err := dag.CanonicalJSON(stageFile{
		V:       1,
		Added:   s.added,
		Removed: s.RemovedPaths(),
	})
	if err != nil {
		return fmt.Errorf("serialize index: %w", err)
	}
	if err := dag.SafeWrite(path, data, 0644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// Add stages blob for path. Re-adding a path staged for removal only cancels
// the removal.
func (s *Stage) Add(path, blob string) {
	if s.removed[path] {
		delete(s.removed, path)
		return
	}
	s.added[path] = blob
}

// AddWithUnstageCheck is Add, except that staging the content the tracked
// version (tracked[path]) already has unstages the path instead.
func (s *Stage) AddWithUnstageCheck(path, blob string, tracked map[string]string) {
	if s.removed[path] {
		delete(s.removed, path)
		return
	}
	s.added[path] = blob
	if id, ok := tracked[path]; ok && id == blob {
		delete(s.added, path)
	}
}

// Unstage drops path from the additions. Reports whether it was staged.
func (s *Stage) Unstage(path string) bool {
	_, ok := s.added[path]
	delete(s.added, path)
	return ok
}

// MarkRemoved stages path for removal.
func (s *Stage) MarkRemoved(path string) {
	delete(s.added, path)
	s.removed[path] = true
}

// Staged returns the blob staged for path, if any.
func (s *Stage) Staged(path string) (string, bool) {
	id, ok := s.added[path]
	return id, ok
}

// IsRemoved reports whether path is staged for removal.
func (s *Stage) IsRemoved(path string) bool {
	return s.removed[path]
}

// Clear empties both sets.
func (s *Stage) Clear() {
	s.added = make(map[string]string)
	s.removed = make(map[string]bool)
}

// Empty reports whether nothing is staged.
func (s *Stage) Empty() bool {
	return len(s.added) == 0 && len(s.removed) == 0
}

// AddedPaths returns the paths staged for addition, sorted.
func (s *Stage) AddedPaths() []string {
	return sortedKeys(s.added)
}

// RemovedPaths returns the paths staged for removal, sorted.
func (s *Stage) RemovedPaths() []string {
	paths := make([]string, 0, len(s.removed))
	for p := range s.removed {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Apply returns the snapshot produced by committing the stage on top of
// files: additions inserted or overwritten, then removals deleted.
func (s *Stage) Apply(files map[string]string) map[string]string {
	out := make(map[string]string, len(files)+len(s.added))
	for p, id := range files {
		out[p] = id
	}
	for p, id := range s.added {
		out[p] = id
	}
	for p := range s.removed {
		delete(out, p)
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

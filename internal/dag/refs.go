package dag

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrRefNotFound is returned when a branch does not exist.
var ErrRefNotFound = errors.New("ref not found")

// RefStore manages branch name -> commit id mappings as files.
// Each branch is a file in refs/heads/ whose content is the commit id.
type RefStore struct {
	dir string
}

// NewRefStore creates a RefStore at the given directory.
func NewRefStore(dir string) (*RefStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create refs dir: %w", err)
	}
	return &RefStore{dir: dir}, nil
}

// ValidRefName reports whether name can be stored as a branch file.
func ValidRefName(name string) bool {
	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, "/\\\x00\n")
}

// Set points branch name at commit id. The write is atomic.
func (r *RefStore) Set(name, id string) error {
	if !ValidRefName(name) {
		return fmt.Errorf("invalid ref name %q", name)
	}
	path := filepath.Join(r.dir, name)
	return SafeWrite(path, []byte(id+"\n"), 0644)
}

// Get resolves a branch name to its commit id.
func (r *RefStore) Get(name string) (string, error) {
	if !ValidRefName(name) {
		return "", fmt.Errorf("%w: %s", ErrRefNotFound, name)
	}
	data, err := os.ReadFile(filepath.Join(r.dir, name))
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%w: %s", ErrRefNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("read ref %s: %w", name, err)
	}
	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", fmt.Errorf("ref %s is empty", name)
	}
	return id, nil
}

// Delete removes a branch.
func (r *RefStore) Delete(name string) error {
	if !ValidRefName(name) {
		return fmt.Errorf("%w: %s", ErrRefNotFound, name)
	}
	path := filepath.Join(r.dir, name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrRefNotFound, name)
	}
	return SafeRemove(path)
}

// Has checks if a branch exists.
func (r *RefStore) Has(name string) bool {
	if !ValidRefName(name) {
		return false
	}
	_, err := os.Stat(filepath.Join(r.dir, name))
	return err == nil
}

// List returns all branch names, sorted.
func (r *RefStore) List() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("list refs: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

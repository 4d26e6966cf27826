package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
)

// Worktree is the working directory: the user's files next to .gitlet/.
// Paths handed to and returned from it are slash-separated and relative to
// the root.
type Worktree struct {
	root string
}

// NewWorktree creates a Worktree rooted at root.
func NewWorktree(root string) *Worktree {
	return &Worktree{root: root}
}

// Clean normalizes a user-supplied path. It rejects absolute paths, paths
// leaving the root and paths inside the repository directory.
func (w *Worktree) Clean(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("empty path")
	}
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(w.root, p)
		if err != nil {
			return "", fmt.Errorf("path %q outside working directory", p)
		}
		p = rel
	}
	clean := path.Clean(filepath.ToSlash(p))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("path %q outside working directory", p)
	}
	if clean == DirName || strings.HasPrefix(clean, DirName+"/") {
		return "", fmt.Errorf("path %q is inside the repository directory", p)
	}
	return clean, nil
}

func (w *Worktree) abs(p string) string {
	return filepath.Join(w.root, filepath.FromSlash(p))
}

// Read returns the contents of a working file.
func (w *Worktree) Read(p string) ([]byte, error) {
	return os.ReadFile(w.abs(p))
}

// Write creates or overwrites a working file, creating parent directories.
func (w *Worktree) Write(p string, data []byte) error {
	full := w.abs(p)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("create parent of %s: %w", p, err)
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", p, err)
	}
	return nil
}

// Remove deletes a working file. A missing file is not an error.
func (w *Worktree) Remove(p string) error {
	if err := os.Remove(w.abs(p)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", p, err)
	}
	return nil
}

// Exists reports whether p is a regular file.
func (w *Worktree) Exists(p string) bool {
	info, err := os.Stat(w.abs(p))
	return err == nil && info.Mode().IsRegular()
}

// EntryKind classifies what occupies a working path.
type EntryKind int

const (
	EntryMissing EntryKind = iota
	EntryFile
	EntryDir
	EntryOther
)

// Kind reports what is at p without following a final symlink.
func (w *Worktree) Kind(p string) (EntryKind, error) {
	info, err := os.Lstat(w.abs(p))
	switch {
	case os.IsNotExist(err):
		return EntryMissing, nil
	case err != nil:
		// ENOTDIR: a file stands where a parent directory should be.
		if errors.Is(err, syscall.ENOTDIR) {
			return EntryMissing, nil
		}
		return EntryMissing, fmt.Errorf("stat %s: %w", p, err)
	case info.Mode().IsRegular():
		return EntryFile, nil
	case info.IsDir():
		return EntryDir, nil
	}
	return EntryOther, nil
}

// Entries returns every non-directory entry below dir, sorted.
func (w *Worktree) Entries(dir string) ([]string, error) {
	root := w.abs(dir)
	var entries []string
	err := filepath.WalkDir(root, func(full string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(w.root, full)
		if err != nil {
			return err
		}
		entries = append(entries, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	sort.Strings(entries)
	return entries, nil
}

// PruneDirs removes p and its parents while they are empty directories.
func (w *Worktree) PruneDirs(p string) {
	for p != "." && p != "" {
		info, err := os.Lstat(w.abs(p))
		if err != nil || !info.IsDir() {
			return
		}
		if err := os.Remove(w.abs(p)); err != nil {
			return
		}
		p = path.Dir(p)
	}
}

// RemoveEmptyDir deletes the directory p, which must hold nothing but
// directories.
func (w *Worktree) RemoveEmptyDir(p string) error {
	entries, err := w.Entries(p)
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		return fmt.Errorf("directory %s is not empty: %s", p, entries[0])
	}
	return os.RemoveAll(w.abs(p))
}

// List returns every regular file under the root, excluding the repository
// directory, sorted.
func (w *Worktree) List() ([]string, error) {
	var files []string
	err := filepath.WalkDir(w.root, func(full string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(w.root, full)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel == DirName {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list working directory: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

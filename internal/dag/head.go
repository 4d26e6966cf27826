package dag

import (
	"fmt"
	"os"
	"strings"
)

const headRefPrefix = "ref: refs/heads/"

// HeadFile stores the name of the checked-out branch as
// "ref: refs/heads/<name>". There is no detached state.
type HeadFile struct {
	path string
}

// NewHeadFile creates a HeadFile that reads/writes the file at path.
func NewHeadFile(path string) *HeadFile {
	return &HeadFile{path: path}
}

// Branch returns the name of the current branch.
func (h *HeadFile) Branch() (string, error) {
	data, err := os.ReadFile(h.path)
	if err != nil {
		return "", fmt.Errorf("read HEAD: %w", err)
	}
	s := strings.TrimSpace(string(data))
	name, ok := strings.CutPrefix(s, headRefPrefix)
	if !ok || !ValidRefName(name) {
		return "", fmt.Errorf("malformed HEAD: %q", s)
	}
	return name, nil
}

// SetBranch points HEAD at branch name. The write is atomic.
func (h *HeadFile) SetBranch(name string) error {
	if !ValidRefName(name) {
		return fmt.Errorf("invalid branch name %q", name)
	}
	if err := SafeWrite(h.path, []byte(headRefPrefix+name+"\n"), 0644); err != nil {
		return fmt.Errorf("write HEAD: %w", err)
	}
	return nil
}

package dag

import (
	"errors"
	"path/filepath"
	"testing"
)

func newTestRefs(t *testing.T) *RefStore {
	t.Helper()
	refs, err := NewRefStore(filepath.Join(t.TempDir(), "refs", "heads"))
	if err != nil {
		t.Fatalf("NewRefStore: %v", err)
	}
	return refs
}

func TestRefStore_SetGet(t *testing.T) {
	refs := newTestRefs(t)

	if err := refs.Set("master", "commit-1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := refs.Get("master")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "commit-1" {
		t.Errorf("Get = %q, want %q", got, "commit-1")
	}

	// Overwrite moves the pointer
	refs.Set("master", "commit-2")
	got, _ = refs.Get("master")
	if got != "commit-2" {
		t.Errorf("after move Get = %q, want %q", got, "commit-2")
	}
}

func TestRefStore_Missing(t *testing.T) {
	refs := newTestRefs(t)

	if _, err := refs.Get("nope"); !errors.Is(err, ErrRefNotFound) {
		t.Errorf("Get err = %v, want ErrRefNotFound", err)
	}
	if err := refs.Delete("nope"); !errors.Is(err, ErrRefNotFound) {
		t.Errorf("Delete err = %v, want ErrRefNotFound", err)
	}
	if refs.Has("nope") {
		t.Error("Has = true for missing ref")
	}
}

func TestRefStore_ListAndDelete(t *testing.T) {
	refs := newTestRefs(t)

	for _, name := range []string{"zeta", "alpha", "master"} {
		if err := refs.Set(name, "id"); err != nil {
			t.Fatal(err)
		}
	}
	names, err := refs.List()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"alpha", "master", "zeta"}
	if len(names) != len(want) {
		t.Fatalf("List = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("List[%d] = %s, want %s", i, names[i], want[i])
		}
	}

	if err := refs.Delete("zeta"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if refs.Has("zeta") {
		t.Error("ref still present after Delete")
	}
}

func TestValidRefName(t *testing.T) {
	for _, name := range []string{"master", "feat-1", "v1.2"} {
		if !ValidRefName(name) {
			t.Errorf("ValidRefName(%q) = false", name)
		}
	}
	for _, name := range []string{"", ".", "..", ".hidden", "a/b", "a\\b"} {
		if ValidRefName(name) {
			t.Errorf("ValidRefName(%q) = true", name)
		}
	}
}

func TestHeadFile(t *testing.T) {
	head := NewHeadFile(filepath.Join(t.TempDir(), "HEAD"))

	if _, err := head.Branch(); err == nil {
		t.Error("expected error reading missing HEAD")
	}
	if err := head.SetBranch("master"); err != nil {
		t.Fatalf("SetBranch: %v", err)
	}
	got, err := head.Branch()
	if err != nil {
		t.Fatalf("Branch: %v", err)
	}
	if got != "master" {
		t.Errorf("Branch = %q, want %q", got, "master")
	}
	if err := head.SetBranch("../x"); err == nil {
		t.Error("expected error for invalid branch name")
	}
}

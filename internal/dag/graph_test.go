package dag

import (
	"path/filepath"
	"testing"
	"time"

	gocid "github.com/ipfs/go-cid"
)

func newTestGraph(t *testing.T) *CommitGraph {
	t.Helper()
	store, err := NewObjectStore(filepath.Join(t.TempDir(), "commits"), gocid.DagJSON)
	if err != nil {
		t.Fatalf("NewObjectStore: %v", err)
	}
	return NewCommitGraph(store)
}

var epoch = time.Unix(0, 0)

// mustCommit writes a commit with the given parents and returns its id.
func mustCommit(t *testing.T, g *CommitGraph, msg string, parent, second string) string {
	t.Helper()
	c := NewCommit(msg, epoch.Add(time.Duration(len(msg))*time.Second), parent, second, map[string]string{"f": msg})
	id, err := g.Write(c)
	if err != nil {
		t.Fatalf("Write(%s): %v", msg, err)
	}
	return id
}

func TestWrite_SameCommitSameID(t *testing.T) {
	g := newTestGraph(t)

	files := map[string]string{"a.txt": "blob"}
	id1, err := g.Write(NewCommit("m", epoch, "", "", files))
	if err != nil {
		t.Fatal(err)
	}
	// Local zone must not affect the id
	id2, err := g.Write(NewCommit("m", epoch.In(time.FixedZone("X", 3600)), "", "", files))
	if err != nil {
		t.Fatal(err)
	}
	if id1 != id2 {
		t.Errorf("identical commits hashed differently: %q vs %q", id1, id2)
	}

	id3, _ := g.Write(NewCommit("other", epoch, "", "", files))
	if id3 == id1 {
		t.Error("different messages produced the same id")
	}
}

func TestGet_RoundTripCommit(t *testing.T) {
	g := newTestGraph(t)

	ts := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	id, _ := g.Write(NewCommit("msg", ts, "", "", nil))
	got, err := g.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Message != "msg" || !got.Timestamp.Equal(ts) {
		t.Errorf("got %+v", got)
	}
	if got.Files == nil || len(got.Files) != 0 {
		t.Errorf("Files = %v, want empty map", got.Files)
	}
	if got.Parent != "" || got.IsMerge() {
		t.Errorf("root commit has parents: %+v", got)
	}
}

func TestHistory_FirstParentOnly(t *testing.T) {
	g := newTestGraph(t)

	root := mustCommit(t, g, "root", "", "")
	a := mustCommit(t, g, "a", root, "")
	side := mustCommit(t, g, "side", root, "")
	merge := mustCommit(t, g, "merge", a, side)

	var got []string
	for e, err := range g.History(merge) {
		if err != nil {
			t.Fatalf("History: %v", err)
		}
		got = append(got, e.ID)
	}
	want := []string{merge, a, root}
	if len(got) != len(want) {
		t.Fatalf("History len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("History[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestHistory_StopsEarly(t *testing.T) {
	g := newTestGraph(t)

	root := mustCommit(t, g, "root", "", "")
	head := mustCommit(t, g, "a", root, "")

	n := 0
	for range g.History(head) {
		n++
		break
	}
	if n != 1 {
		t.Errorf("iterations = %d, want 1", n)
	}
}

func TestAll_IncludesUnreachable(t *testing.T) {
	g := newTestGraph(t)

	root := mustCommit(t, g, "root", "", "")
	mustCommit(t, g, "a", root, "")
	mustCommit(t, g, "orphan", root, "")

	n := 0
	for _, err := range g.All() {
		if err != nil {
			t.Fatal(err)
		}
		n++
	}
	if n != 3 {
		t.Errorf("All yielded %d commits, want 3", n)
	}
}

func TestAncestors_FollowsBothParents(t *testing.T) {
	g := newTestGraph(t)

	root := mustCommit(t, g, "root", "", "")
	a := mustCommit(t, g, "a", root, "")
	side := mustCommit(t, g, "side", root, "")
	merge := mustCommit(t, g, "merge", a, side)

	anc, err := g.Ancestors(merge)
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{merge, a, side, root} {
		if !anc[id] {
			t.Errorf("ancestor set missing %s", id)
		}
	}
	if len(anc) != 4 {
		t.Errorf("ancestor set size = %d, want 4", len(anc))
	}
}

func TestSplitPoint(t *testing.T) {
	g := newTestGraph(t)

	//   root - m1 - m2          (master)
	//      \
	//       f1 - f2             (feature)
	root := mustCommit(t, g, "root", "", "")
	m1 := mustCommit(t, g, "m1", root, "")
	m2 := mustCommit(t, g, "m2", m1, "")
	f1 := mustCommit(t, g, "f1", root, "")
	f2 := mustCommit(t, g, "f2", f1, "")

	tests := []struct {
		name string
		a, b string
		want string
	}{
		{"diverged", m2, f2, root},
		{"diverged reversed", f2, m2, root},
		{"ancestor", m2, m1, m1},
		{"descendant", m1, m2, m1},
		{"same", f2, f2, f2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.SplitPoint(tt.a, tt.b)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("SplitPoint = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSplitPoint_AfterMerge(t *testing.T) {
	g := newTestGraph(t)

	// feature was merged into master at mm; afterwards both advance again.
	root := mustCommit(t, g, "root", "", "")
	f1 := mustCommit(t, g, "f1", root, "")
	m1 := mustCommit(t, g, "m1", root, "")
	mm := mustCommit(t, g, "mm", m1, f1)
	m2 := mustCommit(t, g, "m2", mm, "")
	f2 := mustCommit(t, g, "f2", f1, "")

	got, err := g.SplitPoint(m2, f2)
	if err != nil {
		t.Fatal(err)
	}
	if got != f1 {
		t.Errorf("SplitPoint = %s, want f1 %s", got, f1)
	}
}

func TestDiffFiles(t *testing.T) {
	parent := map[string]string{"a": "1", "b": "2", "c": "3"}
	child := map[string]string{"a": "1", "b": "changed", "d": "4"}

	got := DiffFiles(parent, child)
	want := []string{"b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("DiffFiles = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("DiffFiles[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

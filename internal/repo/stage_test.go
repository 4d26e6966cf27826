package repo

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStage_AddCancelsRemovalOnly(t *testing.T) {
	s := NewStage()
	s.MarkRemoved("a.txt")
	s.Add("a.txt", "blob")

	assert.False(t, s.IsRemoved("a.txt"))
	_, ok := s.Staged("a.txt")
	assert.False(t, ok)
	assert.True(t, s.Empty())
}

func TestStage_AddWithUnstageCheck(t *testing.T) {
	tracked := map[string]string{"a.txt": "v1"}
	s := NewStage()

	s.AddWithUnstageCheck("a.txt", "v2", tracked)
	id, ok := s.Staged("a.txt")
	require.True(t, ok)
	assert.Equal(t, "v2", id)

	s.AddWithUnstageCheck("a.txt", "v1", tracked)
	assert.True(t, s.Empty())

	s.MarkRemoved("a.txt")
	s.AddWithUnstageCheck("a.txt", "v1", tracked)
	assert.True(t, s.Empty())
}

func TestStage_AddWithUnstageCheckCancelsRemovalOnly(t *testing.T) {
	s := NewStage()
	s.MarkRemoved("a.txt")

	s.AddWithUnstageCheck("a.txt", "v2", map[string]string{"a.txt": "v1"})
	assert.False(t, s.IsRemoved("a.txt"))
	_, ok := s.Staged("a.txt")
	assert.False(t, ok, "new content is not staged while cancelling a removal")

	s.AddWithUnstageCheck("a.txt", "v2", map[string]string{"a.txt": "v1"})
	id, ok := s.Staged("a.txt")
	require.True(t, ok)
	assert.Equal(t, "v2", id)
}

func TestStage_MarkRemovedDropsAddition(t *testing.T) {
	s := NewStage()
	s.Add("a.txt", "blob")
	s.MarkRemoved("a.txt")

	assert.Empty(t, s.AddedPaths())
	assert.Equal(t, []string{"a.txt"}, s.RemovedPaths())
}

func TestStage_Apply(t *testing.T) {
	s := NewStage()
	s.Add("b.txt", "b2")
	s.Add("c.txt", "c")
	s.MarkRemoved("a.txt")

	parent := map[string]string{"a.txt": "a", "b.txt": "b"}
	got := s.Apply(parent)

	assert.Equal(t, map[string]string{"b.txt": "b2", "c.txt": "c"}, got)
	assert.Equal(t, map[string]string{"a.txt": "a", "b.txt": "b"}, parent, "input unchanged")
}

func TestStage_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")

	empty, err := LoadStage(path)
	require.NoError(t, err)
	assert.True(t, empty.Empty())

	s := NewStage()
	s.Add("z.txt", "z")
	s.Add("a.txt", "a")
	s.MarkRemoved("gone.txt")
	require.NoError(t, s.Save(path))

	loaded, err := LoadStage(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "z.txt"}, loaded.AddedPaths())
	assert.Equal(t, []string{"gone.txt"}, loaded.RemovedPaths())

	loaded.Clear()
	assert.True(t, loaded.Empty())
}

package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inTempRepoDir moves the test into an empty working directory with an
// isolated user config.
func inTempRepoDir(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	xdg.Reload()
	t.Cleanup(xdg.Reload)

	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

// run executes one gitlet command line and returns what it printed.
func run(t *testing.T, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(io.Discard)
	if args == nil {
		args = []string{} // nil makes cobra read os.Args
	}
	cmd.SetArgs(args)
	Execute(cmd)
	return buf.String()
}

func write(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(name), 0755))
	require.NoError(t, os.WriteFile(name, []byte(content), 0644))
}

func read(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(name)
	require.NoError(t, err)
	return string(data)
}

var commitLine = regexp.MustCompile(`(?m)^commit (\S+)$`)

// commitIDs returns the ids in log output, in order.
func commitIDs(output string) []string {
	var ids []string
	for _, m := range commitLine.FindAllStringSubmatch(output, -1) {
		ids = append(ids, m[1])
	}
	return ids
}

func TestUsageMessages(t *testing.T) {
	inTempRepoDir(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no command", nil, MsgNoCommand},
		{"unknown command", []string{"push"}, MsgUnknownCommand},
		{"init with operand", []string{"init", "x"}, MsgIncorrectOperands},
		{"add without file", []string{"add"}, MsgIncorrectOperands},
		{"commit with two messages", []string{"commit", "a", "b"}, MsgIncorrectOperands},
		{"checkout without dash", []string{"checkout", "abc", "a.txt"}, MsgIncorrectOperands},
		{"checkout dash in the wrong place", []string{"checkout", "a", "b", "--", "c"}, MsgIncorrectOperands},
		{"unknown flag", []string{"status", "--bogus"}, MsgIncorrectOperands},
		{"not initialized", []string{"status"}, "Not in an initialized Gitlet directory."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want+"\n", run(t, tt.args...))
		})
	}
}

func TestInit(t *testing.T) {
	dir := inTempRepoDir(t)

	assert.Empty(t, run(t, "init"))
	assert.DirExists(t, filepath.Join(dir, ".gitlet", "objects", "commits"))
	assert.FileExists(t, filepath.Join(dir, ".gitlet", "HEAD"))

	assert.Equal(t, "A Gitlet version-control system already exists in the current directory.\n", run(t, "init"))
}

func TestInit_UsesConfig(t *testing.T) {
	inTempRepoDir(t)
	t.Setenv("GITLET_CORE_DEFAULT_BRANCH", "main")

	run(t, "init")
	assert.Contains(t, run(t, "status"), "=== Branches ===\n*main\n\n")
}

func TestCommitAndLog(t *testing.T) {
	inTempRepoDir(t)
	run(t, "init")

	write(t, "a.txt", "hello")
	assert.Empty(t, run(t, "add", "a.txt"))
	assert.Empty(t, run(t, "commit", "first"))

	output := run(t, "log")
	ids := commitIDs(output)
	require.Len(t, ids, 2)

	root := "===\ncommit " + ids[1] + "\nDate: " + time.Unix(0, 0).Local().Format(logDateFormat) + "\ninitial commit\n\n"
	assert.True(t, strings.HasSuffix(output, root), "log ends with the root commit:\n%s", output)
	assert.Regexp(t, `^===\ncommit \S+\nDate: \w{3} \w{3} \d{2} \d{2}:\d{2}:\d{2} \d{4} [+-]\d{4}\nfirst\n\n`, output)

	assert.Equal(t, ids[0]+"\n", run(t, "find", "first"))
	assert.Equal(t, "Found no commit with that message.\n", run(t, "find", "nothing"))
	assert.Len(t, commitIDs(run(t, "global-log")), 2)

	assert.Equal(t, "No changes added to the commit.\n", run(t, "commit", "again"))
	assert.Equal(t, "Please enter a commit message.\n", run(t, "commit", ""))
	assert.Equal(t, "File does not exist.\n", run(t, "add", "missing.txt"))
	assert.Equal(t, "No reason to remove the file.\n", run(t, "rm", "missing.txt"))
}

func TestStatusOutput(t *testing.T) {
	inTempRepoDir(t)
	run(t, "init")
	run(t, "branch", "other")

	write(t, "keep.txt", "k")
	write(t, "gone.txt", "g")
	write(t, "edit.txt", "e")
	run(t, "add", "keep.txt")
	run(t, "add", "gone.txt")
	run(t, "add", "edit.txt")
	run(t, "commit", "base")

	run(t, "rm", "gone.txt")
	write(t, "edit.txt", "changed")
	write(t, "new.txt", "n")
	run(t, "add", "new.txt")
	require.NoError(t, os.Remove("keep.txt"))
	write(t, "stray.txt", "s")

	want := `=== Branches ===
*master
other

=== Staged Files ===
new.txt

=== Removed Files ===
gone.txt

=== Modifications Not Staged For Commit ===
edit.txt (modified)
keep.txt (deleted)

=== Untracked Files ===
stray.txt

`
	assert.Equal(t, want, run(t, "status"))
}

func TestCheckoutForms(t *testing.T) {
	inTempRepoDir(t)
	run(t, "init")
	write(t, "a.txt", "v1")
	run(t, "add", "a.txt")
	run(t, "commit", "v1")
	first := commitIDs(run(t, "log"))[0]
	write(t, "a.txt", "v2")
	run(t, "add", "a.txt")
	run(t, "commit", "v2")

	write(t, "a.txt", "scratch")
	assert.Empty(t, run(t, "checkout", "--", "a.txt"))
	assert.Equal(t, "v2", read(t, "a.txt"))

	assert.Empty(t, run(t, "checkout", first[:len(first)-8], "--", "a.txt"))
	assert.Equal(t, "v1", read(t, "a.txt"))

	assert.Equal(t, "File does not exist in that commit.\n", run(t, "checkout", first, "--", "b.txt"))
	assert.Equal(t, "No commit with that id exists.\n", run(t, "checkout", "bagzzzz", "--", "a.txt"))
	assert.Equal(t, "No such branch exists.\n", run(t, "checkout", "ghost"))
	assert.Equal(t, "No need to checkout the current branch.\n", run(t, "checkout", "master"))
}

func TestBranchesAndReset(t *testing.T) {
	inTempRepoDir(t)
	run(t, "init")

	assert.Empty(t, run(t, "branch", "dev"))
	assert.Equal(t, "A branch with that name already exists.\n", run(t, "branch", "dev"))
	assert.Equal(t, "Cannot remove the current branch.\n", run(t, "rm-branch", "master"))
	assert.Equal(t, "A branch with that name does not exist.\n", run(t, "rm-branch", "ghost"))

	assert.Empty(t, run(t, "checkout", "dev"))
	write(t, "d.txt", "d")
	run(t, "add", "d.txt")
	run(t, "commit", "on dev")
	run(t, "checkout", "master")
	_, err := os.Stat("d.txt")
	assert.True(t, os.IsNotExist(err))

	write(t, "d.txt", "mine")
	assert.Equal(t, "There is an untracked file in the way; delete it, or add and commit it first.\n", run(t, "checkout", "dev"))
	require.NoError(t, os.Remove("d.txt"))

	run(t, "checkout", "dev")
	devHead := commitIDs(run(t, "log"))[0]
	run(t, "checkout", "master")
	assert.Empty(t, run(t, "reset", devHead))
	assert.Equal(t, devHead, commitIDs(run(t, "log"))[0])
	assert.Equal(t, "d", read(t, "d.txt"))

	assert.Empty(t, run(t, "rm-branch", "dev"))
	assert.Equal(t, "No commit with that id exists.\n", run(t, "reset", "bagzzzz"))
}

func TestMergeMessages(t *testing.T) {
	inTempRepoDir(t)
	run(t, "init")
	run(t, "branch", "feat")

	assert.Equal(t, "Cannot merge a branch with itself.\n", run(t, "merge", "master"))
	assert.Equal(t, "A branch with that name does not exist.\n", run(t, "merge", "ghost"))
	assert.Equal(t, "Given branch is an ancestor of the current branch.\n", run(t, "merge", "feat"))

	write(t, "a.txt", "X")
	run(t, "add", "a.txt")
	assert.Equal(t, "You have uncommitted changes.\n", run(t, "merge", "feat"))
	run(t, "commit", "X on master")

	run(t, "checkout", "feat")
	assert.Equal(t, "Current branch fast-forwarded.\n", run(t, "merge", "master"))
	assert.Equal(t, "X", read(t, "a.txt"))
	assert.Contains(t, run(t, "status"), "=== Branches ===\nfeat\n*master\n")

	run(t, "checkout", "feat")
	write(t, "a.txt", "Y")
	run(t, "add", "a.txt")
	run(t, "commit", "Y on feat")
	run(t, "checkout", "master")
	write(t, "a.txt", "Z")
	run(t, "add", "a.txt")
	run(t, "commit", "Z on master")

	assert.Equal(t, "Encountered a merge conflict.\n", run(t, "merge", "feat"))
	assert.Equal(t, "<<<<<<< HEAD\nZ=======\nY>>>>>>>\n", read(t, "a.txt"))

	output := run(t, "log")
	assert.Regexp(t, `^===\ncommit \S+\nMerge: \S+ \S+\nDate: .*\nMerged feat into master\.\n`, output)
}

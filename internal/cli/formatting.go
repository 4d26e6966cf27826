package cli

import (
	"fmt"
	"io"

	"github.com/systemshift/gitlet/internal/dag"
	"github.com/systemshift/gitlet/internal/repo"
)

// logDateFormat renders commit timestamps in the local zone.
const logDateFormat = "Mon Jan 02 15:04:05 2006 -0700"

func formatLogEntry(w io.Writer, entry dag.LogEntry) {
	c := entry.Commit
	fmt.Fprintln(w, "===")
	fmt.Fprintf(w, "commit %s\n", entry.ID)
	if c.IsMerge() {
		fmt.Fprintf(w, "Merge: %s %s\n", c.Parent, c.SecondParent)
	}
	fmt.Fprintf(w, "Date: %s\n", c.Timestamp.Local().Format(logDateFormat))
	fmt.Fprintln(w, c.Message)
	fmt.Fprintln(w)
}

func formatStatus(w io.Writer, st *repo.StatusReport) {
	fmt.Fprintln(w, "=== Branches ===")
	for _, b := range st.Branches {
		if b == st.Current {
			fmt.Fprintf(w, "*%s\n", b)
			continue
		}
		fmt.Fprintln(w, b)
	}
	fmt.Fprintln(w)

	section(w, "Staged Files", st.Staged)
	section(w, "Removed Files", st.Removed)

	fmt.Fprintln(w, "=== Modifications Not Staged For Commit ===")
	for _, c := range st.Unstaged {
		state := "modified"
		if c.Deleted {
			state = "deleted"
		}
		fmt.Fprintf(w, "%s (%s)\n", c.Path, state)
	}
	fmt.Fprintln(w)

	section(w, "Untracked Files", st.Untracked)
}

func section(w io.Writer, title string, paths []string) {
	fmt.Fprintf(w, "=== %s ===\n", title)
	for _, p := range paths {
		fmt.Fprintln(w, p)
	}
	fmt.Fprintln(w)
}

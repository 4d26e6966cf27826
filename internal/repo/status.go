package repo

// Change describes a working file whose content differs from what the next
// commit would record.
type Change struct {
	Path    string
	Deleted bool // false means modified
}

// StatusReport is the state of the branches, stage and working tree.
type StatusReport struct {
	Current   string
	Branches  []string
	Staged    []string
	Removed   []string
	Unstaged  []Change
	Untracked []string
}

// Status compares the working tree against the stage and current head.
func (r *Repository) Status() (*StatusReport, error) {
	branches, err := r.ListBranches()
	if err != nil {
		return nil, err
	}
	_, head, err := r.Head()
	if err != nil {
		return nil, err
	}
	files, err := r.Work.List()
	if err != nil {
		return nil, internal(err, "list working directory")
	}

	report := &StatusReport{
		Current:  r.branch,
		Branches: branches,
		Staged:   r.stage.AddedPaths(),
		Removed:  r.stage.RemovedPaths(),
	}

	onDisk := make(map[string]bool, len(files))
	for _, p := range files {
		onDisk[p] = true
	}

	expected := make(map[string]string)
	for p, id := range head.Files {
		if !r.stage.IsRemoved(p) {
			expected[p] = id
		}
	}
	for _, p := range report.Staged {
		expected[p], _ = r.stage.Staged(p)
	}

	for _, p := range sortedKeys(expected) {
		if !onDisk[p] {
			report.Unstaged = append(report.Unstaged, Change{Path: p, Deleted: true})
			continue
		}
		data, err := r.Work.Read(p)
		if err != nil {
			return nil, internal(err, "read %s", p)
		}
		id, err := r.Blobs.IDOf(data)
		if err != nil {
			return nil, internal(err, "hash %s", p)
		}
		if id != expected[p] {
			report.Unstaged = append(report.Unstaged, Change{Path: p})
		}
	}

	for _, p := range files {
		if _, ok := expected[p]; !ok {
			report.Untracked = append(report.Untracked, p)
		}
	}
	return report, nil
}

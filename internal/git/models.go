package git

// WorkingTreeStatus splits the working tree changes the way the sync
// protocol looks at them.
type WorkingTreeStatus struct {
	Modified  []string // tracked files changed relative to the index
	Untracked []string // files unknown to the index
}

// IsClean reports whether there is nothing to commit.
func (s WorkingTreeStatus) IsClean() bool {
	return len(s.Modified) == 0 && len(s.Untracked) == 0
}

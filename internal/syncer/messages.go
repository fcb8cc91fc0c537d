package syncer

import "time"

const (
	commitTimeLayout = "2006-01-02 15:04:05"

	// ConflictCommitMessage is used for the commit that records a resolution.
	ConflictCommitMessage = "Resolving conflicts automatically"
)

// CommitMessage returns the message of an automatic commit made at t.
func CommitMessage(t time.Time) string {
	return "Auto-sync at " + t.Format(commitTimeLayout)
}

package syncer

import (
	"context"
	"time"
)

// VCS is the version control client the engine drives.
type VCS interface {
	ModifiedFiles(ctx context.Context) ([]string, error)
	UntrackedFiles(ctx context.Context) ([]string, error)
	Pull(ctx context.Context) error
	StageAll(ctx context.Context) error
	StageUpdated(ctx context.Context) error
	Commit(ctx context.Context, message string, when time.Time) (string, error)
	Push(ctx context.Context) error
	RunMergeTool(ctx context.Context) error
}

// Listener receives every outcome once the engine state has been updated.
type Listener interface {
	OnOutcome(ctx context.Context, outcome Outcome) error
}

type Phase string

const (
	PhaseIdle              Phase = "idle"
	PhaseSyncing           Phase = "syncing"
	PhaseConflictResolving Phase = "conflict_resolving"
)

type Result string

const (
	ResultNoChanges        Result = "no_changes"
	ResultSuccess          Result = "success"
	ResultConflictResolved Result = "conflict_resolved"
	ResultFailed           Result = "failed"
)

type ErrorKind string

const (
	ErrorKindNone                  ErrorKind = ""
	ErrorKindRemoteUnreachable     ErrorKind = "RemoteUnreachable"
	ErrorKindAuthenticationFailure ErrorKind = "AuthenticationFailure"
	ErrorKindMergeConflict         ErrorKind = "MergeConflict"
	ErrorKindUnclassified          ErrorKind = "UnclassifiedFailure"
)

// Outcome is the result of one synchronization attempt.
type Outcome struct {
	Result    Result
	Message   string    // commit message, set for success and conflict_resolved
	Commit    string    // commit hash, set for success and conflict_resolved
	Timestamp time.Time // when the attempt finished
	ErrorKind ErrorKind
	Detail    string

	StartedAt time.Time
	Duration  time.Duration
}

// Failed reports whether the attempt ended in an error.
func (o Outcome) Failed() bool {
	return o.Result == ResultFailed
}

// State is a snapshot of the engine state.
type State struct {
	Phase       Phase
	LastSync    time.Time // zero until the first successful cycle
	Pending     bool      // a re-run is queued
	LastOutcome *Outcome
}

type Op string

const (
	OpCreate Op = "create"
	OpWrite  Op = "write"
	OpRemove Op = "remove"
	OpRename Op = "rename"
)

// ChangeEvent is a filesystem notification for a single path.
type ChangeEvent struct {
	Path  string
	IsDir bool
	Op    Op
}

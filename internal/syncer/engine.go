package syncer

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/gitsyncd/gitsyncd/internal/git"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Engine decides when a synchronization cycle runs and what it does.
//
// At most one cycle is in flight: SyncChanges holds mu for the whole
// protocol, and triggers are funnelled to a single worker (Run) through a
// one-slot queue.
type Engine struct {
	config    Config
	vcs       VCS
	clock     clockwork.Clock
	listeners []Listener

	logger *zap.Logger

	mu sync.Mutex

	stateMu sync.RWMutex
	state   State

	triggers chan struct{}
}

func NewEngine(config Config, vcs VCS, clock clockwork.Clock, logger *zap.Logger, listeners ...Listener) *Engine {
	if config.TriggerPolicy == "" {
		config.TriggerPolicy = TriggerCoalesce
	}

	return &Engine{
		config:    config,
		vcs:       vcs,
		clock:     clock,
		listeners: listeners,

		logger: logger,

		state: State{
			Phase: PhaseIdle,
		},

		triggers: make(chan struct{}, 1),
	}
}

// OnFileModified filters filesystem events down to changes of the monitored
// file and queues a cycle for them. It reports whether the event was
// accepted.
func (e *Engine) OnFileModified(event ChangeEvent) bool {
	if !e.Matches(event) {
		return false
	}

	e.logger.Info("monitored file modified, synchronizing",
		zap.String("file", event.Path),
		zap.String("op", string(event.Op)))

	return e.Trigger()
}

// Matches reports whether event modifies the monitored file. Creation counts
// as a modification since editors often save by renaming a new file over the
// old one; removal and rename away from the name do not.
func (e *Engine) Matches(event ChangeEvent) bool {
	if event.Op != OpWrite && event.Op != OpCreate {
		return false
	}

	return !event.IsDir && filepath.Base(event.Path) == e.config.MonitoredFile
}

// Trigger queues a cycle according to the trigger policy.
func (e *Engine) Trigger() bool {
	if e.config.TriggerPolicy == TriggerIgnore && e.Phase() != PhaseIdle {
		e.logger.Info("synchronization in progress, ignoring trigger")
		return false
	}

	select {
	case e.triggers <- struct{}{}:
		return true
	default:
	}

	// A cycle is already queued.
	if e.config.TriggerPolicy == TriggerIgnore {
		return false
	}

	e.logger.Debug("trigger coalesced into pending run")

	return true
}

// Run drains the trigger queue until ctx is done. A cycle that has started
// is allowed to finish.
func (e *Engine) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.triggers:
			e.SyncChanges(context.WithoutCancel(ctx))
		}
	}
}

// Restore seeds the last successful sync time, e.g. from persisted history.
func (e *Engine) Restore(lastSync time.Time) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	if lastSync.After(e.state.LastSync) {
		e.state.LastSync = lastSync
	}
}

// State returns a snapshot of the engine state.
func (e *Engine) State() State {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()

	state := e.state
	state.Pending = len(e.triggers) > 0
	if e.state.LastOutcome != nil {
		outcome := *e.state.LastOutcome
		state.LastOutcome = &outcome
	}

	return state
}

// Phase returns the current phase.
func (e *Engine) Phase() Phase {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()

	return e.state.Phase
}

// SyncChanges runs one synchronization cycle: pull with rebase, stage
// everything, commit and push. It never returns an error; failures are
// reported through the outcome.
func (e *Engine) SyncChanges(ctx context.Context) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	started := e.clock.Now()
	e.setPhase(PhaseSyncing)

	outcome := e.sync(ctx)
	outcome.StartedAt = started
	outcome.Duration = e.clock.Since(started)

	e.finish(outcome)
	e.notify(ctx, outcome)

	return outcome
}

func (e *Engine) sync(ctx context.Context) Outcome {
	modified, err := e.vcs.ModifiedFiles(ctx)
	if err != nil {
		return e.handleFailure(ctx, "status", err)
	}

	untracked, err := e.vcs.UntrackedFiles(ctx)
	if err != nil {
		return e.handleFailure(ctx, "status", err)
	}

	if len(modified) == 0 && len(untracked) == 0 {
		e.logger.Info("no changes detected for commit")
		return Outcome{
			Result:    ResultNoChanges,
			Timestamp: e.clock.Now(),
		}
	}

	e.logger.Debug("local changes detected",
		zap.Strings("modified", modified),
		zap.Strings("untracked", untracked))

	if pullErr := e.vcs.Pull(ctx); pullErr != nil {
		return e.handleFailure(ctx, "pull", pullErr)
	}
	e.logger.Info("remote changes incorporated")

	if stageErr := e.vcs.StageAll(ctx); stageErr != nil {
		return e.handleFailure(ctx, "stage", stageErr)
	}

	now := e.clock.Now()
	message := CommitMessage(now)
	hash, err := e.vcs.Commit(ctx, message, now)
	if err != nil {
		return e.handleFailure(ctx, "commit", err)
	}

	if pushErr := e.vcs.Push(ctx); pushErr != nil {
		return e.handleFailure(ctx, "push", pushErr)
	}

	e.logger.Info("changes pushed to remote",
		zap.String("message", message),
		zap.String("commit", hash))

	return Outcome{
		Result:    ResultSuccess,
		Message:   message,
		Commit:    hash,
		Timestamp: e.clock.Now(),
	}
}

// handleFailure classifies a failed step. Conflicts go to the resolution
// sub-protocol, everything else aborts the cycle.
func (e *Engine) handleFailure(ctx context.Context, step string, err error) Outcome {
	kind := classify(err)

	e.logger.Error("error during synchronization",
		zap.String("step", step),
		zap.String("kind", string(kind)),
		zap.Error(err))

	if kind == ErrorKindMergeConflict {
		return e.resolveConflicts(ctx, err)
	}

	return Outcome{
		Result:    ResultFailed,
		ErrorKind: kind,
		Detail:    err.Error(),
		Timestamp: e.clock.Now(),
	}
}

func (e *Engine) setPhase(phase Phase) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	e.state.Phase = phase
}

func (e *Engine) finish(outcome Outcome) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	e.state.Phase = PhaseIdle
	e.state.LastOutcome = &outcome
	if outcome.Result == ResultSuccess || outcome.Result == ResultConflictResolved {
		e.state.LastSync = outcome.Timestamp
	}
}

func (e *Engine) notify(ctx context.Context, outcome Outcome) {
	for _, listener := range e.listeners {
		if err := listener.OnOutcome(ctx, outcome); err != nil {
			e.logger.Warn("outcome listener failed", zap.Error(err))
		}
	}
}

func classify(err error) ErrorKind {
	switch git.KindOf(err) {
	case git.KindConflict:
		return ErrorKindMergeConflict
	case git.KindNetwork:
		return ErrorKindRemoteUnreachable
	case git.KindAuth:
		return ErrorKindAuthenticationFailure
	default:
		return ErrorKindUnclassified
	}
}

package syncer

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// resolveConflicts runs the merge tool, stages the files it updated and
// pushes a resolution commit. A failure leaves the working copy as it is;
// nothing is rolled back and the sub-protocol is not retried.
func (e *Engine) resolveConflicts(ctx context.Context, cause error) Outcome {
	e.setPhase(PhaseConflictResolving)

	e.logger.Warn("conflict detected, attempting automatic resolution", zap.Error(cause))

	fail := func(step string, err error) Outcome {
		e.logger.Error("failed to resolve conflicts",
			zap.String("step", step),
			zap.Error(err))

		return Outcome{
			Result:    ResultFailed,
			ErrorKind: ErrorKindMergeConflict,
			Detail:    fmt.Sprintf("%s: %s", step, err.Error()),
			Timestamp: e.clock.Now(),
		}
	}

	if err := e.vcs.RunMergeTool(ctx); err != nil {
		return fail("mergetool", err)
	}

	// Only tracked files are staged here, unlike the main cycle.
	if err := e.vcs.StageUpdated(ctx); err != nil {
		return fail("stage", err)
	}

	hash, err := e.vcs.Commit(ctx, ConflictCommitMessage, e.clock.Now())
	if err != nil {
		return fail("commit", err)
	}

	if pushErr := e.vcs.Push(ctx); pushErr != nil {
		return fail("push", pushErr)
	}

	e.logger.Info("conflicts resolved and pushed", zap.String("commit", hash))

	return Outcome{
		Result:    ResultConflictResolved,
		Message:   ConflictCommitMessage,
		Commit:    hash,
		Timestamp: e.clock.Now(),
	}
}

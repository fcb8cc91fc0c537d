package daemon

import (
	"context"

	"github.com/gitsyncd/gitsyncd/internal/history"
	"github.com/gitsyncd/gitsyncd/internal/syncer"
)

// Watcher delivers change notifications for a directory.
type Watcher interface {
	Start(dir string) error
	Stop() error
	Events() <-chan syncer.ChangeEvent
	Errors() <-chan error
}

// History restores the last successful sync on startup.
type History interface {
	LastSuccess(ctx context.Context) (*history.Record, error)
}

// TriggerObserver is told about every trigger offered to the engine.
type TriggerObserver interface {
	ObserveTrigger(accepted bool)
	SetLastSuccess(unix float64)
}

package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gitsyncd/gitsyncd/internal/history"
	"github.com/gitsyncd/gitsyncd/internal/syncer"
	"github.com/gitsyncd/gitsyncd/internal/workspace"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Daemon connects the watcher to the engine for the lifetime of the process.
type Daemon struct {
	config Config
	handle *workspace.RepositoryHandle

	engine   *syncer.Engine
	watcher  Watcher
	history  History
	observer TriggerObserver
	clock    clockwork.Clock

	logger *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(
	config Config,
	handle *workspace.RepositoryHandle,
	engine *syncer.Engine,
	watcher Watcher,
	history History,
	observer TriggerObserver,
	clock clockwork.Clock,
	logger *zap.Logger,
) *Daemon {
	return &Daemon{
		config: config,
		handle: handle,

		engine:   engine,
		watcher:  watcher,
		history:  history,
		observer: observer,
		clock:    clock,

		logger: logger,
	}
}

// Start restores state, starts watching the working copy and returns. The
// loops run until Stop.
func (d *Daemon) Start(ctx context.Context) error {
	d.restore(ctx)

	if err := d.watcher.Start(d.handle.Path); err != nil {
		d.logger.Error("failed to start watcher", zap.Error(err))
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		d.engine.Run(runCtx)
	}()
	go func() {
		defer d.wg.Done()
		d.dispatch(runCtx)
	}()

	if d.config.Interval > 0 {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.tick(runCtx)
		}()
	}

	d.logger.Info("monitoring started",
		zap.String("path", d.handle.Path),
		zap.Duration("interval", d.config.Interval))

	if d.config.OnStart {
		d.trigger("startup")
	}

	return nil
}

// Stop stops the watcher and waits for the loops. A cycle already running is
// allowed to finish.
func (d *Daemon) Stop(_ context.Context) error {
	d.logger.Info("stopping monitoring")

	if d.cancel != nil {
		d.cancel()
	}

	err := d.watcher.Stop()
	d.wg.Wait()

	if err != nil {
		return fmt.Errorf("failed to stop watcher: %w", err)
	}

	d.logger.Info("monitoring stopped")

	return nil
}

func (d *Daemon) restore(ctx context.Context) {
	last, err := d.history.LastSuccess(ctx)
	if errors.Is(err, history.ErrNotFound) {
		return
	}
	if err != nil {
		d.logger.Warn("failed to restore last sync", zap.Error(err))
		return
	}

	d.engine.Restore(last.FinishedAt)
	d.observer.SetLastSuccess(float64(last.FinishedAt.Unix()))

	d.logger.Info("last sync restored", zap.Time("last_sync", last.FinishedAt))
}

func (d *Daemon) dispatch(ctx context.Context) {
	events := d.watcher.Events()
	errs := d.watcher.Errors()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			if !d.engine.Matches(event) {
				continue
			}
			d.observer.ObserveTrigger(d.engine.OnFileModified(event))

		case err, ok := <-errs:
			if !ok {
				return
			}
			d.logger.Error("watcher error", zap.Error(err))
		}
	}
}

func (d *Daemon) tick(ctx context.Context) {
	ticker := d.clock.NewTicker(d.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			d.trigger("interval")
		}
	}
}

func (d *Daemon) trigger(source string) {
	accepted := d.engine.Trigger()
	d.observer.ObserveTrigger(accepted)

	d.logger.Debug("sync triggered",
		zap.String("source", source),
		zap.Bool("accepted", accepted))
}

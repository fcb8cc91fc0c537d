package syncer

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/gitsyncd/gitsyncd/internal/git"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

const monitoredFile = "documento_teste.txt"

type fakeVCS struct {
	mu sync.Mutex

	modified  []string
	untracked []string

	statusErr    error
	pullErr      error
	stageErr     error
	commitErr    error
	pushErr      error
	mergeToolErr error

	onPull      func()
	onMergeTool func()

	calls    []string
	messages []string
}

func (f *fakeVCS) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, call)
}

func (f *fakeVCS) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}

	return n
}

func (f *fakeVCS) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.calls...)
}

func (f *fakeVCS) ModifiedFiles(context.Context) ([]string, error) {
	f.record("modified")
	return f.modified, f.statusErr
}

func (f *fakeVCS) UntrackedFiles(context.Context) ([]string, error) {
	f.record("untracked")
	return f.untracked, f.statusErr
}

func (f *fakeVCS) Pull(context.Context) error {
	f.record("pull")
	if f.onPull != nil {
		f.onPull()
	}
	return f.pullErr
}

func (f *fakeVCS) StageAll(context.Context) error {
	f.record("stage_all")
	return f.stageErr
}

func (f *fakeVCS) StageUpdated(context.Context) error {
	f.record("stage_updated")
	return f.stageErr
}

func (f *fakeVCS) Commit(_ context.Context, message string, _ time.Time) (string, error) {
	f.record("commit")
	if f.commitErr != nil {
		return "", f.commitErr
	}

	f.mu.Lock()
	f.messages = append(f.messages, message)
	f.mu.Unlock()

	return "0123456789abcdef", nil
}

func (f *fakeVCS) Push(context.Context) error {
	f.record("push")
	return f.pushErr
}

func (f *fakeVCS) RunMergeTool(context.Context) error {
	f.record("mergetool")
	if f.onMergeTool != nil {
		f.onMergeTool()
	}
	return f.mergeToolErr
}

type listenerFunc func(context.Context, Outcome) error

func (l listenerFunc) OnOutcome(ctx context.Context, outcome Outcome) error {
	return l(ctx, outcome)
}

var start = time.Date(2026, 10, 19, 9, 15, 30, 0, time.UTC)

func newTestEngine(t *testing.T, vcs VCS, listeners ...Listener) (*Engine, *clockwork.FakeClock) {
	t.Helper()

	clock := clockwork.NewFakeClockAt(start)
	engine := NewEngine(Config{MonitoredFile: monitoredFile}, vcs, clock, zaptest.NewLogger(t), listeners...)

	return engine, clock
}

func TestEngine_NoChangesSkipsNetwork(t *testing.T) {
	vcs := &fakeVCS{}
	engine, _ := newTestEngine(t, vcs)

	outcome := engine.SyncChanges(context.Background())

	assert.Equal(t, ResultNoChanges, outcome.Result)
	assert.Equal(t, []string{"modified", "untracked"}, vcs.callLog())
	assert.Zero(t, vcs.count("pull"))
	assert.Zero(t, vcs.count("push"))
	assert.True(t, engine.State().LastSync.IsZero())
}

func TestEngine_NoChangesHasNoSuccessLine(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	engine := NewEngine(Config{MonitoredFile: monitoredFile}, &fakeVCS{}, clockwork.NewFakeClockAt(start), zap.New(core))

	require.True(t, engine.OnFileModified(ChangeEvent{Path: "/repo/" + monitoredFile, Op: OpWrite}))
	outcome := engine.SyncChanges(context.Background())

	assert.Equal(t, ResultNoChanges, outcome.Result)
	assert.Zero(t, logs.FilterMessage("changes pushed to remote").Len())
	assert.Equal(t, 1, logs.FilterMessage("no changes detected for commit").Len())
}

func TestEngine_Success(t *testing.T) {
	vcs := &fakeVCS{modified: []string{monitoredFile}}
	engine, _ := newTestEngine(t, vcs)

	outcome := engine.SyncChanges(context.Background())

	require.Equal(t, ResultSuccess, outcome.Result)
	assert.Equal(t, "Auto-sync at 2026-10-19 09:15:30", outcome.Message)
	assert.Regexp(t, regexp.MustCompile(`^Auto-sync at \d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`), outcome.Message)
	assert.Equal(t, "0123456789abcdef", outcome.Commit)
	assert.Equal(t,
		[]string{"modified", "untracked", "pull", "stage_all", "commit", "push"},
		vcs.callLog(),
	)

	state := engine.State()
	assert.Equal(t, PhaseIdle, state.Phase)
	assert.Equal(t, start, state.LastSync)
	require.NotNil(t, state.LastOutcome)
	assert.Equal(t, ResultSuccess, state.LastOutcome.Result)
}

func TestEngine_UntrackedOnlyIsAChange(t *testing.T) {
	vcs := &fakeVCS{untracked: []string{"new.txt"}}
	engine, _ := newTestEngine(t, vcs)

	outcome := engine.SyncChanges(context.Background())

	assert.Equal(t, ResultSuccess, outcome.Result)
	assert.Equal(t, 1, vcs.count("stage_all"))
}

func TestEngine_LastSyncStrictlyIncreases(t *testing.T) {
	vcs := &fakeVCS{modified: []string{monitoredFile}}
	engine, clock := newTestEngine(t, vcs)

	engine.SyncChanges(context.Background())
	first := engine.State().LastSync

	clock.Advance(time.Second)
	engine.SyncChanges(context.Background())
	second := engine.State().LastSync

	assert.True(t, second.After(first), "expected %s after %s", second, first)
	assert.Equal(t,
		[]string{"Auto-sync at 2026-10-19 09:15:30", "Auto-sync at 2026-10-19 09:15:31"},
		vcs.messages,
	)
}

func TestEngine_FailureKeepsLastSync(t *testing.T) {
	vcs := &fakeVCS{modified: []string{monitoredFile}}
	engine, clock := newTestEngine(t, vcs)

	engine.SyncChanges(context.Background())

	vcs.pushErr = errors.New("remote end hung up unexpectedly")
	clock.Advance(time.Minute)
	outcome := engine.SyncChanges(context.Background())

	assert.True(t, outcome.Failed())
	assert.Equal(t, start, engine.State().LastSync)
}

func TestEngine_PushGenericErrorIsUnclassified(t *testing.T) {
	vcs := &fakeVCS{
		modified: []string{monitoredFile},
		pushErr:  errors.New("remote end hung up unexpectedly"),
	}
	engine, _ := newTestEngine(t, vcs)

	outcome := engine.SyncChanges(context.Background())

	assert.Equal(t, ResultFailed, outcome.Result)
	assert.Equal(t, ErrorKindUnclassified, outcome.ErrorKind)
	assert.Contains(t, outcome.Detail, "hung up")
	assert.Zero(t, vcs.count("mergetool"))
	assert.Equal(t, PhaseIdle, engine.State().Phase)
}

func TestEngine_ClassifiedFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{
			name: "network",
			err:  &git.Error{Op: "pull", Kind: git.KindNetwork, Err: errors.New("could not resolve host")},
			want: ErrorKindRemoteUnreachable,
		},
		{
			name: "auth",
			err:  &git.Error{Op: "pull", Kind: git.KindAuth, Err: errors.New("authentication required")},
			want: ErrorKindAuthenticationFailure,
		},
		{
			name: "other",
			err:  &git.Error{Op: "pull", Kind: git.KindOther, Err: errors.New("index.lock exists")},
			want: ErrorKindUnclassified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vcs := &fakeVCS{modified: []string{monitoredFile}, pullErr: tt.err}
			engine, _ := newTestEngine(t, vcs)

			outcome := engine.SyncChanges(context.Background())

			assert.Equal(t, ResultFailed, outcome.Result)
			assert.Equal(t, tt.want, outcome.ErrorKind)
			assert.Zero(t, vcs.count("stage_all"), "cycle must abort after a failed pull")
			assert.Zero(t, vcs.count("mergetool"))
		})
	}
}

func TestEngine_ConflictRouting(t *testing.T) {
	tests := []struct {
		detail       string
		wantResolver int
	}{
		{detail: "CONFLICT: merge conflict in documento_teste.txt", wantResolver: 1},
		{detail: "Conflict while rebasing", wantResolver: 1},
		{detail: "could not apply 1a2b3c... conflict", wantResolver: 1},
		{detail: "remote end hung up unexpectedly", wantResolver: 0},
		{detail: "index file corrupt", wantResolver: 0},
	}

	for _, tt := range tests {
		t.Run(tt.detail, func(t *testing.T) {
			vcs := &fakeVCS{
				modified: []string{monitoredFile},
				pullErr:  errors.New(tt.detail),
			}
			engine, _ := newTestEngine(t, vcs)

			engine.SyncChanges(context.Background())

			assert.Equal(t, tt.wantResolver, vcs.count("mergetool"))
		})
	}
}

func TestEngine_ConflictResolved(t *testing.T) {
	vcs := &fakeVCS{
		modified: []string{monitoredFile},
		pullErr:  errors.New("CONFLICT: merge conflict in documento_teste.txt"),
	}
	engine, _ := newTestEngine(t, vcs)

	var phaseDuringMerge Phase
	vcs.onMergeTool = func() { phaseDuringMerge = engine.Phase() }

	outcome := engine.SyncChanges(context.Background())

	require.Equal(t, ResultConflictResolved, outcome.Result)
	assert.Equal(t, PhaseConflictResolving, phaseDuringMerge)
	assert.Equal(t, PhaseIdle, engine.State().Phase)
	assert.Equal(t, ConflictCommitMessage, outcome.Message)
	assert.Equal(t, []string{ConflictCommitMessage}, vcs.messages)
	assert.Equal(t,
		[]string{"modified", "untracked", "pull", "mergetool", "stage_updated", "commit", "push"},
		vcs.callLog(),
	)
	assert.Zero(t, vcs.count("stage_all"), "resolution must stage updated files only")
}

func TestEngine_ConflictOnPush(t *testing.T) {
	vcs := &fakeVCS{
		modified: []string{monitoredFile},
		pushErr:  errors.New("rejected: conflict with remote"),
	}
	engine, _ := newTestEngine(t, vcs)

	outcome := engine.SyncChanges(context.Background())

	// The resolution push hits the same error but the sub-protocol runs once.
	assert.Equal(t, ResultFailed, outcome.Result)
	assert.Equal(t, ErrorKindMergeConflict, outcome.ErrorKind)
	assert.Equal(t, 1, vcs.count("mergetool"))
	assert.Equal(t, 2, vcs.count("push"))
}

func TestEngine_ConflictResolutionFailure(t *testing.T) {
	vcs := &fakeVCS{
		modified:     []string{monitoredFile},
		pullErr:      errors.New("CONFLICT (content): merge conflict"),
		mergeToolErr: errors.New("no merge tool configured"),
	}
	engine, _ := newTestEngine(t, vcs)

	outcome := engine.SyncChanges(context.Background())

	assert.Equal(t, ResultFailed, outcome.Result)
	assert.Equal(t, ErrorKindMergeConflict, outcome.ErrorKind)
	assert.Contains(t, outcome.Detail, "no merge tool configured")
	assert.Equal(t, 1, vcs.count("mergetool"))
	assert.Zero(t, vcs.count("commit"))
	assert.Equal(t, PhaseIdle, engine.State().Phase)
	assert.True(t, engine.State().LastSync.IsZero())
}

func TestEngine_StatusFailure(t *testing.T) {
	vcs := &fakeVCS{statusErr: errors.New("not a git repository")}
	engine, _ := newTestEngine(t, vcs)

	outcome := engine.SyncChanges(context.Background())

	assert.Equal(t, ResultFailed, outcome.Result)
	assert.Zero(t, vcs.count("pull"))
}

func TestEngine_OnFileModifiedFilters(t *testing.T) {
	tests := []struct {
		name  string
		event ChangeEvent
		want  bool
	}{
		{name: "monitored file", event: ChangeEvent{Path: "/data/repo/" + monitoredFile, Op: OpWrite}, want: true},
		{name: "other file", event: ChangeEvent{Path: "/data/repo/notes.txt", Op: OpWrite}, want: false},
		{name: "directory", event: ChangeEvent{Path: "/data/repo/" + monitoredFile, IsDir: true, Op: OpWrite}, want: false},
		{name: "similar name", event: ChangeEvent{Path: "/data/repo/" + monitoredFile + ".swp", Op: OpCreate}, want: false},
		{name: "created by atomic save", event: ChangeEvent{Path: "/data/repo/" + monitoredFile, Op: OpCreate}, want: true},
		{name: "removed", event: ChangeEvent{Path: "/data/repo/" + monitoredFile, Op: OpRemove}, want: false},
		{name: "renamed away", event: ChangeEvent{Path: "/data/repo/" + monitoredFile, Op: OpRename}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vcs := &fakeVCS{modified: []string{monitoredFile}}
			engine, _ := newTestEngine(t, vcs)

			assert.Equal(t, tt.want, engine.OnFileModified(tt.event))
			assert.Equal(t, tt.want, engine.State().Pending)
		})
	}
}

func TestEngine_NonMonitoredEventsNeverSync(t *testing.T) {
	vcs := &fakeVCS{modified: []string{monitoredFile}}
	engine, _ := newTestEngine(t, vcs)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		engine.Run(ctx)
		close(done)
	}()

	engine.OnFileModified(ChangeEvent{Path: "/data/repo/other.txt", Op: OpWrite})
	engine.OnFileModified(ChangeEvent{Path: "/data/repo", IsDir: true, Op: OpWrite})

	cancel()
	<-done

	assert.Empty(t, vcs.callLog())
}

func TestEngine_CoalescesTriggersWhileBusy(t *testing.T) {
	started := make(chan struct{}, 4)
	release := make(chan struct{})

	vcs := &fakeVCS{modified: []string{monitoredFile}}
	vcs.onPull = func() {
		started <- struct{}{}
		<-release
	}
	engine, _ := newTestEngine(t, vcs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go engine.Run(ctx)

	require.True(t, engine.Trigger())
	<-started

	assert.Equal(t, PhaseSyncing, engine.Phase())
	assert.True(t, engine.Trigger())
	assert.True(t, engine.Trigger())
	assert.True(t, engine.Trigger())
	assert.True(t, engine.State().Pending)

	close(release)

	require.Eventually(t, func() bool {
		return vcs.count("push") == 2
	}, time.Second, 5*time.Millisecond)

	// No third cycle follows the coalesced one.
	assert.Never(t, func() bool {
		return vcs.count("pull") > 2
	}, 50*time.Millisecond, 5*time.Millisecond)
}

func TestEngine_IgnoresTriggersWhileBusy(t *testing.T) {
	started := make(chan struct{}, 4)
	release := make(chan struct{})

	vcs := &fakeVCS{modified: []string{monitoredFile}}
	vcs.onPull = func() {
		started <- struct{}{}
		<-release
	}
	engine := NewEngine(
		Config{MonitoredFile: monitoredFile, TriggerPolicy: TriggerIgnore},
		vcs,
		clockwork.NewFakeClockAt(start),
		zaptest.NewLogger(t),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go engine.Run(ctx)

	require.True(t, engine.Trigger())
	<-started

	assert.False(t, engine.Trigger())
	assert.False(t, engine.OnFileModified(ChangeEvent{Path: monitoredFile, Op: OpWrite}))
	assert.False(t, engine.State().Pending)

	close(release)

	require.Eventually(t, func() bool {
		return vcs.count("push") == 1 && engine.Phase() == PhaseIdle
	}, time.Second, 5*time.Millisecond)

	assert.Never(t, func() bool {
		return vcs.count("pull") > 1
	}, 50*time.Millisecond, 5*time.Millisecond)
}

func TestEngine_RunFinishesCycleOnShutdown(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})

	vcs := &fakeVCS{modified: []string{monitoredFile}}
	vcs.onPull = func() {
		started <- struct{}{}
		<-release
	}
	engine, _ := newTestEngine(t, vcs)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		engine.Run(ctx)
		close(done)
	}()

	engine.Trigger()
	<-started
	cancel()
	close(release)
	<-done

	assert.Equal(t, 1, vcs.count("push"))
	assert.Equal(t, ResultSuccess, engine.State().LastOutcome.Result)
}

func TestEngine_NotifiesListeners(t *testing.T) {
	var got []Outcome
	recorder := listenerFunc(func(_ context.Context, outcome Outcome) error {
		got = append(got, outcome)
		return nil
	})
	failing := listenerFunc(func(context.Context, Outcome) error {
		return errors.New("disk full")
	})

	core, logs := observer.New(zap.WarnLevel)
	vcs := &fakeVCS{modified: []string{monitoredFile}}
	engine := NewEngine(Config{MonitoredFile: monitoredFile}, vcs, clockwork.NewFakeClockAt(start), zap.New(core), failing, recorder)

	outcome := engine.SyncChanges(context.Background())

	require.Len(t, got, 1)
	assert.Equal(t, outcome, got[0])
	assert.Equal(t, start, got[0].StartedAt)
	assert.Equal(t, 1, logs.FilterMessage("outcome listener failed").Len())
}

func TestEngine_Restore(t *testing.T) {
	engine, _ := newTestEngine(t, &fakeVCS{})

	earlier := start.Add(-time.Hour)
	engine.Restore(earlier)
	assert.Equal(t, earlier, engine.State().LastSync)

	engine.Restore(earlier.Add(-time.Hour))
	assert.Equal(t, earlier, engine.State().LastSync, "restore must not move lastSync backwards")
}

package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"widgetsync/internal/scope"
	"widgetsync/internal/service"
	"widgetsync/internal/store"
	"widgetsync/internal/task"
	"widgetsync/internal/testutil"
	"widgetsync/internal/timeline"
)

var now = time.Date(2025, 5, 10, 7, 30, 0, 0, time.UTC)

const nowStamp = "2025-05-10T07:30:00.000Z"

// countingKV wraps a KV and counts writes.
type countingKV struct {
	store.KV
	sets atomic.Int32
}

func (c *countingKV) Set(ctx context.Context, key, value string) error {
	c.sets.Add(1)
	return c.KV.Set(ctx, key, value)
}

type fixture struct {
	kv       *countingKV
	cache    *store.Cache
	creds    *store.Credentials
	remote   *testutil.FakeRemote
	reloads  atomic.Int32
	engine   *service.Engine
	resolver *scope.Resolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		kv:     &countingKV{KV: store.NewMemory()},
		remote: testutil.NewFakeRemote(),
	}
	f.cache = store.NewCache(f.kv)
	f.creds = store.NewCredentials(f.kv)
	f.resolver = scope.NewResolver(f.creds, f.cache)
	f.engine = f.build(f.remote)
	return f
}

func (f *fixture) build(remote service.Remote) *service.Engine {
	return service.NewEngine(service.Deps{
		Cache:    f.cache,
		Resolver: f.resolver,
		Remote:   remote,
		Reloader: timeline.ReloaderFunc(func(context.Context) { f.reloads.Add(1) }),
		Clock:    task.FixedClock(now),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func (f *fixture) seed(t *testing.T, s scope.Scope, tasks ...task.Task) {
	t.Helper()
	require.NoError(t, f.cache.PutTasks(context.Background(), s.CacheKey(), tasks))
	f.kv.sets.Store(0)
}

func (f *fixture) cached(t *testing.T, s scope.Scope) []task.Task {
	t.Helper()
	tasks, _, err := f.cache.Tasks(context.Background(), s.CacheKey())
	require.NoError(t, err)
	return tasks
}

func strp(s string) *string { return &s }
func boolp(b bool) *bool    { return &b }

func TestActivate_OwnerUndone(t *testing.T) {
	f := newFixture(t)
	f.seed(t, scope.Me, task.Task{ID: "t1", Title: "Laundry"}, task.Task{ID: "t2"})

	res := f.engine.Activate(context.Background(), "t1", scope.Me)

	assert.Equal(t, service.OutcomeSynced, res.Outcome)
	assert.Equal(t, scope.Me, res.Scope)

	got := f.cached(t, scope.Me)
	require.Len(t, got, 2)
	assert.True(t, got[0].IsDone)
	require.NotNil(t, got[0].DoneAt)
	assert.Equal(t, nowStamp, *got[0].DoneAt)
	assert.False(t, got[1].IsDone)

	assert.Equal(t, []testutil.PatchCall{{
		TaskID: "t1",
		Fields: task.Update{task.FieldIsDone: true, task.FieldDoneAt: nowStamp},
	}}, f.remote.Patches())
	assert.EqualValues(t, 1, f.reloads.Load())
}

func TestActivate_PartnerUndoneIsSilentNoOp(t *testing.T) {
	f := newFixture(t)
	f.seed(t, scope.Partner1, task.Task{ID: "p1"})

	res := f.engine.Activate(context.Background(), "p1", scope.Partner1)

	assert.Equal(t, service.OutcomeNoOp, res.Outcome)
	assert.Zero(t, f.kv.sets.Load(), "cache must not be written")
	assert.Empty(t, f.remote.Patches())
	assert.Zero(t, f.reloads.Load())
}

func TestActivate_PartnerConfirmsDoneTask(t *testing.T) {
	f := newFixture(t)
	f.seed(t, scope.Partner2, task.Task{ID: "p1", IsDone: true, DoneAt: strp("2025-05-09T00:00:00Z")})

	res := f.engine.Activate(context.Background(), "p1", scope.Partner2)

	assert.Equal(t, service.OutcomeSynced, res.Outcome)
	require.NotNil(t, res.Task)
	assert.Equal(t, task.Confirmed, res.Task.State())
	assert.Equal(t, task.Confirmed, f.cached(t, scope.Partner2)[0].State())
	assert.Equal(t, task.Update{task.FieldIsConfirmed: true, task.FieldConfirmedAt: nowStamp},
		f.remote.Patches()[0].Fields)
}

func TestActivate_NotFound(t *testing.T) {
	f := newFixture(t)
	f.seed(t, scope.Me, task.Task{ID: "t1"})

	res := f.engine.Activate(context.Background(), "nope", scope.Me)

	assert.Equal(t, service.OutcomeNotFound, res.Outcome)
	assert.Nil(t, res.Err)
	assert.Zero(t, f.kv.sets.Load())
	assert.Empty(t, f.remote.Patches())
	assert.Zero(t, f.reloads.Load())
}

func TestActivate_FoundScopeWinsOverHint(t *testing.T) {
	f := newFixture(t)
	f.seed(t, scope.Partner1, task.Task{ID: "x"})

	// Hinted as the owner's task, but it lives in a partner list: partner rules apply.
	res := f.engine.Activate(context.Background(), "x", scope.Me)

	assert.Equal(t, service.OutcomeNoOp, res.Outcome)
	assert.Equal(t, scope.Partner1, res.Scope)
}

func TestActivate_IDCollisionFirstScopeWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.cache.PutTasks(ctx, scope.Me.CacheKey(), []task.Task{{ID: "dup"}}))
	require.NoError(t, f.cache.PutTasks(ctx, scope.Partner2.CacheKey(), []task.Task{{ID: "dup"}}))

	res := f.engine.Activate(ctx, "dup", scope.Partner2)

	assert.Equal(t, scope.Me, res.Scope)
	assert.True(t, f.cached(t, scope.Me)[0].IsDone)
	assert.False(t, f.cached(t, scope.Partner2)[0].IsDone)
}

func TestActivate_SkipsCorruptScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.kv.Set(ctx, scope.Me.CacheKey(), "garbage"))
	f.seed(t, scope.Partner3, task.Task{ID: "p", IsDone: true})

	res := f.engine.Activate(ctx, "p", "")

	assert.Equal(t, service.OutcomeSynced, res.Outcome)
	assert.Equal(t, scope.Partner3, res.Scope)
}

func TestActivate_RemoteFailureKeepsLocalWrite(t *testing.T) {
	f := newFixture(t)
	f.remote.PatchErr = &service.SyncError{Kind: service.Network, Op: "patch", Err: errors.New("dial tcp: timeout")}
	f.seed(t, scope.Me, task.Task{ID: "t1", IsDone: true, DoneAt: strp("2025-05-01T00:00:00Z")})

	res := f.engine.Activate(context.Background(), "t1", scope.Me)

	assert.Equal(t, service.OutcomeSyncFailed, res.Outcome)
	assert.Equal(t, service.Network, service.KindOf(res.Err))

	got := f.cached(t, scope.Me)
	assert.False(t, got[0].IsDone, "optimistic write must survive remote failure")
	assert.Nil(t, got[0].DoneAt)

	lastErr := f.engine.LastError(context.Background())
	assert.Contains(t, lastErr, "toggle t1")
	assert.Contains(t, lastErr, "network")
	assert.EqualValues(t, 1, f.reloads.Load())
}

// orderRemote checks the cache at the moment the network call happens.
type orderRemote struct {
	t     *testing.T
	cache *store.Cache
	seen  bool
}

func (r *orderRemote) Patch(ctx context.Context, taskID string, fields task.Update) error {
	tasks, _, err := r.cache.Tasks(ctx, store.MyTasksKey)
	require.NoError(r.t, err)
	r.seen = tasks[task.IndexOf(tasks, taskID)].IsDone
	return nil
}

func (r *orderRemote) FetchAll(ctx context.Context, userID string) ([]task.Task, error) {
	return nil, nil
}

func TestActivate_LocalWritePrecedesNetwork(t *testing.T) {
	f := newFixture(t)
	remote := &orderRemote{t: t, cache: f.cache}
	engine := f.build(remote)
	f.seed(t, scope.Me, task.Task{ID: "t1"})

	engine.Activate(context.Background(), "t1", scope.Me)

	assert.True(t, remote.seen, "cache must hold the new state before Patch runs")
}

func TestActivate_OwnerConfirmedClearsEverything(t *testing.T) {
	f := newFixture(t)
	f.seed(t, scope.Me, task.Task{
		ID: "t1", IsDone: true, DoneAt: strp("2025-05-01T00:00:00Z"),
		IsConfirmed: boolp(true), ConfirmedAt: strp("2025-05-02T00:00:00Z"),
	})

	f.engine.Activate(context.Background(), "t1", scope.Me)

	got := f.cached(t, scope.Me)[0]
	assert.False(t, got.IsDone)
	assert.False(t, got.Confirmed())
	assert.Nil(t, got.DoneAt)
}

func TestRefreshScope_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.resolver.Link(ctx, scope.Partner1, "u-p1", "Kim"))
	f.seed(t, scope.Partner1, task.Task{ID: "old"})
	f.remote.SetRows("u-p1", task.Task{ID: "n1"}, task.Task{ID: "n2", IsDone: true})

	res := f.engine.RefreshScope(ctx, scope.Partner1)

	assert.Equal(t, service.OutcomeSynced, res.Outcome)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, []string{"u-p1"}, f.remote.Fetches())

	got := f.cached(t, scope.Partner1)
	require.Len(t, got, 2)
	assert.Equal(t, "n1", got[0].ID)
	assert.True(t, got[1].IsDone)
	assert.EqualValues(t, 1, f.reloads.Load())
}

func TestRefreshScope_FailureKeepsExistingCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.resolver.Link(ctx, scope.Me, "u-me", ""))
	require.NoError(t, f.kv.Set(ctx, store.MyTasksKey, `[{"id":"t1"},{"id":"t2"}]`))
	f.remote.FetchErr["u-me"] = &service.SyncError{Kind: service.Network, Op: "fetch"}

	res := f.engine.RefreshScope(ctx, scope.Me)

	assert.Equal(t, service.OutcomeRestored, res.Outcome)
	raw, ok, err := f.kv.Get(ctx, store.MyTasksKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"t1"},{"id":"t2"}]`, raw)
	assert.Contains(t, f.engine.LastError(ctx), "refresh me")
	assert.EqualValues(t, 1, f.reloads.Load(), "reload is signalled on failure too")
}

func TestRefreshScope_FailureWithNoCacheLeavesNoEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.resolver.Link(ctx, scope.Me, "u-me", ""))
	f.remote.FetchErr["u-me"] = errors.New("boom")

	f.engine.RefreshScope(ctx, scope.Me)

	_, ok, err := f.kv.Get(ctx, store.MyTasksKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRefreshScope_NoUserIDIsNoOp(t *testing.T) {
	f := newFixture(t)

	res := f.engine.RefreshScope(context.Background(), scope.Partner3)

	assert.Equal(t, service.OutcomeSkipped, res.Outcome)
	assert.Empty(t, f.remote.Fetches())
	assert.Zero(t, f.reloads.Load())
}

func TestRefreshAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.resolver.Link(ctx, scope.Me, "u-me", ""))
	require.NoError(t, f.resolver.Link(ctx, scope.Partner2, "u-p2", ""))
	f.remote.SetRows("u-me", task.Task{ID: "m1"})
	f.remote.FetchErr["u-p2"] = &service.SyncError{Kind: service.ServerRejected, Op: "fetch", StatusCode: 500}
	f.seed(t, scope.Partner2, task.Task{ID: "keep"})

	results := f.engine.RefreshAll(ctx)

	require.Len(t, results, len(scope.All))
	assert.Equal(t, service.OutcomeSynced, results[0].Outcome)
	assert.Equal(t, service.OutcomeSkipped, results[1].Outcome)
	assert.Equal(t, service.OutcomeRestored, results[2].Outcome)
	assert.Equal(t, service.OutcomeSkipped, results[3].Outcome)
	assert.Equal(t, "keep", f.cached(t, scope.Partner2)[0].ID)
	assert.Equal(t, "m1", f.cached(t, scope.Me)[0].ID)
	assert.EqualValues(t, 1, f.reloads.Load())
}

func TestSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.resolver.Link(ctx, scope.Partner1, "u-p1", "Robin"))
	f.seed(t, scope.Partner1,
		task.Task{ID: "a", Title: "Gym", IsDone: true, ScheduledResetAt: strp("2025-05-10T07:00:00Z")},
		task.Task{ID: "b", Title: "Read", IsDone: true, IsConfirmed: boolp(true)},
	)

	e := f.engine.Snapshot(ctx, scope.Partner1, timeline.Medium)

	assert.Equal(t, "ROBIN", e.Header)
	assert.Equal(t, []timeline.Item{
		{ID: "a", Title: "Gym"},
		{ID: "b", Title: "Read", Done: true, Confirmed: true},
	}, e.Tasks)
}

func TestSnapshot_CorruptEntryIsEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.kv.Set(ctx, store.MyTasksKey, "{"))

	e := f.engine.Snapshot(ctx, scope.Me, timeline.Small)

	assert.Equal(t, "MY TASKS", e.Header)
	assert.Empty(t, e.Tasks)
}

func TestSyncError(t *testing.T) {
	inner := errors.New("connection refused")
	err := &service.SyncError{Kind: service.Network, Op: "patch", Err: inner}

	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "patch: network: connection refused", err.Error())
	assert.Equal(t, service.ErrorKind(0), service.KindOf(inner))

	err = &service.SyncError{Kind: service.ServerRejected, Op: "fetch", StatusCode: 400}
	assert.Equal(t, "fetch: server rejected (HTTP 400)", err.Error())
}

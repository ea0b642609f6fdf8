package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"widgetsync/internal/scope"
	"widgetsync/internal/store"
	"widgetsync/internal/task"
	"widgetsync/internal/timeline"
)

// Deps are the collaborators of an Engine. Clock, Reloader and Logger are optional.
type Deps struct {
	Cache    *store.Cache
	Resolver *scope.Resolver
	Remote   Remote
	Reloader timeline.Reloader
	Clock    task.Clock
	Logger   *slog.Logger
}

// Engine applies task taps locally first and reconciles them with the remote store.
//
// Entry points never return errors: remote failures leave the optimistic local
// write in place and are recorded under store.LastErrorKey and in the log.
type Engine struct {
	cache    *store.Cache
	resolver *scope.Resolver
	remote   Remote
	reloader timeline.Reloader
	clock    task.Clock
	logger   *slog.Logger
}

// NewEngine creates an engine.
func NewEngine(d Deps) *Engine {
	e := &Engine{
		cache:    d.Cache,
		resolver: d.Resolver,
		remote:   d.Remote,
		reloader: d.Reloader,
		clock:    d.Clock,
		logger:   d.Logger,
	}
	if e.reloader == nil {
		e.reloader = timeline.ReloaderFunc(func(context.Context) {})
	}
	if e.clock == nil {
		e.clock = task.SystemClock{}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Activate handles a tap on taskID. hint names the scope the tap came from,
// but the scope whose cache actually holds the task decides ownership.
// If the same id is cached under several scopes, the first in scope.All wins.
func (e *Engine) Activate(ctx context.Context, taskID string, hint scope.Scope) Result {
	log := e.logger.With("task", taskID)

	found, tasks, idx := e.locate(ctx, taskID)
	if idx < 0 {
		log.Debug("task not in any cached scope")
		return Result{Outcome: OutcomeNotFound, Scope: hint}
	}
	if hint != "" && hint != found {
		log.Debug("task found outside hinted scope", "hint", hint, "scope", found)
	}
	log = log.With("scope", found)

	next, upd := task.Activate(tasks[idx], found.Role(), e.clock.Now())
	if len(upd) == 0 {
		log.Debug("nothing to change", "role", found.Role(), "state", tasks[idx].State())
		return Result{Outcome: OutcomeNoOp, Scope: found}
	}

	updated := task.CloneList(tasks)
	updated[idx] = next
	if err := e.cache.PutTasks(ctx, found.CacheKey(), updated); err != nil {
		e.record(ctx, "toggle "+taskID, err)
		return Result{Outcome: OutcomeLocalFailed, Scope: found, Err: err}
	}
	log.Debug("cache updated", "state", next.State())

	res := Result{Outcome: OutcomeSynced, Scope: found, Task: &next}
	if err := e.remote.Patch(ctx, taskID, upd); err != nil {
		e.record(ctx, "toggle "+taskID, err)
		res.Outcome = OutcomeSyncFailed
		res.Err = err
	}

	e.reloader.ReloadAllTimelines(ctx)
	return res
}

// locate scans the cached scopes in order for taskID. idx is -1 if not found.
func (e *Engine) locate(ctx context.Context, taskID string) (scope.Scope, []task.Task, int) {
	for _, s := range scope.All {
		tasks, ok, err := e.cache.Tasks(ctx, s.CacheKey())
		if err != nil {
			e.logger.Warn("skipping unreadable cache entry", "scope", s, "err", err)
			continue
		}
		if !ok {
			continue
		}
		if i := task.IndexOf(tasks, taskID); i >= 0 {
			return s, tasks, i
		}
	}
	return "", nil, -1
}

// RefreshScope replaces the cached list for s with the remote one.
// If the fetch fails, the entry is restored to what it was before the call.
func (e *Engine) RefreshScope(ctx context.Context, s scope.Scope) Result {
	res := e.refresh(ctx, s)
	if res.Outcome != OutcomeSkipped {
		e.reloader.ReloadAllTimelines(ctx)
	}
	return res
}

// RefreshAll refreshes every scope concurrently and signals a single reload.
// Results are in scope.All order.
func (e *Engine) RefreshAll(ctx context.Context) []Result {
	results := make([]Result, len(scope.All))

	var g errgroup.Group
	for i, s := range scope.All {
		i, s := i, s
		g.Go(func() error {
			results[i] = e.refresh(ctx, s)
			return nil
		})
	}
	_ = g.Wait()

	e.reloader.ReloadAllTimelines(ctx)
	return results
}

func (e *Engine) refresh(ctx context.Context, s scope.Scope) Result {
	log := e.logger.With("scope", s)

	target, err := e.resolver.Resolve(ctx, s)
	if err != nil {
		e.record(ctx, fmt.Sprintf("refresh %s", s), err)
		return Result{Outcome: OutcomeLocalFailed, Scope: s, Err: err}
	}
	if target.UserID == "" {
		log.Debug("no user id configured")
		return Result{Outcome: OutcomeSkipped, Scope: s}
	}

	backup, err := e.cache.Snapshot(ctx, target.CacheKey)
	if err != nil {
		e.record(ctx, fmt.Sprintf("refresh %s", s), err)
		return Result{Outcome: OutcomeLocalFailed, Scope: s, Err: err}
	}

	tasks, err := e.remote.FetchAll(ctx, target.UserID)
	if err != nil {
		e.record(ctx, fmt.Sprintf("refresh %s", s), err)
		if rerr := e.cache.Restore(ctx, backup); rerr != nil {
			log.Error("failed to restore cache backup", "err", rerr)
		}
		return Result{Outcome: OutcomeRestored, Scope: s, Err: err}
	}

	if err := e.cache.PutTasks(ctx, target.CacheKey, tasks); err != nil {
		e.record(ctx, fmt.Sprintf("refresh %s", s), err)
		return Result{Outcome: OutcomeLocalFailed, Scope: s, Err: err}
	}
	log.Debug("cache refreshed", "count", len(tasks))
	return Result{Outcome: OutcomeSynced, Scope: s, Count: len(tasks)}
}

// Snapshot builds the display entry for s from the local cache only.
func (e *Engine) Snapshot(ctx context.Context, s scope.Scope, family timeline.Family) timeline.Entry {
	var name string
	if target, err := e.resolver.Resolve(ctx, s); err != nil {
		e.logger.Warn("failed to resolve scope", "scope", s, "err", err)
	} else {
		name = target.DisplayName
	}

	tasks, _, err := e.cache.Tasks(ctx, s.CacheKey())
	if err != nil {
		e.logger.Warn("failed to decode cached tasks", "scope", s, "err", err)
		tasks = nil
	}
	return timeline.Build(s, tasks, name, family, e.clock.Now())
}

// LastError returns the most recently recorded failure, or "".
func (e *Engine) LastError(ctx context.Context) string {
	v, err := e.cache.String(ctx, store.LastErrorKey)
	if err != nil {
		return ""
	}
	return v
}

// record writes a failure to the log and the debug key.
func (e *Engine) record(ctx context.Context, op string, err error) {
	e.logger.Warn("sync failed", "op", op, "kind", KindOf(err), "err", err)
	msg := fmt.Sprintf("%s %s: %v", task.FormatTimestamp(e.clock.Now()), op, err)
	if werr := e.cache.SetString(ctx, store.LastErrorKey, msg); werr != nil {
		e.logger.Error("failed to record error", "err", werr)
	}
}

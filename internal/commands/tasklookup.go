package commands

import (
	"context"
	"fmt"

	"widgetsync/internal/scope"
)

// resolveTaskID returns the task id ref points at. Row references are looked
// up in the cached list of s, numbered the way `show` numbers them.
func resolveTaskID(ctx context.Context, env *Env, s scope.Scope, ref TaskRef) (string, error) {
	if ref.Row == 0 {
		return ref.ID, nil
	}

	tasks, ok, err := env.Cache.Tasks(ctx, s.CacheKey())
	if err != nil {
		return "", fmt.Errorf("cache for %s unreadable: %w", s, err)
	}
	if !ok || ref.Row > len(tasks) {
		return "", fmt.Errorf("task number out of range: %d", ref.Row)
	}
	return tasks[ref.Row-1].ID, nil
}

// Package service holds the task synchronization engine and the
// backend-agnostic interface it uses to reach the remote store.
package service

import (
	"context"

	"widgetsync/internal/task"
)

// Remote defines the operations against the authoritative task store.
// All REST calls go through this interface; the engine never builds requests itself.
//
// Implementations retry at most once, after a token refresh triggered by an
// authentication failure, and report failures as *SyncError.
type Remote interface {
	// Patch applies a partial update to the task with the given id.
	Patch(ctx context.Context, taskID string, fields task.Update) error

	// FetchAll returns all tasks owned by userID, ordered by creation time.
	FetchAll(ctx context.Context, userID string) ([]task.Task, error)
}

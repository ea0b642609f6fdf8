package store

import (
	"context"
	"encoding/json"
	"fmt"

	"widgetsync/internal/task"
)

// Cache keys written by the host app and read by the widget.
const (
	MyTasksKey = "my_tasks_key"

	// LastErrorKey holds a free-text description of the most recent sync failure.
	LastErrorKey = "widget_last_error"

	partnerTasksKeyFmt = "partner_tasks_key_%d"
	partnerNameKeyFmt  = "partner_name_key_%d"
)

// PartnerTasksKey returns the cache key for the i-th partner (0-based).
func PartnerTasksKey(i int) string {
	return fmt.Sprintf(partnerTasksKeyFmt, i)
}

// PartnerNameKey returns the display-name key for the i-th partner (0-based).
func PartnerNameKey(i int) string {
	return fmt.Sprintf(partnerNameKeyFmt, i)
}

// Cache stores one task list per scope key as a JSON array.
// Lists are always replaced whole, never merged.
type Cache struct {
	kv KV
}

// NewCache creates a task cache over kv.
func NewCache(kv KV) *Cache {
	return &Cache{kv: kv}
}

// Tasks decodes the list stored under key. ok is false if nothing is stored.
// A stored value that is not a task array is returned as an error.
func (c *Cache) Tasks(ctx context.Context, key string) ([]task.Task, bool, error) {
	raw, ok, err := c.kv.Get(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	var tasks []task.Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, true, fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}
	return tasks, true, nil
}

// PutTasks replaces the list stored under key.
func (c *Cache) PutTasks(ctx context.Context, key string, tasks []task.Task) error {
	if tasks == nil {
		tasks = []task.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return c.kv.Set(ctx, key, string(data))
}

// Backup is a raw copy of one cache entry, including its absence.
type Backup struct {
	Key     string
	Value   string
	Present bool
}

// Snapshot captures the raw entry under key.
func (c *Cache) Snapshot(ctx context.Context, key string) (Backup, error) {
	v, ok, err := c.kv.Get(ctx, key)
	if err != nil {
		return Backup{}, err
	}
	return Backup{Key: key, Value: v, Present: ok}, nil
}

// Restore writes a backup back verbatim. An absent backup deletes the key.
func (c *Cache) Restore(ctx context.Context, b Backup) error {
	if !b.Present {
		return c.kv.Delete(ctx, b.Key)
	}
	return c.kv.Set(ctx, b.Key, b.Value)
}

// String reads a plain string value such as a partner display name.
func (c *Cache) String(ctx context.Context, key string) (string, error) {
	v, _, err := c.kv.Get(ctx, key)
	return v, err
}

// SetString writes a plain string value.
func (c *Cache) SetString(ctx context.Context, key, value string) error {
	return c.kv.Set(ctx, key, value)
}

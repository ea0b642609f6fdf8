// Package task defines the shared task record and its activation state machine.
package task

import (
	"time"
)

// Field is a column name in the remote tasks table.
// The JSON tags on Task use the same names.
type Field string

// Mutable fields carried in a partial-update document.
const (
	FieldIsDone      Field = "is_done"
	FieldDoneAt      Field = "done_at"
	FieldIsConfirmed Field = "is_confirmed"
	FieldConfirmedAt Field = "confirmed_at"
)

// Task represents a single task row as stored remotely and in the local cache.
type Task struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	IsDone           bool    `json:"is_done"`
	DoneAt           *string `json:"done_at"`
	CreatedAt        string  `json:"created_at"`
	ResetType        *int    `json:"reset_type"`
	ResetValue       *int    `json:"reset_value"`
	ScheduledResetAt *string `json:"scheduled_reset_at"`
	IsConfirmed      *bool   `json:"is_confirmed"`
	ConfirmedAt      *string `json:"confirmed_at"`
}

// Update is a partial-update document: only the fields that changed.
// A nil value is sent as JSON null.
type Update map[Field]any

// Confirmed reports whether a partner acknowledged the task. Nil means false.
func (t Task) Confirmed() bool {
	return t.IsConfirmed != nil && *t.IsConfirmed
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	c := t
	c.DoneAt = cloneString(t.DoneAt)
	c.ScheduledResetAt = cloneString(t.ScheduledResetAt)
	c.ConfirmedAt = cloneString(t.ConfirmedAt)
	c.ResetType = cloneInt(t.ResetType)
	c.ResetValue = cloneInt(t.ResetValue)
	if t.IsConfirmed != nil {
		v := *t.IsConfirmed
		c.IsConfirmed = &v
	}
	return c
}

// EffectivelyDone reports whether the task should display as done at now.
// A scheduled reset in the past overrides IsDone; an unparsable reset time is ignored.
func (t Task) EffectivelyDone(now time.Time) bool {
	if !t.IsDone {
		return false
	}
	if t.ScheduledResetAt == nil {
		return true
	}
	resetAt, ok := ParseTimestamp(*t.ScheduledResetAt)
	if !ok {
		return true
	}
	return !now.After(resetAt)
}

// CloneList deep-copies a task list.
func CloneList(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

// IndexOf returns the position of the task with the given id, or -1.
func IndexOf(tasks []Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneInt(n *int) *int {
	if n == nil {
		return nil
	}
	v := *n
	return &v
}

// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"sync"

	"widgetsync/internal/task"
)

// PatchCall records one FakeRemote.Patch invocation.
type PatchCall struct {
	TaskID string
	Fields task.Update
}

// FakeRemote is an in-memory implementation of service.Remote for testing.
// It records every call and applies patches to its own rows.
type FakeRemote struct {
	mu      sync.Mutex
	rows    map[string][]task.Task // userID -> tasks
	patches []PatchCall
	fetches []string

	// Error injection for testing
	PatchErr error
	FetchErr map[string]error // userID -> error
}

// NewFakeRemote creates an empty FakeRemote.
func NewFakeRemote() *FakeRemote {
	return &FakeRemote{
		rows:     make(map[string][]task.Task),
		FetchErr: make(map[string]error),
	}
}

// SetRows replaces the tasks owned by userID.
func (f *FakeRemote) SetRows(userID string, tasks ...task.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[userID] = task.CloneList(tasks)
}

// Patches returns the recorded Patch calls.
func (f *FakeRemote) Patches() []PatchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]PatchCall, len(f.patches))
	copy(out, f.patches)
	return out
}

// Fetches returns the user ids passed to FetchAll, in call order.
func (f *FakeRemote) Fetches() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.fetches))
	copy(out, f.fetches)
	return out
}

// Patch implements service.Remote.
func (f *FakeRemote) Patch(ctx context.Context, taskID string, fields task.Update) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patches = append(f.patches, PatchCall{TaskID: taskID, Fields: fields})
	if f.PatchErr != nil {
		return f.PatchErr
	}
	for _, tasks := range f.rows {
		if i := task.IndexOf(tasks, taskID); i >= 0 {
			applyUpdate(&tasks[i], fields)
		}
	}
	return nil
}

// FetchAll implements service.Remote.
func (f *FakeRemote) FetchAll(ctx context.Context, userID string) ([]task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches = append(f.fetches, userID)
	if err, ok := f.FetchErr[userID]; ok && err != nil {
		return nil, err
	}
	tasks := task.CloneList(f.rows[userID])
	if tasks == nil {
		tasks = []task.Task{}
	}
	return tasks, nil
}

func applyUpdate(t *task.Task, fields task.Update) {
	for field, v := range fields {
		switch field {
		case task.FieldIsDone:
			t.IsDone, _ = v.(bool)
		case task.FieldDoneAt:
			t.DoneAt = stringPtr(v)
		case task.FieldIsConfirmed:
			b, _ := v.(bool)
			t.IsConfirmed = &b
		case task.FieldConfirmedAt:
			t.ConfirmedAt = stringPtr(v)
		}
	}
}

func stringPtr(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

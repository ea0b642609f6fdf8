package commands

import (
	"context"
	"errors"
	"testing"

	"widgetsync/internal/scope"
	"widgetsync/internal/store"
	"widgetsync/internal/task"
)

func TestParseTaskRef_ID(t *testing.T) {
	ref, err := ParseTaskRef([]string{"7f3c-task"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.ID != "7f3c-task" {
		t.Errorf("expected ID 7f3c-task, got %q", ref.ID)
	}
	if ref.Row != 0 {
		t.Errorf("expected Row 0, got %d", ref.Row)
	}
}

func TestParseTaskRef_NumericID(t *testing.T) {
	ref, err := ParseTaskRef([]string{"42"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.ID != "42" || ref.Row != 0 {
		t.Errorf("expected ID 42, got %+v", ref)
	}
}

func TestParseTaskRef_Row(t *testing.T) {
	ref, err := ParseTaskRef([]string{"@12"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Row != 12 {
		t.Errorf("expected Row 12, got %d", ref.Row)
	}
	if ref.ID != "" {
		t.Errorf("expected empty ID, got %q", ref.ID)
	}
}

func TestParseTaskRef_Invalid(t *testing.T) {
	tests := []struct {
		arg  string
		want string
	}{
		{"@", "invalid task reference: @"},
		{"@0", "invalid task reference: @0"},
		{"@x1", "invalid task reference: @x1"},
		{"@-1", "invalid task reference: @-1"},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			_, err := ParseTaskRef([]string{tt.arg})
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Error() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, err.Error())
			}
		})
	}
}

func TestParseTaskRef_Required(t *testing.T) {
	for _, args := range [][]string{nil, {""}, {"  "}} {
		_, err := ParseTaskRef(args)
		if !errors.Is(err, ErrTaskRefRequired) {
			t.Errorf("args %q: expected ErrTaskRefRequired, got %v", args, err)
		}
	}
}

func TestParseTaskRef_ExtraArg(t *testing.T) {
	_, err := ParseTaskRef([]string{"t1", "t2"})
	if err == nil || err.Error() != "unexpected argument: t2" {
		t.Errorf("expected unexpected argument error, got %v", err)
	}
}

func TestResolveTaskID(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	env := NewEnv(EnvDeps{KV: kv})
	if err := env.Cache.PutTasks(ctx, scope.Partner1.CacheKey(), []task.Task{{ID: "p1"}, {ID: "p2"}}); err != nil {
		t.Fatalf("failed to seed cache: %v", err)
	}

	id, err := resolveTaskID(ctx, env, scope.Partner1, TaskRef{Row: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "p2" {
		t.Errorf("expected p2, got %q", id)
	}

	id, err = resolveTaskID(ctx, env, scope.Me, TaskRef{ID: "anything"})
	if err != nil || id != "anything" {
		t.Errorf("expected id passthrough, got %q, %v", id, err)
	}

	if _, err := resolveTaskID(ctx, env, scope.Partner1, TaskRef{Row: 3}); err == nil {
		t.Error("expected out of range error")
	}
	if _, err := resolveTaskID(ctx, env, scope.Me, TaskRef{Row: 1}); err == nil {
		t.Error("expected out of range error for uncached scope")
	}
}

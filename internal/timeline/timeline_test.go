package timeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"widgetsync/internal/scope"
	"widgetsync/internal/store"
	"widgetsync/internal/task"
	"widgetsync/internal/timeline"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func strp(s string) *string { return &s }
func boolp(b bool) *bool    { return &b }

func TestHeader(t *testing.T) {
	assert.Equal(t, "MY TASKS", timeline.Header(scope.Me, "ignored"))
	assert.Equal(t, "ALEX", timeline.Header(scope.Partner1, "Alex"))
	assert.Equal(t, "PARTNER 2", timeline.Header(scope.Partner2, ""))
	assert.Equal(t, "PARTNER 3", timeline.Header(scope.Partner3, ""))
}

func TestParseFamily(t *testing.T) {
	f, err := timeline.ParseFamily("")
	require.NoError(t, err)
	assert.Equal(t, timeline.Medium, f)

	f, err = timeline.ParseFamily("LARGE")
	require.NoError(t, err)
	assert.Equal(t, 6, f.Capacity())

	_, err = timeline.ParseFamily("huge")
	assert.Error(t, err)
}

func TestBuild_EffectiveDoneAndCapacity(t *testing.T) {
	tasks := []task.Task{
		{ID: "a", Title: "Plain"},
		{ID: "b", Title: "Expired", IsDone: true, ScheduledResetAt: strp("2025-06-01T11:59:59Z")},
		{ID: "c", Title: "Confirmed", IsDone: true, IsConfirmed: boolp(true)},
	}

	e := timeline.Build(scope.Partner1, tasks, "", timeline.Medium, now)

	assert.Equal(t, "PARTNER 1", e.Header)
	assert.Equal(t, now, e.Date)
	assert.Equal(t, []timeline.Item{
		{ID: "a", Title: "Plain"},
		{ID: "b", Title: "Expired"},
	}, e.Tasks)

	e = timeline.Build(scope.Partner1, tasks, "", timeline.Large, now)
	require.Len(t, e.Tasks, 3)
	assert.True(t, e.Tasks[2].Done)
	assert.True(t, e.Tasks[2].Confirmed)

	e = timeline.Build(scope.Me, tasks, "", timeline.Small, now)
	assert.Len(t, e.Tasks, 1)
}

func TestBuild_EmptyListIsNotNil(t *testing.T) {
	e := timeline.Build(scope.Me, nil, "", timeline.Small, now)
	assert.NotNil(t, e.Tasks)
	assert.Empty(t, e.Tasks)
}

func TestStoreReloader(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()

	timeline.NewStoreReloader(kv, task.FixedClock(now)).ReloadAllTimelines(ctx)

	v, ok, err := kv.Get(ctx, timeline.ReloadRequestedKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2025-06-01T12:00:00.000Z", v)
}

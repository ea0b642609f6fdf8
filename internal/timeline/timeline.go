// Package timeline builds the display-ready snapshot consumed by the widget
// presentation layer and carries the "reload all timelines" signal back to it.
package timeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"widgetsync/internal/scope"
	"widgetsync/internal/store"
	"widgetsync/internal/task"
)

// Family is a widget size.
type Family string

const (
	Small  Family = "small"
	Medium Family = "medium"
	Large  Family = "large"
)

// ParseFamily converts a name to a Family. Empty input means Medium.
func ParseFamily(s string) (Family, error) {
	switch Family(strings.ToLower(strings.TrimSpace(s))) {
	case "", Medium:
		return Medium, nil
	case Small:
		return Small, nil
	case Large:
		return Large, nil
	}
	return "", fmt.Errorf("unknown widget family: %s", s)
}

// Capacity returns how many task cells the family lays out (columns x rows).
func (f Family) Capacity() int {
	switch f {
	case Small:
		return 1
	case Large:
		return 2 * 3
	default:
		return 2
	}
}

// Item is one task as the widget displays it.
type Item struct {
	ID        string `json:"id" yaml:"id"`
	Title     string `json:"title" yaml:"title"`
	Done      bool   `json:"done" yaml:"done"`
	Confirmed bool   `json:"confirmed" yaml:"confirmed"`
}

// Entry is a display-ready snapshot of one scope.
type Entry struct {
	Date   time.Time   `json:"date" yaml:"date"`
	Scope  scope.Scope `json:"scope" yaml:"scope"`
	Header string      `json:"header" yaml:"header"`
	Tasks  []Item      `json:"tasks" yaml:"tasks"`
}

// Build derives an Entry from cached tasks. Done is the effective done-ness at now,
// and the list is truncated to what the family can show.
func Build(s scope.Scope, tasks []task.Task, partnerName string, family Family, now time.Time) Entry {
	items := make([]Item, 0, len(tasks))
	for _, t := range tasks {
		if len(items) == family.Capacity() {
			break
		}
		done := t.EffectivelyDone(now)
		items = append(items, Item{
			ID:        t.ID,
			Title:     t.Title,
			Done:      done,
			Confirmed: done && t.Confirmed(),
		})
	}
	return Entry{
		Date:   now,
		Scope:  s,
		Header: Header(s, partnerName),
		Tasks:  items,
	}
}

// Header returns the widget title for a scope.
func Header(s scope.Scope, partnerName string) string {
	if s == scope.Me {
		return "MY TASKS"
	}
	if partnerName != "" {
		return strings.ToUpper(partnerName)
	}
	if n := s.Number(); n > 0 {
		return fmt.Sprintf("PARTNER %d", n)
	}
	return "PARTNER"
}

// Reloader receives the signal that every displayed timeline should be rebuilt.
type Reloader interface {
	ReloadAllTimelines(ctx context.Context)
}

// ReloadRequestedKey holds the time of the latest reload request.
const ReloadRequestedKey = "widget_reload_requested_at"

// StoreReloader publishes reload requests through the shared store,
// where widget processes poll for them.
type StoreReloader struct {
	kv    store.KV
	clock task.Clock
}

// NewStoreReloader creates a reloader writing to kv.
func NewStoreReloader(kv store.KV, clock task.Clock) *StoreReloader {
	if clock == nil {
		clock = task.SystemClock{}
	}
	return &StoreReloader{kv: kv, clock: clock}
}

// ReloadAllTimelines implements Reloader. Write failures are ignored;
// the widget falls back to its own refresh schedule.
func (r *StoreReloader) ReloadAllTimelines(ctx context.Context) {
	_ = r.kv.Set(ctx, ReloadRequestedKey, task.FormatTimestamp(r.clock.Now()))
}

// ReloaderFunc adapts a function to Reloader.
type ReloaderFunc func(ctx context.Context)

// ReloadAllTimelines calls f.
func (f ReloaderFunc) ReloadAllTimelines(ctx context.Context) { f(ctx) }

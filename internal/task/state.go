package task

import "time"

// State is the activation state of a task as seen by one viewer.
type State int

const (
	Undone State = iota
	Done
	Confirmed
)

func (s State) String() string {
	switch s {
	case Done:
		return "done"
	case Confirmed:
		return "confirmed"
	default:
		return "undone"
	}
}

// Role is the viewer's relation to the task.
type Role int

const (
	// Owner is viewing their own task list.
	Owner Role = iota

	// Partner is viewing someone else's task list.
	Partner
)

func (r Role) String() string {
	if r == Partner {
		return "partner"
	}
	return "owner"
}

// State derives the activation state from the stored fields.
// A confirmation without a completion is treated as Undone.
func (t Task) State() State {
	if !t.IsDone {
		return Undone
	}
	if t.Confirmed() {
		return Confirmed
	}
	return Done
}

// Activate applies a single tap by a viewer with the given role.
// It never modifies t; the returned task is a deep copy with the transition
// applied, and the Update lists exactly the fields that changed. An empty
// Update means the tap is a no-op for this role.
//
//	state      owner                    partner
//	Undone     -> Done                  no-op
//	Done       -> Undone                -> Confirmed
//	Confirmed  -> Undone (clears all)   -> Done (clears confirmation)
func Activate(t Task, role Role, now time.Time) (Task, Update) {
	next := t.Clone()
	upd := Update{}
	stamp := FormatTimestamp(now)

	switch t.State() {
	case Undone:
		if role == Partner {
			return next, upd
		}
		next.IsDone = true
		next.DoneAt = &stamp
		upd[FieldIsDone] = true
		upd[FieldDoneAt] = stamp

	case Done:
		if role == Partner {
			confirmed := true
			next.IsConfirmed = &confirmed
			next.ConfirmedAt = &stamp
			upd[FieldIsConfirmed] = true
			upd[FieldConfirmedAt] = stamp
			break
		}
		next.IsDone = false
		next.DoneAt = nil
		upd[FieldIsDone] = false
		upd[FieldDoneAt] = nil

	case Confirmed:
		unconfirmed := false
		next.IsConfirmed = &unconfirmed
		upd[FieldIsConfirmed] = false
		if role == Partner {
			break
		}
		next.IsDone = false
		next.DoneAt = nil
		upd[FieldIsDone] = false
		upd[FieldDoneAt] = nil
	}

	return next, upd
}

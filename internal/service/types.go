package service

import (
	"errors"
	"fmt"

	"widgetsync/internal/scope"
	"widgetsync/internal/task"
)

// ErrorKind classifies a failed remote operation.
type ErrorKind int

const (
	// Unauthenticated means the token was rejected and refreshing it failed.
	Unauthenticated ErrorKind = iota + 1

	// ServerRejected means the server answered with a non-2xx status other than 401.
	ServerRejected

	// Network means the request never got a response.
	Network

	// Misconfigured means the backend URL or API key is missing; nothing was sent.
	Misconfigured
)

func (k ErrorKind) String() string {
	switch k {
	case Unauthenticated:
		return "unauthenticated"
	case ServerRejected:
		return "server rejected"
	case Network:
		return "network"
	case Misconfigured:
		return "misconfigured"
	default:
		return "unknown"
	}
}

// SyncError is returned by Remote implementations.
type SyncError struct {
	Kind ErrorKind
	Op   string // "patch" or "fetch"

	// StatusCode is the last HTTP status seen, or 0.
	StatusCode int

	Err error
}

func (e *SyncError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SyncError) Unwrap() error { return e.Err }

// KindOf returns the ErrorKind of err, or 0 if err is not a *SyncError.
func KindOf(err error) ErrorKind {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

// Outcome describes what an engine entry point did.
type Outcome int

const (
	// OutcomeNotFound: the task id was in no cached scope. Nothing changed.
	OutcomeNotFound Outcome = iota + 1

	// OutcomeNoOp: the transition required no change. Nothing changed.
	OutcomeNoOp

	// OutcomeSynced: the local write happened and the remote accepted it.
	OutcomeSynced

	// OutcomeSyncFailed: the local write happened (and is kept) but the remote call failed.
	OutcomeSyncFailed

	// OutcomeSkipped: the scope has no remote user id configured.
	OutcomeSkipped

	// OutcomeRestored: the refresh failed and the previous cache entry was put back.
	OutcomeRestored

	// OutcomeLocalFailed: the local store could not be read or written.
	OutcomeLocalFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNotFound:
		return "not found"
	case OutcomeNoOp:
		return "no-op"
	case OutcomeSynced:
		return "synced"
	case OutcomeSyncFailed:
		return "sync failed"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeRestored:
		return "restored"
	case OutcomeLocalFailed:
		return "local store failed"
	default:
		return "unknown"
	}
}

// Result reports the outcome of Activate or RefreshScope.
// Failures are absorbed by the engine; Err is informational only.
type Result struct {
	Outcome Outcome
	Scope   scope.Scope

	// Task is the record after the transition, set when Activate wrote the cache.
	Task *task.Task

	// Count is the number of tasks stored by a successful refresh.
	Count int

	Err error
}

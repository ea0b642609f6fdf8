// Package exitcode defines exit codes for the CLI.
package exitcode

// Toggle and refresh absorb sync failures and exit Success; these codes
// cover failures before a command reaches the engine.
const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates bad arguments, an unknown scope or a task row out of range.
	UserError = 1

	// AuthError indicates a missing backend configuration or a rejected sign in.
	AuthError = 2

	// BackendError indicates the local store or the remote could not be reached.
	BackendError = 3
)

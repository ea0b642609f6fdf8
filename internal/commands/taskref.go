package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// TaskRef represents a parsed task reference.
type TaskRef struct {
	ID  string // task id, empty if Row is set
	Row int    // 1-based row in a scope's cached list, 0 if ID is set
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// rowPrefix marks a row reference, e.g. "@2" for the second row shown by `show`.
const rowPrefix = "@"

// ParseTaskRef parses a task reference from args.
//
// Parsing rules:
// 1. No args, or a blank first arg → error: task reference required
// 2. "@<digits>" with a value of at least 1 → row reference
// 3. "@" followed by anything else → error: invalid task reference: <ref>
// 4. Anything else → task id
// 5. More than one arg → error: unexpected argument: <arg>
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return TaskRef{}, ErrTaskRefRequired
	}
	if len(args) > 1 {
		return TaskRef{}, fmt.Errorf("unexpected argument: %s", args[1])
	}

	arg := strings.TrimSpace(args[0])
	if !strings.HasPrefix(arg, rowPrefix) {
		return TaskRef{ID: arg}, nil
	}

	digits := strings.TrimPrefix(arg, rowPrefix)
	if !isAllDigits(digits) {
		return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
	}
	num, err := strconv.Atoi(digits)
	if err != nil || num < 1 {
		return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
	}
	return TaskRef{Row: num}, nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

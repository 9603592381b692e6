package audit

import (
	"errors"
	"fmt"
)

// ErrStore matches every failure to persist or read the audit log.
var ErrStore = errors.New("audit log unavailable")

// WriteError reports a failed audit operation on a specific file.
// The hook verdict is still valid when one is returned.
type WriteError struct {
	Op   string
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Is lets callers test with errors.Is(err, ErrStore).
func (e *WriteError) Is(target error) bool { return target == ErrStore }

package chemenv

import (
	"errors"
	"fmt"
)

// Stage names the pipeline step a site failed in, so callers can retry
// with adjusted configuration.
type Stage string

const (
	StageTessellation Stage = "tessellation"
	StageBreakpoints  Stage = "breakpoints"
	StageSymmetry     Stage = "symmetry"
)

// EnvError provides structured error information for a failed site.
type EnvError struct {
	Op    string // operation that failed, e.g. "ComputeEnvironments"
	Stage Stage
	Site  int
	Cause error
}

// Error implements the error interface.
func (e *EnvError) Error() string {
	return fmt.Sprintf("%s site %d (%s): %v", e.Op, e.Site, e.Stage, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *EnvError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's cause.
func (e *EnvError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// siteError wraps a cause with site and stage context.
func siteError(site int, stage Stage, cause error) error {
	return &EnvError{Op: "ComputeEnvironments", Stage: stage, Site: site, Cause: cause}
}

package schemas

import "errors"

// ErrNoActivePage is returned when an operation requires a live page but the
// coordinator has no driver attached. This is the only precondition failure
// that surfaces as a Go error; interaction failures are folded into the
// SkillResult messages instead.
var ErrNoActivePage = errors.New("no active page: a browser session must be attached before executing actions")

// ErrNoElement indicates that a locator matched nothing on the live page.
var ErrNoElement = errors.New("no element matched the supplied locator")

// ValidationError reports a structurally invalid selector or action payload.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

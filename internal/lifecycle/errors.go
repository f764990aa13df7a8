package lifecycle

import "errors"

// ErrPreconditionFailed is matched by every error returned when a transition
// guard does not hold for the current row.
var ErrPreconditionFailed = errors.New("precondition failed")

var ErrUnknownAction = errors.New("unknown action")

// PreconditionError names the guard that did not hold.
type PreconditionError struct {
	Action Action
	Reason string
}

func (e *PreconditionError) Error() string { return e.Reason }

func (e *PreconditionError) Is(target error) bool { return target == ErrPreconditionFailed }

func Precondition(a Action, reason string) error {
	return &PreconditionError{Action: a, Reason: reason}
}

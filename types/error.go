package types

import (
	"errors"
	"fmt"
)

// ErrEndOfStream matches (via errors.Is) any error caused by the end of a
// stream reached on pull.
var ErrEndOfStream = errors.New("end of stream")

// ErrEngine is a failed engine call converted into a Go error.
type ErrEngine struct {
	Op   string
	Info *ErrorInfo
}

func (e ErrEngine) Error() string {
	if e.Info == nil {
		return fmt.Sprintf("unable to %s: the engine did not report the reason", e.Op)
	}
	return fmt.Sprintf("unable to %s: %s", e.Op, e.Info)
}

func (e ErrEngine) Is(target error) bool {
	return target == ErrEndOfStream && e.Info.IsEndOfStream()
}

// ErrorInfoOf extracts the engine error snapshot from the chain of err,
// if any.
func ErrorInfoOf(err error) *ErrorInfo {
	var engineErr ErrEngine
	if !errors.As(err, &engineErr) {
		return nil
	}
	return engineErr.Info
}

// ErrInvalidState is returned when an operation is not allowed in the
// current state of the object (a programming error of the caller).
type ErrInvalidState struct {
	Op     string
	State  fmt.Stringer
	Reason string
}

func (e ErrInvalidState) Error() string {
	var state string
	if e.State != nil {
		state = e.State.String()
	} else {
		state = "<nil>"
	}
	if e.Reason != "" {
		return fmt.Sprintf("cannot %s in state %s: %s", e.Op, state, e.Reason)
	}
	return fmt.Sprintf("cannot %s in state %s", e.Op, state)
}

type ErrInvalidIndex struct {
	Op    string
	Index int
	Count int
}

func (e ErrInvalidIndex) Error() string {
	return fmt.Sprintf("cannot %s: index %d is out of range [0, %d)", e.Op, e.Index, e.Count)
}

type ErrNilSample struct {
	Op string
}

func (e ErrNilSample) Error() string {
	return fmt.Sprintf("cannot %s: the sample is nil, use the end-of-stream push to signal the end of the input", e.Op)
}

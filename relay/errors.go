package relay

import "fmt"

type ErrPull struct {
	Err error
}

func (e ErrPull) Error() string {
	return fmt.Sprintf("unable to pull from the source: %v", e.Err)
}

func (e ErrPull) Unwrap() error {
	return e.Err
}

type ErrPush struct {
	Err error
}

func (e ErrPush) Error() string {
	return fmt.Sprintf("unable to push into the sink: %v", e.Err)
}

func (e ErrPush) Unwrap() error {
	return e.Err
}

type ErrPushEndOfStream struct {
	Err error
}

func (e ErrPushEndOfStream) Error() string {
	return fmt.Sprintf("unable to signal the end of stream to the sink: %v", e.Err)
}

func (e ErrPushEndOfStream) Unwrap() error {
	return e.Err
}

package transcoder

import "fmt"

type State int

const (
	StateCreated = State(iota)
	StateOpened
	StateRunning
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateOpened:
		return "opened"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// IsOpen returns true if data may be pulled or pushed in this state.
func (s State) IsOpen() bool {
	return s == StateOpened || s == StateRunning
}

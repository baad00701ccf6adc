package pipeline

import (
	"fmt"

	"github.com/xaionaro-go/avrelay/types"
)

type Direction int

const (
	DirectionInput = Direction(iota)
	DirectionOutput
)

func (d Direction) String() string {
	switch d {
	case DirectionInput:
		return "input"
	case DirectionOutput:
		return "output"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// ErrInvalidSocket is a socket that cannot be used in the given direction.
// It carries an ErrorInfo as if the engine had rejected the socket.
type ErrInvalidSocket struct {
	Direction Direction
	Index     int
	Info      *types.ErrorInfo
}

func (e ErrInvalidSocket) Error() string {
	return fmt.Sprintf("invalid %s socket #%d: %s", e.Direction, e.Index, e.Info)
}

// Validate checks that the socket describes enough to be opened as
// the index-th socket of the given direction.
func (s Socket) Validate(dir Direction, index int) error {
	fail := func(code types.ErrorCode, format string, args ...any) error {
		return ErrInvalidSocket{
			Direction: dir,
			Index:     index,
			Info:      types.NewErrorInfo(types.FacilityTranscoder, code, format, args...),
		}
	}

	for idx, pin := range s.pins {
		if pin.descriptor.kind == KindNone {
			return fail(types.TranscoderIncompleteDescriptor, "pin #%d has no stream descriptor", idx)
		}
	}

	switch dir {
	case DirectionInput:
		if s.file == "" && len(s.pins) == 0 {
			return fail(types.TranscoderIncompleteDescriptor, "an input socket needs a file or a pin")
		}
	case DirectionOutput:
		if len(s.pins) == 0 {
			return fail(types.TranscoderNoOutputPins, "an output socket needs at least one pin")
		}
	}
	return nil
}

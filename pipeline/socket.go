package pipeline

import (
	"fmt"
	"slices"
	"strings"

	"github.com/xaionaro-go/avrelay/types"
)

// Socket describes one input or output of a transcoder: an optional file
// (no file means the data is pushed or pulled by the caller), the stream
// type of the socket and its pins.
//
// Socket has value semantics: every builder returns a new value and never
// affects the values it was derived from.
type Socket struct {
	file       string
	streamType types.StreamType
	pins       []Pin
}

func NewSocket() Socket {
	return Socket{}
}

func (s Socket) File(path string) Socket {
	s.file = path
	return s
}

func (s Socket) StreamType(t types.StreamType) Socket {
	s.streamType = t
	return s
}

// AddPin appends a copy of pin.
func (s Socket) AddPin(pin Pin) Socket {
	s.pins = append(slices.Clip(s.pins), pin)
	return s
}

func (s Socket) Path() string           { return s.file }
func (s Socket) Type() types.StreamType { return s.streamType }

func (s Socket) Pins() []Pin {
	return slices.Clone(s.pins)
}

func (s Socket) String() string {
	var b strings.Builder
	b.WriteString("Socket{")
	if s.file != "" {
		fmt.Fprintf(&b, "file:'%s' ", s.file)
	}
	fmt.Fprintf(&b, "type:%s pins:[", s.streamType)
	for idx, pin := range s.pins {
		if idx > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pin.String())
	}
	b.WriteString("]}")
	return b.String()
}

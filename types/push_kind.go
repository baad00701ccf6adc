package types

import "fmt"

// PushKind distinguishes a data unit from the end-of-stream signal on
// a transcoder input.
type PushKind int

const (
	UndefinedPushKind = PushKind(iota)
	PushKindData
	PushKindEndOfStream
)

func (k PushKind) String() string {
	switch k {
	case UndefinedPushKind:
		return "undefined"
	case PushKindData:
		return "data"
	case PushKindEndOfStream:
		return "end_of_stream"
	default:
		return fmt.Sprintf("PushKind(%d)", int(k))
	}
}

// media_type.go defines the MediaType enum and its methods.

package types

import "fmt"

// MediaType is the broad kind of a stream.
type MediaType int

const (
	MediaTypeUnknown = MediaType(-0x1)
	MediaTypeAudio   = MediaType(0x1)
	MediaTypeOther   = MediaType(0x2)
)

func MediaTypes() []MediaType {
	return []MediaType{
		MediaTypeUnknown,
		MediaTypeAudio,
		MediaTypeOther,
	}
}

func (t MediaType) String() string {
	switch t {
	case MediaTypeAudio:
		return "audio"
	case MediaTypeOther:
		return "other"
	case MediaTypeUnknown:
		return "unknown"
	default:
		return "MediaType(" + fmt.Sprintf("%d", int(t)) + ")"
	}
}

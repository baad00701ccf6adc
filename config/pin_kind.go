package config

import (
	"fmt"
	"strings"
)

// PinKind selects the stream descriptor of a pin; the empty value means
// audio.
type PinKind string

const (
	PinKindAudio = PinKind("")
	PinKindOther = PinKind("other")
	PinKindNone  = PinKind("none")
)

func (k PinKind) String() string {
	if k == PinKindAudio {
		return "audio"
	}
	return string(k)
}

func (k *PinKind) UnmarshalText(b []byte) error {
	switch s := strings.ToLower(strings.TrimSpace(string(b))); s {
	case "", "audio":
		*k = PinKindAudio
	case string(PinKindOther), string(PinKindNone):
		*k = PinKind(s)
	default:
		return fmt.Errorf("unknown pin kind '%s'", string(b))
	}
	return nil
}

// stream_type.go defines the StreamType enum (codec/container kind) and its text encoding.

package types

import (
	"fmt"
	"path/filepath"
	"strings"
)

// StreamType is the codec or container kind of a socket or a pin.
type StreamType int

const (
	UndefinedStreamType = StreamType(iota)
	StreamTypeLPCM
	StreamTypeWAVE
	StreamTypeAAC
	StreamTypeADTS
	StreamTypeMP3
	EndOfStreamType
)

func StreamTypes() []StreamType {
	var result []StreamType
	for t := UndefinedStreamType + 1; t < EndOfStreamType; t++ {
		result = append(result, t)
	}
	return result
}

func (t StreamType) String() string {
	switch t {
	case UndefinedStreamType:
		return "undefined"
	case StreamTypeLPCM:
		return "lpcm"
	case StreamTypeWAVE:
		return "wave"
	case StreamTypeAAC:
		return "aac"
	case StreamTypeADTS:
		return "adts"
	case StreamTypeMP3:
		return "mp3"
	default:
		return fmt.Sprintf("StreamType(%d)", int(t))
	}
}

// IsContainer returns true if the stream type describes a file format
// rather than a single elementary stream.
func (t StreamType) IsContainer() bool {
	switch t {
	case StreamTypeWAVE, StreamTypeADTS:
		return true
	}
	return false
}

// IsCompressed returns true if decoding is required to get LPCM out of
// the stream type.
func (t StreamType) IsCompressed() bool {
	switch t {
	case StreamTypeAAC, StreamTypeADTS, StreamTypeMP3:
		return true
	}
	return false
}

func (t StreamType) MarshalText() ([]byte, error) {
	if t <= UndefinedStreamType || t >= EndOfStreamType {
		return nil, fmt.Errorf("unknown stream type: %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *StreamType) UnmarshalText(b []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(b)))
	switch s {
	case "pcm":
		s = StreamTypeLPCM.String()
	case "wav":
		s = StreamTypeWAVE.String()
	}
	for _, candidate := range StreamTypes() {
		if candidate.String() == s {
			*t = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown stream type '%s'", string(b))
}

// StreamTypeFromPath guesses the stream type of a file by its extension;
// UndefinedStreamType if the extension is not known.
func StreamTypeFromPath(path string) StreamType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return StreamTypeWAVE
	case ".pcm", ".raw", ".lpcm":
		return StreamTypeLPCM
	case ".aac", ".adts":
		return StreamTypeADTS
	case ".m4a":
		return StreamTypeAAC
	case ".mp3":
		return StreamTypeMP3
	}
	return UndefinedStreamType
}

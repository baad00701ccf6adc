package pipeline

import (
	"fmt"

	"github.com/xaionaro-go/avrelay/types"
)

// StreamKind is the tag of a StreamDescriptor.
type StreamKind int

const (
	KindNone = StreamKind(iota)
	KindAudio
	KindOther
)

func (k StreamKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindAudio:
		return "audio"
	case KindOther:
		return "other"
	default:
		return fmt.Sprintf("StreamKind(%d)", int(k))
	}
}

// AudioParams is the payload of a KindAudio descriptor. Zero values mean
// "not set".
type AudioParams struct {
	Channels      int
	SampleRate    int
	BitsPerSample int
}

// StreamDescriptor describes the stream carried by a Pin: nothing
// (KindNone), an audio stream with its parameters, or a stream of another
// media type that is known only by its StreamType.
//
// It is a value: builders return a modified copy.
type StreamDescriptor struct {
	kind       StreamKind
	streamType types.StreamType
	audio      AudioParams
}

func AudioStream(t types.StreamType) StreamDescriptor {
	return StreamDescriptor{kind: KindAudio, streamType: t}
}

func OtherStream(t types.StreamType) StreamDescriptor {
	return StreamDescriptor{kind: KindOther, streamType: t}
}

func (d StreamDescriptor) Kind() StreamKind             { return d.kind }
func (d StreamDescriptor) StreamType() types.StreamType { return d.streamType }

// Audio returns the audio parameters; ok is false if the descriptor is
// not of KindAudio.
func (d StreamDescriptor) Audio() (_ AudioParams, ok bool) {
	if d.kind != KindAudio {
		return AudioParams{}, false
	}
	return d.audio, true
}

// Channels sets the amount of channels; no-op unless KindAudio.
func (d StreamDescriptor) Channels(n int) StreamDescriptor {
	if d.kind == KindAudio {
		d.audio.Channels = n
	}
	return d
}

// SampleRate sets the sample rate in Hz; no-op unless KindAudio.
func (d StreamDescriptor) SampleRate(n int) StreamDescriptor {
	if d.kind == KindAudio {
		d.audio.SampleRate = n
	}
	return d
}

// BitsPerSample sets the sample width; no-op unless KindAudio.
func (d StreamDescriptor) BitsPerSample(n int) StreamDescriptor {
	if d.kind == KindAudio {
		d.audio.BitsPerSample = n
	}
	return d
}

func (d StreamDescriptor) String() string {
	switch d.kind {
	case KindNone:
		return "none"
	case KindAudio:
		return fmt.Sprintf(
			"audio(%s %dch %dHz %dbit)",
			d.streamType, d.audio.Channels, d.audio.SampleRate, d.audio.BitsPerSample,
		)
	default:
		return fmt.Sprintf("%s(%s)", d.kind, d.streamType)
	}
}

package pipeline

import "github.com/xaionaro-go/avrelay/types"

// Pin is one stream endpoint of a Socket. The zero value has no stream
// descriptor.
type Pin struct {
	descriptor StreamDescriptor
}

func NewPin() Pin {
	return Pin{}
}

// AudioStreamType makes the pin carry an audio stream of type t. The audio
// parameters already set on the pin are kept.
func (p Pin) AudioStreamType(t types.StreamType) Pin {
	if p.descriptor.kind == KindAudio {
		p.descriptor.streamType = t
		return p
	}
	p.descriptor = AudioStream(t)
	return p
}

func (p Pin) StreamDescriptor(d StreamDescriptor) Pin {
	p.descriptor = d
	return p
}

func (p Pin) Descriptor() StreamDescriptor {
	return p.descriptor
}

// Channels is a no-op on a pin that does not carry an audio stream.
func (p Pin) Channels(n int) Pin {
	p.descriptor = p.descriptor.Channels(n)
	return p
}

// SampleRate is a no-op on a pin that does not carry an audio stream.
func (p Pin) SampleRate(n int) Pin {
	p.descriptor = p.descriptor.SampleRate(n)
	return p
}

// BitsPerSample is a no-op on a pin that does not carry an audio stream.
func (p Pin) BitsPerSample(n int) Pin {
	p.descriptor = p.descriptor.BitsPerSample(n)
	return p
}

func (p Pin) String() string {
	return p.descriptor.String()
}

package engine

import (
	"fmt"
	"time"

	"github.com/xaionaro-go/avrelay/types"
)

// AudioFormat is the layout of interleaved LPCM data.
type AudioFormat struct {
	Channels      int
	SampleRate    int
	BitsPerSample int
}

func (f AudioFormat) String() string {
	return fmt.Sprintf("%dch/%dHz/%dbit", f.Channels, f.SampleRate, f.BitsPerSample)
}

// IsComplete returns true if every field is set and the sample width is
// a whole amount of bytes.
func (f AudioFormat) IsComplete() bool {
	return f.Channels > 0 && f.SampleRate > 0 && f.BitsPerSample > 0 && f.BitsPerSample%8 == 0
}

// BlockAlign is the size of one frame (one sample of every channel) in bytes.
func (f AudioFormat) BlockAlign() int {
	return f.Channels * f.BitsPerSample / 8
}

func (f AudioFormat) BytesPerSecond() int {
	return f.BlockAlign() * f.SampleRate
}

// Inherit returns f with its unset fields taken from parent.
func (f AudioFormat) Inherit(parent AudioFormat) AudioFormat {
	if f.Channels == 0 {
		f.Channels = parent.Channels
	}
	if f.SampleRate == 0 {
		f.SampleRate = parent.SampleRate
	}
	if f.BitsPerSample == 0 {
		f.BitsPerSample = parent.BitsPerSample
	}
	return f
}

// Duration returns the play time of size bytes of data in this format.
func (f AudioFormat) Duration(size int) time.Duration {
	bps := f.BytesPerSecond()
	if bps <= 0 {
		return 0
	}
	return time.Duration(int64(size) * int64(time.Second) / int64(bps))
}

// AudioFormatOf returns the format described by info, if info is
// an AudioStreamInfo.
func AudioFormatOf(info StreamInfo) (AudioFormat, types.StreamType, bool) {
	audio, ok := info.(AudioStreamInfo)
	if !ok || audio.MediaType() != types.MediaTypeAudio {
		return AudioFormat{}, types.UndefinedStreamType, false
	}
	return AudioFormat{
		Channels:      audio.Channels(),
		SampleRate:    audio.SampleRate(),
		BitsPerSample: audio.BitsPerSample(),
	}, audio.StreamType(), true
}

// SocketAudioFormat returns the format of the first audio pin of the socket.
func SocketAudioFormat(s Socket) (AudioFormat, types.StreamType, bool) {
	for _, pin := range s.Pins() {
		info := pin.StreamInfo()
		if info == nil {
			continue
		}
		if f, t, ok := AudioFormatOf(info); ok {
			return f, t, true
		}
	}
	return AudioFormat{}, types.UndefinedStreamType, false
}

// SocketStreamType returns the container of the socket: the explicit
// stream type if set, LPCM for a caller-fed socket, otherwise the type
// guessed from the file extension.
func SocketStreamType(s Socket) types.StreamType {
	if st := s.StreamType(); st != types.UndefinedStreamType {
		return st
	}
	if s.File() == "" {
		return types.StreamTypeLPCM
	}
	return types.StreamTypeFromPath(s.File())
}

// IsLPCM returns true for LPCM and for an unset stream type.
func IsLPCM(t types.StreamType) bool {
	return t == types.StreamTypeLPCM || t == types.UndefinedStreamType
}

// Package engine defines the boundary between avrelay and a media
// transcoding engine.
//
// The boundary is deliberately close to what a C engine exposes: objects are
// reference counted, operations report success as a boolean, and the reason of
// a failure is retrieved out-of-band through Error(). Everything above this
// package converts that protocol into Go errors.
package engine

import (
	"fmt"
	"time"

	"github.com/xaionaro-go/avrelay/types"
)

// Object is a reference-counted engine object. A freshly created object
// holds one reference owned by the caller.
type Object interface {
	Retain()
	Release()
}

// Engine is a process-wide transcoding engine. Initialize and Shutdown
// bracket any other use of the engine.
type Engine interface {
	fmt.Stringer
	Factory

	Initialize() bool
	Shutdown()

	// Error returns the reason of the last failed Initialize.
	Error() *types.ErrorInfo
}

type Factory interface {
	CreateStreamInfo() StreamInfo
	CreateAudioStreamInfo() AudioStreamInfo
	CreatePin() Pin
	CreateSocket() Socket
	CreateSample() Sample
	CreateTranscoder() Transcoder
}

type StreamInfo interface {
	Object

	MediaType() types.MediaType
	StreamType() types.StreamType
	SetStreamType(types.StreamType)
}

// AudioStreamInfo is a StreamInfo of MediaTypeAudio. Zero values mean
// "not set": the engine applies defaults or inherits them at open time.
type AudioStreamInfo interface {
	StreamInfo

	Channels() int
	SetChannels(int)
	SampleRate() int
	SetSampleRate(int)
	BitsPerSample() int
	SetBitsPerSample(int)
}

// Pin is one stream endpoint of a Socket. SetStreamInfo retains the
// stream info.
type Pin interface {
	Object

	StreamInfo() StreamInfo
	SetStreamInfo(StreamInfo)
}

// Socket is an input or an output of a Transcoder. AddPin retains the pin;
// the order of AddPin calls defines the pin indexes.
type Socket interface {
	Object

	File() string
	SetFile(string)
	StreamType() types.StreamType
	SetStreamType(types.StreamType)
	Pins() []Pin
	AddPin(Pin)
}

// Sample is a reusable media buffer.
type Sample interface {
	Object

	// Buffer returns the payload; it is valid until the next SetBuffer or Reset.
	Buffer() []byte

	// SetBuffer copies b into the sample, reusing the sample's memory when
	// possible.
	SetBuffer(b []byte)

	StartTime() time.Duration
	SetStartTime(time.Duration)

	Reset()
}

// Transcoder is one engine transcoding session.
//
// Push with a nil Sample signals the end of stream on that input; it is the
// only way to tell a push-fed input that no more data will come.
// After a false result Error() describes the failure until the next call.
type Transcoder interface {
	Object

	AddInput(Socket)
	AddOutput(Socket)

	Open() bool
	Run() bool
	Close()

	Pull(outputIndex int, sample Sample) bool
	Push(inputIndex int, sample Sample) bool

	Error() *types.ErrorInfo
}

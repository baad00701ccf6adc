// basic.go provides engine-agnostic implementations of the descriptor
// objects (stream infos, pins, sockets) and of a byte-buffer Sample.

package engine

import (
	"fmt"
	"time"

	"github.com/xaionaro-go/avrelay/types"
)

type BasicStreamInfo struct {
	RefCount
	mediaType  types.MediaType
	streamType types.StreamType
}

var _ StreamInfo = (*BasicStreamInfo)(nil)

func NewBasicStreamInfo() *BasicStreamInfo {
	si := &BasicStreamInfo{mediaType: types.MediaTypeOther}
	si.InitRefCount(nil)
	return si
}

func (si *BasicStreamInfo) MediaType() types.MediaType       { return si.mediaType }
func (si *BasicStreamInfo) StreamType() types.StreamType     { return si.streamType }
func (si *BasicStreamInfo) SetStreamType(t types.StreamType) { si.streamType = t }

func (si *BasicStreamInfo) String() string {
	return fmt.Sprintf("StreamInfo(%s:%s)", si.mediaType, si.streamType)
}

type BasicAudioStreamInfo struct {
	BasicStreamInfo
	channels      int
	sampleRate    int
	bitsPerSample int
}

var _ AudioStreamInfo = (*BasicAudioStreamInfo)(nil)

func NewBasicAudioStreamInfo() *BasicAudioStreamInfo {
	si := &BasicAudioStreamInfo{}
	si.mediaType = types.MediaTypeAudio
	si.InitRefCount(nil)
	return si
}

func (si *BasicAudioStreamInfo) Channels() int          { return si.channels }
func (si *BasicAudioStreamInfo) SetChannels(v int)      { si.channels = v }
func (si *BasicAudioStreamInfo) SampleRate() int        { return si.sampleRate }
func (si *BasicAudioStreamInfo) SetSampleRate(v int)    { si.sampleRate = v }
func (si *BasicAudioStreamInfo) BitsPerSample() int     { return si.bitsPerSample }
func (si *BasicAudioStreamInfo) SetBitsPerSample(v int) { si.bitsPerSample = v }

func (si *BasicAudioStreamInfo) String() string {
	return fmt.Sprintf(
		"AudioStreamInfo(%s: %dch %dHz %dbit)",
		si.streamType, si.channels, si.sampleRate, si.bitsPerSample,
	)
}

type BasicPin struct {
	RefCount
	streamInfo StreamInfo
}

var _ Pin = (*BasicPin)(nil)

func NewBasicPin() *BasicPin {
	p := &BasicPin{}
	p.InitRefCount(func() { p.SetStreamInfo(nil) })
	return p
}

func (p *BasicPin) StreamInfo() StreamInfo { return p.streamInfo }

func (p *BasicPin) SetStreamInfo(si StreamInfo) {
	if si != nil {
		si.Retain()
	}
	if p.streamInfo != nil {
		p.streamInfo.Release()
	}
	p.streamInfo = si
}

type BasicSocket struct {
	RefCount
	file       string
	streamType types.StreamType
	pins       []Pin
}

var _ Socket = (*BasicSocket)(nil)

func NewBasicSocket() *BasicSocket {
	s := &BasicSocket{}
	s.InitRefCount(func() {
		for _, pin := range s.pins {
			pin.Release()
		}
		s.pins = nil
	})
	return s
}

func (s *BasicSocket) File() string                     { return s.file }
func (s *BasicSocket) SetFile(v string)                 { s.file = v }
func (s *BasicSocket) StreamType() types.StreamType     { return s.streamType }
func (s *BasicSocket) SetStreamType(t types.StreamType) { s.streamType = t }
func (s *BasicSocket) Pins() []Pin                      { return s.pins }

func (s *BasicSocket) AddPin(p Pin) {
	p.Retain()
	s.pins = append(s.pins, p)
}

func (s *BasicSocket) String() string {
	if s.file != "" {
		return fmt.Sprintf("Socket(%s:'%s', %d pins)", s.streamType, s.file, len(s.pins))
	}
	return fmt.Sprintf("Socket(%s, %d pins)", s.streamType, len(s.pins))
}

type BufferSample struct {
	RefCount
	buf       []byte
	startTime time.Duration
}

var _ Sample = (*BufferSample)(nil)

func NewBufferSample() *BufferSample {
	s := &BufferSample{}
	s.InitRefCount(nil)
	return s
}

func (s *BufferSample) Buffer() []byte { return s.buf }

func (s *BufferSample) SetBuffer(b []byte) {
	s.buf = append(s.buf[:0], b...)
}

func (s *BufferSample) StartTime() time.Duration     { return s.startTime }
func (s *BufferSample) SetStartTime(v time.Duration) { s.startTime = v }

func (s *BufferSample) Reset() {
	s.buf = s.buf[:0]
	s.startTime = 0
}

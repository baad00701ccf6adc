//go:build with_libav
// +build with_libav

package libav

import (
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/avrelay/engine"
)

// pcmFormat is an engine.AudioFormat translated into libav terms
// (always packed/interleaved).
type pcmFormat struct {
	engine.AudioFormat
	SampleFormat  astiav.SampleFormat
	ChannelLayout astiav.ChannelLayout
}

func newPCMFormat(f engine.AudioFormat) (pcmFormat, error) {
	result := pcmFormat{AudioFormat: f}
	switch f.BitsPerSample {
	case 8:
		result.SampleFormat = astiav.SampleFormatU8
	case 16:
		result.SampleFormat = astiav.SampleFormatS16
	case 32:
		result.SampleFormat = astiav.SampleFormatS32
	default:
		return pcmFormat{}, fmt.Errorf("%d bits per sample is not supported", f.BitsPerSample)
	}
	switch f.Channels {
	case 1:
		result.ChannelLayout = astiav.ChannelLayoutMono
	case 2:
		result.ChannelLayout = astiav.ChannelLayoutStereo
	default:
		return pcmFormat{}, fmt.Errorf("%d channels are not supported", f.Channels)
	}
	if f.SampleRate <= 0 {
		return pcmFormat{}, fmt.Errorf("invalid sample rate: %d", f.SampleRate)
	}
	return result, nil
}

func (f pcmFormat) encoder() *astiav.Codec {
	switch f.BitsPerSample {
	case 8:
		return astiav.FindEncoderByName("pcm_u8")
	case 16:
		return astiav.FindEncoder(astiav.CodecIDPcmS16Le)
	case 32:
		return astiav.FindEncoder(astiav.CodecIDPcmS32Le)
	}
	return nil
}

// setFrameFormat prepares f to carry nbSamples frames of this format.
func (f pcmFormat) setFrameFormat(frame *astiav.Frame, nbSamples int) {
	frame.SetNbSamples(nbSamples)
	frame.SetChannelLayout(f.ChannelLayout)
	frame.SetSampleFormat(f.SampleFormat)
	frame.SetSampleRate(f.SampleRate)
}

// frameBytes copies the samples of frame into buf (interleaved) and
// returns the filled part of buf.
func frameBytes(frame *astiav.Frame, buf []byte) ([]byte, error) {
	const align = 1
	size, err := frame.SamplesBufferSize(align)
	if err != nil {
		return nil, fmt.Errorf("unable to get the sample buffer size: %w", err)
	}
	if cap(buf) < size {
		buf = make([]byte, size)
	}
	buf = buf[:size]
	if _, err := frame.SamplesCopyToBuffer(buf, align); err != nil {
		return nil, fmt.Errorf("unable to copy the samples: %w", err)
	}
	return buf, nil
}

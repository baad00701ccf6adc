//go:build with_libav
// +build with_libav

package libav

import (
	"errors"
	"fmt"
	"io"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/xaionaro-go/avrelay/engine"
)

// fileDecoder demuxes the first audio stream of a file, decodes it and
// converts it into chunks of LPCM.
type fileDecoder struct {
	closer        *astikit.Closer
	formatContext *astiav.FormatContext
	stream        *astiav.Stream
	codecContext  *astiav.CodecContext
	packet        *astiav.Packet
	frame         *astiav.Frame
	resampler     *resampler

	inputEOF   bool
	decoderEOF bool
	buf        []byte
}

func openFileDecoder(path string) (_ *fileDecoder, _err error) {
	d := &fileDecoder{closer: astikit.NewCloser()}
	defer func() {
		if _err != nil {
			d.Close()
		}
	}()

	if d.formatContext = astiav.AllocFormatContext(); d.formatContext == nil {
		return nil, errors.New("unable to allocate a format context")
	}
	d.closer.Add(d.formatContext.Free)

	if err := d.formatContext.OpenInput(path, nil, nil); err != nil {
		return nil, errOpenInput{Err: err}
	}
	d.closer.Add(d.formatContext.CloseInput)

	if err := d.formatContext.FindStreamInfo(nil); err != nil {
		return nil, fmt.Errorf("unable to find the stream info: %w", err)
	}

	for _, s := range d.formatContext.Streams() {
		if s.CodecParameters().MediaType() == astiav.MediaTypeAudio {
			d.stream = s
			break
		}
	}
	if d.stream == nil {
		return nil, errNoAudio
	}

	codec := astiav.FindDecoder(d.stream.CodecParameters().CodecID())
	if codec == nil {
		return nil, errUnsupportedCodec{CodecID: d.stream.CodecParameters().CodecID()}
	}
	if d.codecContext = astiav.AllocCodecContext(codec); d.codecContext == nil {
		return nil, errors.New("unable to allocate a codec context")
	}
	d.closer.Add(d.codecContext.Free)

	if err := d.stream.CodecParameters().ToCodecContext(d.codecContext); err != nil {
		return nil, fmt.Errorf("unable to copy the codec parameters: %w", err)
	}
	if err := d.codecContext.Open(codec, nil); err != nil {
		return nil, fmt.Errorf("unable to open the decoder: %w", err)
	}
	d.codecContext.SetTimeBase(d.stream.TimeBase())

	d.packet = astiav.AllocPacket()
	d.closer.Add(d.packet.Free)
	d.frame = astiav.AllocFrame()
	d.closer.Add(d.frame.Free)
	return d, nil
}

// NativeFormat is the format of the decoded stream; BitsPerSample is not
// set since the decoders output planar or float samples.
func (d *fileDecoder) NativeFormat() engine.AudioFormat {
	return engine.AudioFormat{
		Channels:   d.codecContext.ChannelLayout().Channels(),
		SampleRate: d.codecContext.SampleRate(),
	}
}

// SetOutputFormat must be called once before Read.
func (d *fileDecoder) SetOutputFormat(format pcmFormat, chunkSize int) error {
	r, err := newResampler(format, chunkSize)
	if err != nil {
		return err
	}
	d.resampler = r
	return nil
}

// Read returns the next chunk of LPCM; io.EOF after the last one. The
// returned slice is valid until the next Read.
func (d *fileDecoder) Read() ([]byte, error) {
	for {
		if d.resampler.Buffered() >= d.resampler.chunkSize || (d.decoderEOF && d.resampler.Buffered() > 0) {
			data, err := d.resampler.ReceiveChunk(d.buf)
			if err != nil {
				return nil, err
			}
			d.buf = data
			return data, nil
		}
		if d.decoderEOF {
			return nil, io.EOF
		}
		if err := d.decodeNext(); err != nil {
			return nil, err
		}
	}
}

// decodeNext feeds one more decoded frame (or the final flush) into the
// resampler.
func (d *fileDecoder) decodeNext() error {
	for {
		err := d.codecContext.ReceiveFrame(d.frame)
		switch {
		case err == nil:
			err := d.resampler.SendFrame(d.frame)
			d.frame.Unref()
			return err
		case errors.Is(err, astiav.ErrEof):
			d.decoderEOF = true
			return d.resampler.SendFrame(nil)
		case !errors.Is(err, astiav.ErrEagain):
			return errDecode{Err: fmt.Errorf("unable to receive a frame: %w", err)}
		}

		if d.inputEOF {
			return errDecode{Err: errors.New("the decoder wants more input after the end of the input")}
		}
		if err := d.sendNextPacket(); err != nil {
			return err
		}
	}
}

func (d *fileDecoder) sendNextPacket() error {
	for {
		err := d.formatContext.ReadFrame(d.packet)
		if errors.Is(err, astiav.ErrEof) {
			d.inputEOF = true
			if err := d.codecContext.SendPacket(nil); err != nil {
				return errDecode{Err: fmt.Errorf("unable to flush the decoder: %w", err)}
			}
			return nil
		}
		if err != nil {
			return errRead{Err: err}
		}
		if d.packet.StreamIndex() != d.stream.Index() {
			d.packet.Unref()
			continue
		}
		d.packet.RescaleTs(d.stream.TimeBase(), d.codecContext.TimeBase())
		err = d.codecContext.SendPacket(d.packet)
		d.packet.Unref()
		if err != nil {
			return errDecode{Err: fmt.Errorf("unable to send a packet: %w", err)}
		}
		return nil
	}
}

func (d *fileDecoder) Close() error {
	var errs []error
	if d.resampler != nil {
		errs = append(errs, d.resampler.Close())
		d.resampler = nil
	}
	errs = append(errs, d.closer.Close())
	return errors.Join(errs...)
}

var _ io.Closer = (*fileDecoder)(nil)

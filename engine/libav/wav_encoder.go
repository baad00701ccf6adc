//go:build with_libav
// +build with_libav

package libav

import (
	"errors"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
)

// wavEncoder encodes packed PCM into a WAVE file.
type wavEncoder struct {
	closer        *astikit.Closer
	format        pcmFormat
	formatContext *astiav.FormatContext
	stream        *astiav.Stream
	codecContext  *astiav.CodecContext
	frame         *astiav.Frame
	packet        *astiav.Packet
	pts           int64
	finished      bool
}

func openWAVEncoder(path string, format pcmFormat) (_ *wavEncoder, _err error) {
	e := &wavEncoder{
		closer: astikit.NewCloser(),
		format: format,
	}
	defer func() {
		if _err != nil {
			e.closer.Close()
		}
	}()

	codec := format.encoder()
	if codec == nil {
		return nil, fmt.Errorf("no PCM encoder for %s", format)
	}
	if e.codecContext = astiav.AllocCodecContext(codec); e.codecContext == nil {
		return nil, errors.New("unable to allocate a codec context")
	}
	e.closer.Add(e.codecContext.Free)
	e.codecContext.SetChannelLayout(format.ChannelLayout)
	e.codecContext.SetSampleRate(format.SampleRate)
	e.codecContext.SetSampleFormat(format.SampleFormat)
	e.codecContext.SetTimeBase(astiav.NewRational(1, format.SampleRate))
	if err := e.codecContext.Open(codec, nil); err != nil {
		return nil, fmt.Errorf("unable to open the encoder: %w", err)
	}

	fc, err := astiav.AllocOutputFormatContext(nil, "wav", path)
	if err != nil {
		return nil, fmt.Errorf("unable to allocate the output format context: %w", err)
	}
	if fc == nil {
		return nil, errors.New("the output format context is nil")
	}
	e.formatContext = fc
	e.closer.Add(fc.Free)

	if e.stream = fc.NewStream(nil); e.stream == nil {
		return nil, errors.New("unable to create the output stream")
	}
	if err := e.stream.CodecParameters().FromCodecContext(e.codecContext); err != nil {
		return nil, fmt.Errorf("unable to copy the codec parameters: %w", err)
	}
	e.stream.SetTimeBase(e.codecContext.TimeBase())

	if !fc.OutputFormat().Flags().Has(astiav.IOFormatFlagNofile) {
		ioContext, err := astiav.OpenIOContext(path, astiav.NewIOContextFlags(astiav.IOContextFlagWrite), nil, nil)
		if err != nil {
			return nil, fmt.Errorf("unable to open '%s' for writing: %w", path, err)
		}
		e.closer.AddWithError(ioContext.Close)
		fc.SetPb(ioContext)
	}

	if err := fc.WriteHeader(nil); err != nil {
		return nil, fmt.Errorf("unable to write the header: %w", err)
	}

	e.frame = astiav.AllocFrame()
	e.closer.Add(e.frame.Free)
	e.packet = astiav.AllocPacket()
	e.closer.Add(e.packet.Free)
	return e, nil
}

// Write encodes data, which must be a whole amount of frames.
func (e *wavEncoder) Write(data []byte) error {
	nbSamples := len(data) / e.format.BlockAlign()
	if nbSamples == 0 {
		return nil
	}
	const align = 1
	e.format.setFrameFormat(e.frame, nbSamples)
	if err := e.frame.AllocBuffer(0); err != nil {
		return fmt.Errorf("unable to allocate the frame buffer: %w", err)
	}
	defer e.frame.Unref()
	if err := e.frame.Data().SetBytes(data, align); err != nil {
		return fmt.Errorf("unable to fill the frame: %w", err)
	}
	e.frame.SetPts(e.pts)
	e.pts += int64(nbSamples)
	return e.encode(e.frame)
}

func (e *wavEncoder) encode(f *astiav.Frame) error {
	if err := e.codecContext.SendFrame(f); err != nil {
		return fmt.Errorf("unable to send the frame: %w", err)
	}
	for {
		err := e.codecContext.ReceivePacket(e.packet)
		if errors.Is(err, astiav.ErrEof) || errors.Is(err, astiav.ErrEagain) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("unable to receive a packet: %w", err)
		}
		e.packet.SetStreamIndex(e.stream.Index())
		e.packet.RescaleTs(e.codecContext.TimeBase(), e.stream.TimeBase())
		err = e.formatContext.WriteInterleavedFrame(e.packet)
		e.packet.Unref()
		if err != nil {
			return fmt.Errorf("unable to write the packet: %w", err)
		}
	}
}

// Finish flushes the encoder and writes the trailer (which fixes up the
// sizes in the WAVE header).
func (e *wavEncoder) Finish() error {
	if e.finished {
		return nil
	}
	e.finished = true
	if err := e.encode(nil); err != nil {
		return err
	}
	if err := e.formatContext.WriteTrailer(); err != nil {
		return fmt.Errorf("unable to write the trailer: %w", err)
	}
	return nil
}

func (e *wavEncoder) Close() error {
	return errors.Join(e.Finish(), e.closer.Close())
}

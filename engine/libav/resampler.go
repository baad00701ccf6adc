//go:build with_libav
// +build with_libav

package libav

import (
	"errors"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
)

// resampler converts decoded frames into chunks of packed PCM of a fixed
// format, buffering the leftovers in an AudioFifo.
type resampler struct {
	closer         *astikit.Closer
	format         pcmFormat
	chunkSize      int
	swrCtx         *astiav.SoftwareResampleContext
	fifo           *astiav.AudioFifo
	resampledFrame *astiav.Frame
	outputFrame    *astiav.Frame
	resampledCap   int
	configured     bool
}

func newResampler(
	format pcmFormat,
	chunkSize int,
) (_ *resampler, _err error) {
	r := &resampler{
		closer:    astikit.NewCloser(),
		format:    format,
		chunkSize: chunkSize,
	}
	defer func() {
		if _err != nil {
			r.Close()
		}
	}()

	r.fifo = astiav.AllocAudioFifo(format.SampleFormat, format.Channels, chunkSize)
	if r.fifo == nil {
		return nil, errors.New("unable to allocate an AudioFifo")
	}
	r.closer.Add(r.fifo.Free)

	r.swrCtx = astiav.AllocSoftwareResampleContext()
	if r.swrCtx == nil {
		return nil, errors.New("unable to allocate a SoftwareResampleContext")
	}
	r.closer.Add(r.swrCtx.Free)

	r.resampledFrame = astiav.AllocFrame()
	r.closer.Add(r.resampledFrame.Free)
	if err := r.reserve(chunkSize); err != nil {
		return nil, err
	}

	r.outputFrame = astiav.AllocFrame()
	r.closer.Add(r.outputFrame.Free)
	format.setFrameFormat(r.outputFrame, chunkSize)
	if err := r.outputFrame.AllocBuffer(0); err != nil {
		return nil, fmt.Errorf("unable to allocate the buffer of the output frame: %w", err)
	}
	return r, nil
}

// SendFrame converts in and queues the result; a nil in drains the
// samples buffered inside the resampling context.
func (r *resampler) SendFrame(in *astiav.Frame) error {
	if in == nil {
		if !r.configured {
			return nil
		}
		for {
			n, err := r.convert(nil)
			if err != nil {
				return err
			}
			if n == 0 {
				return nil
			}
		}
	}
	_, err := r.convert(in)
	return err
}

// convert runs one conversion into resampledFrame (sized for the
// whole output of the call) and moves the result into the fifo.
func (r *resampler) convert(in *astiav.Frame) (int, error) {
	outRate := int64(r.format.SampleRate)
	capacity := 3
	if r.configured {
		capacity += int(r.swrCtx.Delay(outRate))
	}
	if in != nil {
		inRate := int64(in.SampleRate())
		if inRate <= 0 {
			inRate = outRate
		}
		capacity += int((int64(in.NbSamples())*outRate + inRate - 1) / inRate)
	}
	if err := r.reserve(capacity); err != nil {
		return 0, err
	}

	r.resampledFrame.SetNbSamples(capacity)
	if err := r.swrCtx.ConvertFrame(in, r.resampledFrame); err != nil {
		return 0, fmt.Errorf("unable to convert the frame: %w", err)
	}
	r.configured = true
	n := r.resampledFrame.NbSamples()
	if n == 0 {
		return 0, nil
	}
	if _, err := r.fifo.Write(r.resampledFrame); err != nil {
		return 0, fmt.Errorf("unable to write into the AudioFifo: %w", err)
	}
	return n, nil
}

// reserve makes resampledFrame able to hold at least nbSamples frames.
func (r *resampler) reserve(nbSamples int) error {
	if nbSamples <= r.resampledCap {
		return nil
	}
	r.resampledFrame.Unref()
	r.format.setFrameFormat(r.resampledFrame, nbSamples)
	if err := r.resampledFrame.AllocBuffer(0); err != nil {
		return fmt.Errorf("unable to allocate the buffer of the resampled frame (%d samples): %w", nbSamples, err)
	}
	r.resampledCap = nbSamples
	return nil
}

// Buffered returns the amount of queued frames.
func (r *resampler) Buffered() int {
	return r.fifo.Size()
}

// ReceiveChunk returns up to chunkSize queued frames as bytes (appended
// to buf[:0]).
func (r *resampler) ReceiveChunk(buf []byte) ([]byte, error) {
	if r.fifo.Size() == 0 {
		return nil, astiav.ErrEagain
	}
	r.outputFrame.SetNbSamples(r.chunkSize)
	n, err := r.fifo.Read(r.outputFrame)
	if err != nil {
		return nil, fmt.Errorf("unable to read from the AudioFifo: %w", err)
	}
	r.outputFrame.SetNbSamples(n)
	return frameBytes(r.outputFrame, buf)
}

func (r *resampler) Close() error {
	return r.closer.Close()
}

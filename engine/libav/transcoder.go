//go:build with_libav
// +build with_libav

package libav

import (
	"errors"
	"io"
	"os"

	"github.com/xaionaro-go/avrelay/engine"
	"github.com/xaionaro-go/avrelay/logger"
	"github.com/xaionaro-go/avrelay/types"
)

// Transcoder supports exactly one input and one output: a file input is
// decoded by Run or Pull, a push-fed LPCM input is queued for Pull or
// encoded into the WAVE output.
type Transcoder struct {
	engine.RefCount
	engine  *Engine
	inputs  []engine.Socket
	outputs []engine.Socket
	err     *types.ErrorInfo

	isOpen bool
	format pcmFormat

	decoder  *fileDecoder
	position int64

	queue engine.ChunkQueue

	encoder *wavEncoder
}

var _ engine.Transcoder = (*Transcoder)(nil)

func newTranscoder(e *Engine) *Transcoder {
	t := &Transcoder{engine: e}
	t.InitRefCount(func() {
		t.Close()
		for _, s := range t.inputs {
			s.Release()
		}
		for _, s := range t.outputs {
			s.Release()
		}
		t.inputs, t.outputs = nil, nil
	})
	return t
}

func (t *Transcoder) fail(facility types.Facility, code types.ErrorCode, format string, args ...any) bool {
	t.err = types.NewErrorInfo(facility, code, format, args...)
	logger.Debugf(t.engine.ctx, "libav transcoder: %s", t.err)
	return false
}

func (t *Transcoder) Error() *types.ErrorInfo {
	return t.err
}

func (t *Transcoder) AddInput(s engine.Socket) {
	s.Retain()
	t.inputs = append(t.inputs, s)
}

func (t *Transcoder) AddOutput(s engine.Socket) {
	s.Retain()
	t.outputs = append(t.outputs, s)
}

func (t *Transcoder) Open() bool {
	t.err = nil
	if t.isOpen {
		return true
	}
	switch {
	case len(t.inputs) == 0:
		return t.fail(types.FacilityTranscoder, types.TranscoderNoInputs, "no inputs")
	case len(t.outputs) == 0:
		return t.fail(types.FacilityTranscoder, types.TranscoderNoOutputs, "no outputs")
	case len(t.inputs) > 1 || len(t.outputs) > 1:
		return t.fail(
			types.FacilityTranscoder, types.TranscoderUnsupportedTopology,
			"only one input and one output are supported, got %d inputs and %d outputs",
			len(t.inputs), len(t.outputs),
		)
	}
	in, out := t.inputs[0], t.outputs[0]

	outFormat, outPinType, ok := engine.SocketAudioFormat(out)
	if !ok {
		return t.fail(types.FacilityTranscoder, types.TranscoderNoOutputPins, "the output has no audio pin")
	}
	if !engine.IsLPCM(outPinType) {
		return t.fail(types.FacilityCodec, types.CodecUnsupportedFormat, "encoding into %s is not supported", outPinType)
	}
	outPath := out.File()
	if outPath != "" {
		if st := engine.SocketStreamType(out); st != types.StreamTypeWAVE {
			return t.fail(types.FacilityCodec, types.CodecUnsupportedFormat, "cannot write %s file '%s'", st, outPath)
		}
		if _, err := os.Stat(outPath); err == nil {
			return t.fail(types.FacilityTranscoder, types.TranscoderOutputExists, "output file '%s' already exists", outPath)
		}
	} else if st := engine.SocketStreamType(out); !engine.IsLPCM(st) {
		return t.fail(types.FacilityCodec, types.CodecUnsupportedFormat, "cannot output %s to the caller", st)
	}

	inFormat, inPinType, inHasPin := engine.SocketAudioFormat(in)
	var format engine.AudioFormat
	if path := in.File(); path != "" {
		if !t.openDecoder(path) {
			return false
		}
		format = outFormat.Inherit(t.decoder.NativeFormat()).Inherit(engine.AudioFormat{BitsPerSample: DefaultOutputBitsPerSample})
	} else {
		if !inHasPin || !engine.IsLPCM(inPinType) {
			return t.fail(types.FacilityCodec, types.CodecUnsupportedFormat, "a pushed input must carry LPCM")
		}
		if !inFormat.IsComplete() {
			return t.fail(
				types.FacilityTranscoder, types.TranscoderIncompleteDescriptor,
				"a pushed input requires channels, sample rate and bits per sample (got %s)", inFormat,
			)
		}
		format = outFormat.Inherit(inFormat)
		if format != inFormat {
			return t.fail(
				types.FacilityTranscoder, types.TranscoderUnsupportedConversion,
				"cannot convert pushed %s to %s", inFormat, format,
			)
		}
	}

	pcm, err := newPCMFormat(format)
	if err != nil {
		t.closeDecoder()
		return t.fail(types.FacilityCodec, types.CodecUnsupportedFormat, "unsupported output format %s: %v", format, err)
	}
	t.format = pcm

	if t.decoder != nil {
		if err := t.decoder.SetOutputFormat(pcm, t.engine.config.ChunkFrames); err != nil {
			t.closeDecoder()
			return t.fail(types.FacilityCodec, types.CodecUnsupportedFormat, "unable to convert into %s: %v", format, err)
		}
	}

	if outPath != "" {
		enc, err := openWAVEncoder(outPath, pcm)
		if err != nil {
			t.closeDecoder()
			return t.fail(types.FacilityIO, types.IOOpen, "unable to open output '%s': %v", outPath, err)
		}
		t.encoder = enc
	}

	t.position = 0
	t.queue.Reset()
	t.isOpen = true
	return true
}

func (t *Transcoder) openDecoder(path string) bool {
	if _, err := os.Stat(path); err != nil {
		return t.fail(types.FacilityIO, types.IOOpen, "input file '%s' is not accessible: %v", path, err)
	}
	d, err := openFileDecoder(path)
	if err == nil {
		t.decoder = d
		return true
	}
	var (
		openErr     errOpenInput
		unsupported errUnsupportedCodec
	)
	switch {
	case errors.As(err, &openErr):
		return t.fail(types.FacilityIO, types.IOOpen, "unable to open input file '%s': %v", path, err)
	case errors.As(err, &unsupported), errors.Is(err, errNoAudio):
		return t.fail(types.FacilityCodec, types.CodecUnsupportedFormat, "'%s': %v", path, err)
	default:
		return t.fail(types.FacilityCodec, types.CodecInvalidData, "'%s': %v", path, err)
	}
}

func (t *Transcoder) closeDecoder() {
	if t.decoder == nil {
		return
	}
	if err := t.decoder.Close(); err != nil {
		logger.Warnf(t.engine.ctx, "unable to close the decoder: %v", err)
	}
	t.decoder = nil
}

func (t *Transcoder) failRead(err error) bool {
	var readErr errRead
	if errors.As(err, &readErr) {
		return t.fail(types.FacilityIO, types.IORead, "%v", err)
	}
	return t.fail(types.FacilityCodec, types.CodecInvalidData, "%v", err)
}

func (t *Transcoder) Run() bool {
	t.err = nil
	if !t.isOpen {
		return t.fail(types.FacilityTranscoder, types.TranscoderNotOpen, "the transcoder is not open")
	}
	if t.decoder == nil || t.encoder == nil {
		return t.fail(
			types.FacilityTranscoder, types.TranscoderUnsupportedTopology,
			"run requires a file input and a file output; use push and pull instead",
		)
	}
	for {
		data, err := t.decoder.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return t.failRead(err)
		}
		if err := t.encoder.Write(data); err != nil {
			return t.fail(types.FacilityIO, types.IOWrite, "%v", err)
		}
	}
	t.queue.CloseInput()
	if err := t.encoder.Finish(); err != nil {
		return t.fail(types.FacilityIO, types.IOWrite, "%v", err)
	}
	return true
}

func (t *Transcoder) Pull(outputIndex int, sample engine.Sample) bool {
	t.err = nil
	switch {
	case !t.isOpen:
		return t.fail(types.FacilityTranscoder, types.TranscoderNotOpen, "the transcoder is not open")
	case outputIndex != 0:
		return t.fail(types.FacilityTranscoder, types.TranscoderInvalidIndex, "output #%d does not exist", outputIndex)
	case t.encoder != nil:
		return t.fail(types.FacilityTranscoder, types.TranscoderUnsupportedTopology, "output #0 is written into a file")
	case sample == nil:
		return t.fail(types.FacilityCodec, types.CodecInvalidData, "nil sample")
	}

	if t.decoder != nil {
		data, err := t.decoder.Read()
		if errors.Is(err, io.EOF) {
			return t.fail(types.FacilityCodec, types.CodecEndOfStream, "end of stream")
		}
		if err != nil {
			return t.failRead(err)
		}
		sample.SetBuffer(data)
		sample.SetStartTime(t.format.Duration(int(t.position)))
		t.position += int64(len(data))
		return true
	}

	c, ok := t.queue.Pop()
	if !ok {
		if t.queue.IsInputClosed() {
			return t.fail(types.FacilityCodec, types.CodecEndOfStream, "end of stream")
		}
		return t.fail(types.FacilityCodec, types.CodecInputNeeded, "more input is needed")
	}
	sample.SetBuffer(c.Data)
	sample.SetStartTime(c.StartTime)
	return true
}

func (t *Transcoder) Push(inputIndex int, sample engine.Sample) bool {
	t.err = nil
	switch {
	case !t.isOpen:
		return t.fail(types.FacilityTranscoder, types.TranscoderNotOpen, "the transcoder is not open")
	case inputIndex != 0:
		return t.fail(types.FacilityTranscoder, types.TranscoderInvalidIndex, "input #%d does not exist", inputIndex)
	case t.decoder != nil:
		return t.fail(types.FacilityTranscoder, types.TranscoderUnsupportedTopology, "input #0 is read from a file")
	case t.queue.IsInputClosed():
		return t.fail(types.FacilityTranscoder, types.TranscoderEndOfStreamSignalled, "the end of stream was already signalled")
	}

	if sample == nil {
		t.queue.CloseInput()
		if t.encoder != nil {
			if err := t.encoder.Finish(); err != nil {
				return t.fail(types.FacilityIO, types.IOWrite, "%v", err)
			}
		}
		return true
	}

	data := sample.Buffer()
	if len(data) == 0 {
		return true
	}
	if blockAlign := t.format.BlockAlign(); len(data)%blockAlign != 0 {
		return t.fail(
			types.FacilityCodec, types.CodecInvalidData,
			"%d bytes is not a whole amount of %d-byte frames", len(data), blockAlign,
		)
	}

	if t.encoder != nil {
		if err := t.encoder.Write(data); err != nil {
			return t.fail(types.FacilityIO, types.IOWrite, "%v", err)
		}
		return true
	}
	t.queue.Push(data, sample.StartTime())
	return true
}

// Close writes the trailer of the output (if the end of stream was never
// signalled) and frees the libav resources.
func (t *Transcoder) Close() {
	if !t.isOpen {
		return
	}
	t.isOpen = false
	if t.encoder != nil {
		if err := t.encoder.Close(); err != nil {
			t.fail(types.FacilityIO, types.IOWrite, "unable to close the output: %v", err)
		}
		t.encoder = nil
	}
	t.closeDecoder()
	t.queue.Reset()
}

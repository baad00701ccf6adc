package native

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/xaionaro-go/avrelay/engine"
	"github.com/xaionaro-go/avrelay/logger"
	"github.com/xaionaro-go/avrelay/types"
)

type output interface {
	io.Writer
	Finish() error
	Close() error
}

type rawWriter struct {
	*os.File
}

func (rawWriter) Finish() error { return nil }

// Transcoder supports exactly one input and one output. Each side is
// either a file or the caller: a file input is read by Run or Pull, a
// push-fed input is queued for Pull or written straight into a file
// output.
type Transcoder struct {
	engine.RefCount
	engine  *Engine
	inputs  []engine.Socket
	outputs []engine.Socket
	err     *types.ErrorInfo

	isOpen bool
	format engine.AudioFormat
	buf    []byte

	inputFile   *os.File
	inputReader io.Reader
	inputPos    int64

	queue engine.ChunkQueue

	output   output
	finished bool
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
	logger.Debugf(t.engine.ctx, "native transcoder: %s", t.err)
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
		return t.fail(types.FacilityCodec, types.CodecUnsupportedFormat, "cannot encode %s", outPinType)
	}
	if path := out.File(); path != "" {
		if _, err := os.Stat(path); err == nil {
			return t.fail(types.FacilityTranscoder, types.TranscoderOutputExists, "output file '%s' already exists", path)
		}
	}

	if !t.openInput(in) {
		return false
	}

	outFormat = outFormat.Inherit(t.format)
	if outFormat != t.format {
		t.closeInput()
		return t.fail(
			types.FacilityTranscoder, types.TranscoderUnsupportedConversion,
			"cannot convert %s to %s", t.format, outFormat,
		)
	}

	if !t.openOutput(out) {
		t.closeInput()
		return false
	}

	t.buf = make([]byte, t.engine.config.ChunkFrames*t.format.BlockAlign())
	t.queue.Reset()
	t.finished = false
	t.inputPos = 0
	t.isOpen = true
	return true
}

func (t *Transcoder) openInput(in engine.Socket) bool {
	pinFormat, pinType, hasPin := engine.SocketAudioFormat(in)
	if hasPin && !engine.IsLPCM(pinType) {
		return t.fail(types.FacilityCodec, types.CodecUnsupportedFormat, "cannot decode %s", pinType)
	}

	path := in.File()
	if path == "" {
		if !hasPin || !pinFormat.IsComplete() {
			return t.fail(
				types.FacilityTranscoder, types.TranscoderIncompleteDescriptor,
				"a pushed input requires channels, sample rate and bits per sample (got %s)", pinFormat,
			)
		}
		t.format = pinFormat
		return true
	}

	st := engine.SocketStreamType(in)
	switch st {
	case types.StreamTypeWAVE, types.StreamTypeLPCM:
	default:
		return t.fail(types.FacilityCodec, types.CodecUnsupportedFormat, "cannot decode %s file '%s'", st, path)
	}
	if st == types.StreamTypeLPCM && !pinFormat.IsComplete() {
		return t.fail(
			types.FacilityTranscoder, types.TranscoderIncompleteDescriptor,
			"a raw LPCM input requires channels, sample rate and bits per sample (got %s)", pinFormat,
		)
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return t.fail(types.FacilityIO, types.IOOpen, "input file '%s' does not exist", path)
		}
		return t.fail(types.FacilityIO, types.IOOpen, "unable to open input file '%s': %v", path, err)
	}

	if st == types.StreamTypeLPCM {
		t.inputFile, t.inputReader, t.format = f, f, pinFormat
		return true
	}

	format, data, err := readWAV(f)
	if err != nil {
		f.Close()
		return t.fail(types.FacilityCodec, types.CodecInvalidData, "invalid WAVE file '%s': %v", path, err)
	}
	if !format.IsComplete() {
		f.Close()
		return t.fail(types.FacilityCodec, types.CodecUnsupportedFormat, "unsupported WAVE format %s in '%s'", format, path)
	}
	if hasPin {
		if declared := pinFormat.Inherit(format); declared != format {
			f.Close()
			return t.fail(
				types.FacilityTranscoder, types.TranscoderUnsupportedConversion,
				"the input pin declares %s, but '%s' is %s", declared, path, format,
			)
		}
	}
	t.inputFile, t.inputReader, t.format = f, data, format
	return true
}

func (t *Transcoder) openOutput(out engine.Socket) bool {
	path := out.File()
	st := engine.SocketStreamType(out)
	if path == "" {
		if !engine.IsLPCM(st) {
			return t.fail(types.FacilityCodec, types.CodecUnsupportedFormat, "cannot output %s to the caller", st)
		}
		return true
	}

	switch st {
	case types.StreamTypeWAVE, types.StreamTypeLPCM:
	default:
		return t.fail(types.FacilityCodec, types.CodecUnsupportedFormat, "cannot write %s file '%s'", st, path)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return t.fail(types.FacilityTranscoder, types.TranscoderOutputExists, "output file '%s' already exists", path)
		}
		return t.fail(types.FacilityIO, types.IOOpen, "unable to create output file '%s': %v", path, err)
	}

	if st == types.StreamTypeLPCM {
		t.output = rawWriter{File: f}
		return true
	}
	w, err := newWAVWriter(f, t.format)
	if err != nil {
		f.Close()
		os.Remove(path)
		return t.fail(types.FacilityIO, types.IOWrite, "unable to initialize '%s': %v", path, err)
	}
	t.output = w
	return true
}

func (t *Transcoder) closeInput() {
	if t.inputFile != nil {
		if err := t.inputFile.Close(); err != nil {
			logger.Warnf(t.engine.ctx, "unable to close the input file: %v", err)
		}
	}
	t.inputFile, t.inputReader = nil, nil
	t.queue.Reset()
}

// read fills t.buf from the file input; it returns a whole amount of
// frames unless the file is truncated.
func (t *Transcoder) read() ([]byte, error) {
	n, err := io.ReadFull(t.inputReader, t.buf)
	switch {
	case err == nil, errors.Is(err, io.ErrUnexpectedEOF):
		data := t.buf[:n]
		t.inputPos += int64(n)
		return data, nil
	default:
		return nil, err
	}
}

func (t *Transcoder) Run() bool {
	t.err = nil
	if !t.isOpen {
		return t.fail(types.FacilityTranscoder, types.TranscoderNotOpen, "the transcoder is not open")
	}
	if t.inputReader == nil || t.output == nil {
		return t.fail(
			types.FacilityTranscoder, types.TranscoderUnsupportedTopology,
			"run requires a file input and a file output; use push and pull instead",
		)
	}
	for {
		data, err := t.read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return t.fail(types.FacilityIO, types.IORead, "unable to read the input: %v", err)
		}
		if _, err := t.output.Write(data); err != nil {
			return t.fail(types.FacilityIO, types.IOWrite, "unable to write the output: %v", err)
		}
	}
	t.queue.CloseInput()
	return t.finish()
}

func (t *Transcoder) finish() bool {
	if t.finished || t.output == nil {
		return true
	}
	t.finished = true
	if err := t.output.Finish(); err != nil {
		return t.fail(types.FacilityIO, types.IOWrite, "unable to finalize the output: %v", err)
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
	case t.output != nil:
		return t.fail(types.FacilityTranscoder, types.TranscoderUnsupportedTopology, "output #0 is written into a file")
	case sample == nil:
		return t.fail(types.FacilityCodec, types.CodecInvalidData, "nil sample")
	}

	if t.inputReader != nil {
		startTime := t.format.Duration(int(t.inputPos))
		data, err := t.read()
		if errors.Is(err, io.EOF) {
			return t.fail(types.FacilityCodec, types.CodecEndOfStream, "end of stream")
		}
		if err != nil {
			return t.fail(types.FacilityIO, types.IORead, "unable to read the input: %v", err)
		}
		sample.SetBuffer(data)
		sample.SetStartTime(startTime)
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
	case t.inputReader != nil:
		return t.fail(types.FacilityTranscoder, types.TranscoderUnsupportedTopology, "input #0 is read from a file")
	case t.queue.IsInputClosed():
		return t.fail(types.FacilityTranscoder, types.TranscoderEndOfStreamSignalled, "the end of stream was already signalled")
	}

	if sample == nil {
		t.queue.CloseInput()
		return t.finish()
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

	if t.output != nil {
		if _, err := t.output.Write(data); err != nil {
			return t.fail(types.FacilityIO, types.IOWrite, "unable to write the output: %v", err)
		}
		return true
	}
	t.queue.Push(data, sample.StartTime())
	return true
}

// Close finalizes the output (if the end of stream was never signalled)
// and closes the files.
func (t *Transcoder) Close() {
	if !t.isOpen {
		return
	}
	t.isOpen = false
	var errs []error
	if t.output != nil {
		if !t.finished {
			t.finished = true
			if err := t.output.Finish(); err != nil {
				errs = append(errs, fmt.Errorf("unable to finalize the output: %w", err))
			}
		}
		if err := t.output.Close(); err != nil {
			errs = append(errs, fmt.Errorf("unable to close the output: %w", err))
		}
		t.output = nil
	}
	t.closeInput()
	if err := errors.Join(errs...); err != nil {
		t.fail(types.FacilityIO, types.IOWrite, "%v", err)
	}
}

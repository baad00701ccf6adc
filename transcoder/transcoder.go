// Package transcoder provides Transcoder: a state machine over one engine
// transcoding session.
//
// A Transcoder is not safe for concurrent use. The context passed to the
// methods carries the logger; the engine calls themselves are synchronous
// and are not interrupted by a context cancellation.
package transcoder

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/xaionaro-go/avrelay/engine"
	"github.com/xaionaro-go/avrelay/handle"
	"github.com/xaionaro-go/avrelay/library"
	"github.com/xaionaro-go/avrelay/logger"
	"github.com/xaionaro-go/avrelay/pipeline"
	"github.com/xaionaro-go/avrelay/types"
)

type Transcoder struct {
	lib      *library.Library
	engine   *handle.Handle[engine.Transcoder]
	inputs   []pipeline.Socket
	outputs  []pipeline.Socket
	inputEOS []bool

	state     State
	errorInfo *types.ErrorInfo
}

func New(
	ctx context.Context,
	lib *library.Library,
) (_ *Transcoder, _err error) {
	logger.Debugf(ctx, "New")
	defer func() { logger.Debugf(ctx, "/New: %v", _err) }()

	factory, err := lib.Factory()
	if err != nil {
		return nil, err
	}
	t := factory.CreateTranscoder()
	if t == nil {
		return nil, errors.New("the engine returned a nil transcoder")
	}
	return &Transcoder{
		lib:    lib,
		engine: handle.New(ctx, t),
		state:  StateCreated,
	}, nil
}

func (t *Transcoder) State() State {
	return t.state
}

// ErrorInfo returns the snapshot of the error that moved the transcoder
// into StateFailed (or of the last end-of-stream pull); nil if none.
func (t *Transcoder) ErrorInfo() *types.ErrorInfo {
	return t.errorInfo.Clone()
}

func (t *Transcoder) Inputs() []pipeline.Socket {
	return slices.Clone(t.inputs)
}

func (t *Transcoder) Outputs() []pipeline.Socket {
	return slices.Clone(t.outputs)
}

func (t *Transcoder) String() string {
	return fmt.Sprintf("Transcoder(%d->%d, %s)", len(t.inputs), len(t.outputs), t.state)
}

func (t *Transcoder) errInvalidState(op string, reason string) error {
	return types.ErrInvalidState{Op: op, State: t.state, Reason: reason}
}

// checkLibrary returns an error if the library the transcoder was created
// in is closed.
func (t *Transcoder) checkLibrary(op string) error {
	if t.lib.IsClosed() {
		return types.ErrInvalidState{Op: op, State: t.lib, Reason: "the library is closed"}
	}
	return nil
}

// fail moves the transcoder into StateFailed, keeping info as the reason.
func (t *Transcoder) fail(op string, info *types.ErrorInfo) error {
	t.state = StateFailed
	t.errorInfo = info
	return types.ErrEngine{Op: op, Info: info.Clone()}
}

func (t *Transcoder) AddInput(
	ctx context.Context,
	socket pipeline.Socket,
) error {
	logger.Debugf(ctx, "AddInput: %s", socket)
	if err := t.checkLibrary("add an input"); err != nil {
		return err
	}
	if t.state != StateCreated {
		return t.errInvalidState("add an input", "inputs may be added only before open")
	}
	t.inputs = append(t.inputs, socket)
	return nil
}

func (t *Transcoder) AddOutput(
	ctx context.Context,
	socket pipeline.Socket,
) error {
	logger.Debugf(ctx, "AddOutput: %s", socket)
	if err := t.checkLibrary("add an output"); err != nil {
		return err
	}
	if t.state != StateCreated {
		return t.errInvalidState("add an output", "outputs may be added only before open")
	}
	t.outputs = append(t.outputs, socket)
	return nil
}

// Open validates the topology and opens the engine session. Opening an
// already open transcoder does nothing.
func (t *Transcoder) Open(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Open")
	defer func() { logger.Debugf(ctx, "/Open: %v", _err) }()

	const op = "open the transcoder"
	if err := t.checkLibrary(op); err != nil {
		return err
	}
	switch t.state {
	case StateCreated:
	case StateOpened, StateRunning:
		return nil
	default:
		return t.errInvalidState(op, "")
	}

	if err := t.validate(); err != nil {
		var invalid pipeline.ErrInvalidSocket
		if errors.As(err, &invalid) {
			return t.fail(op, invalid.Info)
		}
		return err
	}

	factory, err := t.lib.Factory()
	if err != nil {
		return err
	}
	et := t.engine.Get()
	for idx, s := range t.inputs {
		h, err := pipeline.Materialize(ctx, factory, s)
		if err != nil {
			return t.fail(op, types.NewErrorInfo(
				types.FacilitySystem, types.SystemObjectCreation,
				"unable to create input socket #%d: %v", idx, err,
			))
		}
		et.AddInput(h.Get())
		h.Release()
	}
	for idx, s := range t.outputs {
		h, err := pipeline.Materialize(ctx, factory, s)
		if err != nil {
			return t.fail(op, types.NewErrorInfo(
				types.FacilitySystem, types.SystemObjectCreation,
				"unable to create output socket #%d: %v", idx, err,
			))
		}
		et.AddOutput(h.Get())
		h.Release()
	}

	if !et.Open() {
		return t.fail(op, et.Error().Clone())
	}
	t.state = StateOpened
	t.inputEOS = make([]bool, len(t.inputs))
	return nil
}

func (t *Transcoder) validate() error {
	switch {
	case len(t.inputs) == 0:
		return pipeline.ErrInvalidSocket{
			Direction: pipeline.DirectionInput,
			Info:      types.NewErrorInfo(types.FacilityTranscoder, types.TranscoderNoInputs, "the transcoder has no inputs"),
		}
	case len(t.outputs) == 0:
		return pipeline.ErrInvalidSocket{
			Direction: pipeline.DirectionOutput,
			Info:      types.NewErrorInfo(types.FacilityTranscoder, types.TranscoderNoOutputs, "the transcoder has no outputs"),
		}
	}
	for idx, s := range t.inputs {
		if err := s.Validate(pipeline.DirectionInput, idx); err != nil {
			return err
		}
	}
	for idx, s := range t.outputs {
		if err := s.Validate(pipeline.DirectionOutput, idx); err != nil {
			return err
		}
	}
	return nil
}

// Run processes the file inputs into the file outputs until the end of
// the input.
func (t *Transcoder) Run(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Run")
	defer func() { logger.Debugf(ctx, "/Run: %v", _err) }()

	const op = "run the transcoder"
	if err := t.checkLibrary(op); err != nil {
		return err
	}
	if !t.state.IsOpen() {
		return t.errInvalidState(op, "the transcoder is not open")
	}
	et := t.engine.Get()
	if !et.Run() {
		return t.fail(op, et.Error().Clone())
	}
	t.state = StateRunning
	return nil
}

// Pull fills sample with the next unit of the output outputIndex.
//
// At the end of the stream the returned error matches
// types.ErrEndOfStream; that is not a failure and the transcoder stays
// open. The same holds for CodecInputNeeded on push-fed transcoders.
func (t *Transcoder) Pull(
	ctx context.Context,
	outputIndex int,
	sample *Sample,
) (_err error) {
	logger.Tracef(ctx, "Pull(%d)", outputIndex)
	defer func() { logger.Tracef(ctx, "/Pull(%d): %v", outputIndex, _err) }()

	const op = "pull"
	if err := t.checkLibrary(op); err != nil {
		return err
	}
	if !t.state.IsOpen() {
		return t.errInvalidState(op, "the transcoder is not open")
	}
	if sample == nil {
		return types.ErrNilSample{Op: op}
	}
	if outputIndex < 0 || outputIndex >= len(t.outputs) {
		return types.ErrInvalidIndex{Op: op, Index: outputIndex, Count: len(t.outputs)}
	}
	s, err := sample.engineSample()
	if err != nil {
		return err
	}

	et := t.engine.Get()
	if !et.Pull(outputIndex, s) {
		info := et.Error().Clone()
		if isRecoverable(info) {
			t.errorInfo = info
			return types.ErrEngine{Op: op, Info: info.Clone()}
		}
		return t.fail(op, info)
	}
	t.state = StateRunning
	return nil
}

func isRecoverable(info *types.ErrorInfo) bool {
	if info == nil || info.Facility != types.FacilityCodec {
		return false
	}
	switch info.Code {
	case types.CodecEndOfStream, types.CodecInputNeeded:
		return true
	}
	return false
}

// Push feeds the content of sample into the input inputIndex. The data is
// copied, so the sample may be reused right after the call.
func (t *Transcoder) Push(
	ctx context.Context,
	inputIndex int,
	sample *Sample,
) error {
	if sample == nil {
		return types.ErrNilSample{Op: "push"}
	}
	return t.Submit(ctx, inputIndex, types.PushKindData, sample)
}

// PushEndOfStream tells the input inputIndex that no more data will come.
// It may be done only once per input.
func (t *Transcoder) PushEndOfStream(
	ctx context.Context,
	inputIndex int,
) error {
	return t.Submit(ctx, inputIndex, types.PushKindEndOfStream, nil)
}

// Submit is the generic form of Push and PushEndOfStream; sample is
// ignored for PushKindEndOfStream.
func (t *Transcoder) Submit(
	ctx context.Context,
	inputIndex int,
	kind types.PushKind,
	sample *Sample,
) (_err error) {
	logger.Tracef(ctx, "Submit(%d, %s)", inputIndex, kind)
	defer func() { logger.Tracef(ctx, "/Submit(%d, %s): %v", inputIndex, kind, _err) }()

	op := "push"
	if kind == types.PushKindEndOfStream {
		op = "push the end of stream"
	}
	if err := t.checkLibrary(op); err != nil {
		return err
	}
	if !t.state.IsOpen() {
		return t.errInvalidState(op, "the transcoder is not open")
	}
	if inputIndex < 0 || inputIndex >= len(t.inputs) {
		return types.ErrInvalidIndex{Op: op, Index: inputIndex, Count: len(t.inputs)}
	}
	if t.inputEOS[inputIndex] {
		return t.errInvalidState(op, fmt.Sprintf("the end of stream was already pushed into input #%d", inputIndex))
	}

	var s engine.Sample
	switch kind {
	case types.PushKindData:
		if sample == nil {
			return types.ErrNilSample{Op: op}
		}
		var err error
		s, err = sample.engineSample()
		if err != nil {
			return err
		}
	case types.PushKindEndOfStream:
	default:
		return fmt.Errorf("unknown push kind: %s", kind)
	}

	et := t.engine.Get()
	if !et.Push(inputIndex, s) {
		return t.fail(op, et.Error().Clone())
	}
	if kind == types.PushKindEndOfStream {
		t.inputEOS[inputIndex] = true
	}
	t.state = StateRunning
	return nil
}

// Close finalizes the outputs and frees the engine session. It is safe in
// any state and closing a closed transcoder does nothing.
func (t *Transcoder) Close(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Close")
	defer func() { logger.Debugf(ctx, "/Close: %v", _err) }()

	if t.state == StateClosed {
		return nil
	}
	if !t.engine.IsEmpty() {
		if t.state.IsOpen() || t.state == StateFailed {
			t.engine.Get().Close()
		}
		t.engine.Release()
	}
	t.state = StateClosed
	return nil
}

var _ types.Closer = (*Transcoder)(nil)
var _ types.Closer = (*Sample)(nil)

// Package enginetest provides a scriptable in-memory engine.Engine for
// tests.
//
// By default every transcoder is a FIFO: pushed data comes back on pull
// in the same chunks. The behaviour of each operation can be replaced
// through the *Fn hooks, and every call is counted.
package enginetest

import (
	"fmt"
	"sync/atomic"

	"github.com/xaionaro-go/avrelay/engine"
	"github.com/xaionaro-go/avrelay/types"
)

type Engine struct {
	Name string

	InitializeFn func() bool

	// CreateSocketFn replaces CreateSocket; it may return nil to emulate
	// an allocation failure.
	CreateSocketFn func() engine.Socket

	// OnTranscoder is called for every created transcoder, before it is
	// returned to the caller.
	OnTranscoder func(*Transcoder)

	Initializes int
	Shutdowns   int
	Transcoders []*Transcoder

	err         *types.ErrorInfo
	liveObjects atomic.Int64
}

var _ engine.Engine = (*Engine)(nil)

func New() *Engine {
	return &Engine{Name: "enginetest"}
}

func (e *Engine) String() string {
	return e.Name
}

func (e *Engine) Initialize() bool {
	e.Initializes++
	e.err = nil
	if e.InitializeFn != nil {
		return e.InitializeFn()
	}
	return true
}

func (e *Engine) Shutdown() {
	e.Shutdowns++
}

// SetError defines what Error returns; InitializeFn hooks use it to
// report their failure.
func (e *Engine) SetError(info *types.ErrorInfo) {
	e.err = info
}

func (e *Engine) Error() *types.ErrorInfo {
	return e.err
}

// LiveObjects returns the amount of created objects that were not freed yet.
func (e *Engine) LiveObjects() int64 {
	return e.liveObjects.Load()
}

// LastTranscoder returns the most recently created transcoder.
func (e *Engine) LastTranscoder() *Transcoder {
	if len(e.Transcoders) == 0 {
		return nil
	}
	return e.Transcoders[len(e.Transcoders)-1]
}

type freeCallbackAdder interface {
	AddFreeCallback(func())
}

func track[T freeCallbackAdder](e *Engine, obj T) T {
	e.liveObjects.Add(1)
	obj.AddFreeCallback(func() { e.liveObjects.Add(-1) })
	return obj
}

func (e *Engine) CreateStreamInfo() engine.StreamInfo {
	return track(e, engine.NewBasicStreamInfo())
}

func (e *Engine) CreateAudioStreamInfo() engine.AudioStreamInfo {
	return track(e, engine.NewBasicAudioStreamInfo())
}

func (e *Engine) CreatePin() engine.Pin {
	return track(e, engine.NewBasicPin())
}

func (e *Engine) CreateSocket() engine.Socket {
	if e.CreateSocketFn != nil {
		return e.CreateSocketFn()
	}
	return track(e, engine.NewBasicSocket())
}

func (e *Engine) CreateSample() engine.Sample {
	return track(e, engine.NewBufferSample())
}

func (e *Engine) CreateTranscoder() engine.Transcoder {
	t := newTranscoder(e)
	track(e, t)
	e.Transcoders = append(e.Transcoders, t)
	if e.OnTranscoder != nil {
		e.OnTranscoder(t)
	}
	return t
}

type Transcoder struct {
	engine.RefCount

	Engine  *Engine
	Inputs  []engine.Socket
	Outputs []engine.Socket

	OpenFn func() bool
	RunFn  func() bool
	PullFn func(outputIndex int, sample engine.Sample) bool
	PushFn func(inputIndex int, sample engine.Sample) bool

	Opens       int
	Runs        int
	Pulls       int
	Pushes      int
	EOSPushes   int
	Closes      int
	IsOpen      bool
	EndOfStream bool

	queue [][]byte
	err   *types.ErrorInfo
}

var _ engine.Transcoder = (*Transcoder)(nil)

func newTranscoder(e *Engine) *Transcoder {
	t := &Transcoder{Engine: e}
	t.InitRefCount(func() {
		for _, s := range t.Inputs {
			s.Release()
		}
		for _, s := range t.Outputs {
			s.Release()
		}
		t.Inputs, t.Outputs = nil, nil
	})
	return t
}

func (t *Transcoder) String() string {
	return fmt.Sprintf("enginetest.Transcoder(%d->%d)", len(t.Inputs), len(t.Outputs))
}

func (t *Transcoder) AddInput(s engine.Socket) {
	s.Retain()
	t.Inputs = append(t.Inputs, s)
}

func (t *Transcoder) AddOutput(s engine.Socket) {
	s.Retain()
	t.Outputs = append(t.Outputs, s)
}

// Fail makes the current call report the given error; hooks use it as
// `return t.Fail(...)`.
func (t *Transcoder) Fail(facility types.Facility, code types.ErrorCode, format string, args ...any) bool {
	t.err = types.NewErrorInfo(facility, code, format, args...)
	return false
}

func (t *Transcoder) Error() *types.ErrorInfo {
	return t.err
}

// Feed queues data to be returned by pulls.
func (t *Transcoder) Feed(chunks ...[]byte) {
	for _, chunk := range chunks {
		t.queue = append(t.queue, append([]byte(nil), chunk...))
	}
}

// Queued returns the data that was pushed (or fed) and not pulled yet.
func (t *Transcoder) Queued() [][]byte {
	return t.queue
}

func (t *Transcoder) Open() bool {
	t.Opens++
	t.err = nil
	if t.OpenFn != nil {
		if !t.OpenFn() {
			return false
		}
		t.IsOpen = true
		return true
	}
	switch {
	case len(t.Inputs) == 0:
		return t.Fail(types.FacilityTranscoder, types.TranscoderNoInputs, "no inputs")
	case len(t.Outputs) == 0:
		return t.Fail(types.FacilityTranscoder, types.TranscoderNoOutputs, "no outputs")
	}
	t.IsOpen = true
	return true
}

func (t *Transcoder) Run() bool {
	t.Runs++
	t.err = nil
	if t.RunFn != nil {
		return t.RunFn()
	}
	if !t.IsOpen {
		return t.Fail(types.FacilityTranscoder, types.TranscoderNotOpen, "the transcoder is not open")
	}
	return true
}

func (t *Transcoder) Pull(outputIndex int, sample engine.Sample) bool {
	t.Pulls++
	t.err = nil
	if t.PullFn != nil {
		return t.PullFn(outputIndex, sample)
	}
	if !t.IsOpen {
		return t.Fail(types.FacilityTranscoder, types.TranscoderNotOpen, "the transcoder is not open")
	}
	if outputIndex < 0 || outputIndex >= len(t.Outputs) {
		return t.Fail(types.FacilityTranscoder, types.TranscoderInvalidIndex, "output %d does not exist", outputIndex)
	}
	if len(t.queue) == 0 {
		if t.EndOfStream {
			return t.Fail(types.FacilityCodec, types.CodecEndOfStream, "end of stream")
		}
		return t.Fail(types.FacilityCodec, types.CodecInputNeeded, "more input is needed")
	}
	sample.SetBuffer(t.queue[0])
	t.queue = t.queue[1:]
	return true
}

func (t *Transcoder) Push(inputIndex int, sample engine.Sample) bool {
	t.Pushes++
	if sample == nil {
		t.EOSPushes++
	}
	t.err = nil
	if t.PushFn != nil {
		return t.PushFn(inputIndex, sample)
	}
	if !t.IsOpen {
		return t.Fail(types.FacilityTranscoder, types.TranscoderNotOpen, "the transcoder is not open")
	}
	if inputIndex < 0 || inputIndex >= len(t.Inputs) {
		return t.Fail(types.FacilityTranscoder, types.TranscoderInvalidIndex, "input %d does not exist", inputIndex)
	}
	if t.EndOfStream {
		return t.Fail(types.FacilityTranscoder, types.TranscoderEndOfStreamSignalled, "the end of stream was already signalled")
	}
	if sample == nil {
		t.EndOfStream = true
		return true
	}
	t.Feed(sample.Buffer())
	return true
}

func (t *Transcoder) Close() {
	t.Closes++
	t.IsOpen = false
}

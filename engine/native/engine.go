// Package native implements engine.Engine in pure Go.
//
// It does not decode or encode anything: it moves LPCM data between WAVE
// files, raw LPCM files and the caller (push/pull), which is enough to
// build and test LPCM relays without FFmpeg.
package native

import (
	"context"

	"github.com/xaionaro-go/avrelay/engine"
	"github.com/xaionaro-go/avrelay/types"
)

const DefaultChunkFrames = 1024

type Config struct {
	// ChunkFrames is the amount of frames returned by a pull from a file
	// input.
	ChunkFrames int
}

type Engine struct {
	ctx    context.Context
	config Config
	err    *types.ErrorInfo
}

var _ engine.Engine = (*Engine)(nil)

// New returns an engine; ctx is used only for logging.
func New(ctx context.Context, cfg Config) *Engine {
	return &Engine{
		ctx:    ctx,
		config: cfg,
	}
}

func (e *Engine) String() string {
	return "native"
}

func (e *Engine) Initialize() bool {
	e.err = nil
	if e.config.ChunkFrames < 0 {
		e.err = types.NewErrorInfo(types.FacilitySystem, types.SystemInvalidConfig, "invalid chunk size: %d frames", e.config.ChunkFrames)
		return false
	}
	if e.config.ChunkFrames == 0 {
		e.config.ChunkFrames = DefaultChunkFrames
	}
	return true
}

func (e *Engine) Shutdown() {}

func (e *Engine) Error() *types.ErrorInfo {
	return e.err
}

func (e *Engine) CreateStreamInfo() engine.StreamInfo {
	return engine.NewBasicStreamInfo()
}

func (e *Engine) CreateAudioStreamInfo() engine.AudioStreamInfo {
	return engine.NewBasicAudioStreamInfo()
}

func (e *Engine) CreatePin() engine.Pin {
	return engine.NewBasicPin()
}

func (e *Engine) CreateSocket() engine.Socket {
	return engine.NewBasicSocket()
}

func (e *Engine) CreateSample() engine.Sample {
	return engine.NewBufferSample()
}

func (e *Engine) CreateTranscoder() engine.Transcoder {
	return newTranscoder(e)
}

//go:build with_libav
// +build with_libav

package libav

import (
	"context"

	"github.com/xaionaro-go/avrelay/engine"
	"github.com/xaionaro-go/avrelay/types"
)

func Available() bool {
	return true
}

type Engine struct {
	ctx    context.Context
	config Config
	err    *types.ErrorInfo
}

var _ engine.Engine = (*Engine)(nil)

// New returns an FFmpeg engine; ctx is used for logging (including
// the FFmpeg logs, unless Config.DisableLogBridge is set).
func New(ctx context.Context, cfg Config) (engine.Engine, error) {
	return &Engine{
		ctx:    ctx,
		config: cfg,
	}, nil
}

func (e *Engine) String() string {
	return "libav"
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
	if !e.config.DisableLogBridge {
		bridgeLogs(e.ctx)
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

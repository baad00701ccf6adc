// Package libav implements engine.Engine on top of FFmpeg (through
// go-astiav). It is compiled only with the `with_libav` build tag;
// without the tag New returns ErrNotCompiled.
package libav

import "errors"

var ErrNotCompiled = errors.New("avrelay was built without libav support (build tag 'with_libav')")

const (
	DefaultChunkFrames         = 1024
	DefaultOutputBitsPerSample = 16
)

type Config struct {
	// ChunkFrames is the amount of frames returned by a pull from a
	// decoded input.
	ChunkFrames int

	// DisableLogBridge keeps FFmpeg logging to stderr instead of the
	// context logger.
	DisableLogBridge bool
}

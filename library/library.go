// Package library scopes the use of a process-wide Engine: it is
// initialized once, shared by every transcoder, and shut down once.
package library

import (
	"context"
	"errors"
	"fmt"

	"github.com/xaionaro-go/avrelay/engine"
	"github.com/xaionaro-go/avrelay/logger"
	"github.com/xaionaro-go/avrelay/types"
	"github.com/xaionaro-go/xsync"
)

var ErrAlreadyInitialized = errors.New("the library is already initialized, close it first")

var (
	globalLocker xsync.Mutex
	active       *Library
)

type Library struct {
	engine engine.Engine
	closed bool
}

// Init initializes eng and makes it the engine of the process until the
// returned Library is closed.
func Init(
	ctx context.Context,
	eng engine.Engine,
) (_ *Library, _err error) {
	logger.Debugf(ctx, "Init(%s)", eng)
	defer func() { logger.Debugf(ctx, "/Init(%s): %v", eng, _err) }()
	return xsync.DoA2R2(xsync.WithNoLogging(ctx, true), &globalLocker, initLocked, ctx, eng)
}

func initLocked(
	ctx context.Context,
	eng engine.Engine,
) (*Library, error) {
	if active != nil {
		return nil, ErrAlreadyInitialized
	}
	if !eng.Initialize() {
		return nil, types.ErrEngine{Op: "initialize the engine", Info: eng.Error().Clone()}
	}
	active = &Library{engine: eng}
	return active, nil
}

// Close shuts the engine down. Closing an already closed library is a no-op.
func (l *Library) Close(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Close")
	defer func() { logger.Debugf(ctx, "/Close: %v", _err) }()
	globalLocker.Do(xsync.WithNoLogging(ctx, true), func() {
		if l.closed {
			return
		}
		l.closed = true
		l.engine.Shutdown()
		if active == l {
			active = nil
		}
	})
	return nil
}

func (l *Library) IsClosed() bool {
	return xsync.DoR1(xsync.WithNoLogging(context.Background(), true), &globalLocker, func() bool {
		return l.closed
	})
}

// Factory returns the engine's object factory, or ErrInvalidState if the
// library was closed.
func (l *Library) Factory() (engine.Factory, error) {
	if l.IsClosed() {
		return nil, types.ErrInvalidState{Op: "use the engine", State: l, Reason: "the library is closed"}
	}
	return l.engine, nil
}

func (l *Library) String() string {
	if l.IsClosed() {
		return fmt.Sprintf("Library(%s, closed)", l.engine)
	}
	return fmt.Sprintf("Library(%s)", l.engine)
}

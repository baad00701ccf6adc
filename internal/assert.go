package internal

import (
	"context"

	"github.com/xaionaro-go/avrelay/logger"
)

// Assert panics (through the logger, so the message is flushed to the log)
// if mustBeTrue is false. It guards invariants that only a bug can break.
func Assert(
	ctx context.Context,
	mustBeTrue bool,
	extraArgs ...any,
) {
	if mustBeTrue {
		return
	}

	logger.Panicf(ctx, "assertion failed: %v", extraArgs)
}

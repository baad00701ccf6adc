package internal

import (
	"context"
	"runtime"

	"github.com/xaionaro-go/avrelay/logger"
)

// SetFinalizerRelease makes the GC release the object if the owner forgot
// to. It is a backstop for leaks, not a substitute for explicit release.
func SetFinalizerRelease[T interface{ Release() }](
	ctx context.Context,
	obj T,
) {
	runtime.SetFinalizer(obj, func(obj T) {
		logger.Warnf(ctx, "%T was not released explicitly, releasing it in the finalizer", obj)
		obj.Release()
	})
}

// UnsetFinalizer removes a finalizer installed by SetFinalizerRelease.
func UnsetFinalizer(obj any) {
	runtime.SetFinalizer(obj, nil)
}

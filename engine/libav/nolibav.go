//go:build !with_libav
// +build !with_libav

package libav

import (
	"context"

	"github.com/xaionaro-go/avrelay/engine"
)

func Available() bool {
	return false
}

func New(ctx context.Context, cfg Config) (engine.Engine, error) {
	return nil, ErrNotCompiled
}

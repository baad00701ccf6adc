package avrelay

import (
	"context"
	"errors"
	"fmt"

	"github.com/xaionaro-go/avrelay/logger"
	"github.com/xaionaro-go/avrelay/pipeline"
)

// Transcode converts the inputs into the outputs by running one
// transcoding session to completion. The session is closed on every path.
func Transcode(
	ctx context.Context,
	lib *Library,
	inputs []pipeline.Socket,
	outputs []pipeline.Socket,
) (_err error) {
	logger.Debugf(ctx, "Transcode")
	defer func() { logger.Debugf(ctx, "/Transcode: %v", _err) }()

	t, err := openTranscoder(ctx, lib, inputs, outputs)
	if err != nil {
		return err
	}
	defer func() {
		if err := t.Close(ctx); err != nil {
			_err = errors.Join(_err, fmt.Errorf("unable to close the transcoder: %w", err))
		}
	}()

	if err := t.Run(ctx); err != nil {
		return fmt.Errorf("unable to run the transcoder: %w", err)
	}
	return nil
}

// openTranscoder creates and opens a transcoder; on failure the
// transcoder is already closed.
func openTranscoder(
	ctx context.Context,
	lib *Library,
	inputs []pipeline.Socket,
	outputs []pipeline.Socket,
) (_ *Transcoder, _err error) {
	t, err := NewTranscoder(ctx, lib)
	if err != nil {
		return nil, fmt.Errorf("unable to create a transcoder: %w", err)
	}
	defer func() {
		if _err != nil {
			if err := t.Close(ctx); err != nil {
				_err = errors.Join(_err, fmt.Errorf("unable to close the transcoder: %w", err))
			}
		}
	}()

	for _, s := range inputs {
		if err := t.AddInput(ctx, s); err != nil {
			return nil, fmt.Errorf("unable to add input %s: %w", s, err)
		}
	}
	for _, s := range outputs {
		if err := t.AddOutput(ctx, s); err != nil {
			return nil, fmt.Errorf("unable to add output %s: %w", s, err)
		}
	}
	if err := t.Open(ctx); err != nil {
		return nil, fmt.Errorf("unable to open the transcoder: %w", err)
	}
	return t, nil
}

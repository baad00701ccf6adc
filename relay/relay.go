// Package relay moves media from a pull-driven stage into a push-driven
// stage, e.g. from a decoding transcoder into an encoding transcoder.
package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/xaionaro-go/avrelay/logger"
	"github.com/xaionaro-go/avrelay/transcoder"
	"github.com/xaionaro-go/avrelay/types"
)

type Source interface {
	Pull(ctx context.Context, outputIndex int, sample *transcoder.Sample) error
	NewSample(ctx context.Context) (*transcoder.Sample, error)
}

type Sink interface {
	Push(ctx context.Context, inputIndex int, sample *transcoder.Sample) error
	PushEndOfStream(ctx context.Context, inputIndex int) error
}

var (
	_ Source = (*transcoder.Transcoder)(nil)
	_ Sink   = (*transcoder.Transcoder)(nil)
)

type Config struct {
	SourceOutputIndex int
	SinkInputIndex    int

	// Statistics receives the counters of the relay if set; otherwise
	// New allocates them.
	Statistics *Statistics
}

type Relay struct {
	Source     Source
	Sink       Sink
	Config     Config
	Statistics *Statistics
}

func New(
	src Source,
	sink Sink,
	cfg Config,
) *Relay {
	stats := cfg.Statistics
	if stats == nil {
		stats = NewStatistics()
	}
	return &Relay{
		Source:     src,
		Sink:       sink,
		Config:     cfg,
		Statistics: stats,
	}
}

// Run pulls every unit from the source and pushes it into the sink. When
// the source reports the end of stream, Run signals the end of stream to
// the sink exactly once and returns.
//
// Both stages must be open; closing them is the caller's job. On error
// the end of stream is not signalled.
func (r *Relay) Run(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Run")
	defer func() { logger.Debugf(ctx, "/Run: %v", _err) }()

	sample, err := r.Source.NewSample(ctx)
	if err != nil {
		return fmt.Errorf("unable to create a sample: %w", err)
	}
	defer sample.Close(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		r.Statistics.Pulls.Add(1)
		err := r.Source.Pull(ctx, r.Config.SourceOutputIndex, sample)
		if errors.Is(err, types.ErrEndOfStream) {
			logger.Debugf(ctx, "the source reached the end of stream")
			if err := r.Sink.PushEndOfStream(ctx, r.Config.SinkInputIndex); err != nil {
				return ErrPushEndOfStream{Err: err}
			}
			r.Statistics.EndOfStreamPushes.Add(1)
			return nil
		}
		if err != nil {
			return ErrPull{Err: err}
		}

		logger.Tracef(ctx, "relaying %d bytes (start time: %v)", sample.Len(), sample.StartTime())
		r.Statistics.Pushes.Add(1)
		if err := r.Sink.Push(ctx, r.Config.SinkInputIndex, sample); err != nil {
			return ErrPush{Err: err}
		}
		r.Statistics.SamplesRelayed.Add(1)
		r.Statistics.BytesRelayed.Add(uint64(sample.Len()))
	}
}

// Run is a shorthand for New(src, sink, cfg).Run(ctx).
func Run(
	ctx context.Context,
	src Source,
	sink Sink,
	cfg Config,
) (*Statistics, error) {
	r := New(src, sink, cfg)
	err := r.Run(ctx)
	return r.Statistics, err
}

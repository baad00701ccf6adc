package relay

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/avrelay/engine"
	"github.com/xaionaro-go/avrelay/engine/enginetest"
	"github.com/xaionaro-go/avrelay/library"
	"github.com/xaionaro-go/avrelay/pipeline"
	"github.com/xaionaro-go/avrelay/transcoder"
	"github.com/xaionaro-go/avrelay/types"
)

type stages struct {
	eng       *enginetest.Engine
	decoder   *transcoder.Transcoder
	encoder   *transcoder.Transcoder
	decoderET *enginetest.Transcoder
	encoderET *enginetest.Transcoder
}

func lpcmSocket() pipeline.Socket {
	return pipeline.NewSocket().
		StreamType(types.StreamTypeLPCM).
		AddPin(pipeline.NewPin().
			AudioStreamType(types.StreamTypeLPCM).
			Channels(1).
			SampleRate(8000).
			BitsPerSample(8))
}

// newStages opens a decoding stage that yields chunks and then the end of
// stream, and an encoding stage collecting what is pushed into it.
func newStages(
	t *testing.T,
	chunks [][]byte,
	setup func(decoder, encoder *enginetest.Transcoder),
) *stages {
	ctx := context.Background()
	s := &stages{eng: enginetest.New()}
	s.eng.OnTranscoder = func(et *enginetest.Transcoder) {
		switch len(s.eng.Transcoders) {
		case 1:
			s.decoderET = et
			et.Feed(chunks...)
			et.EndOfStream = true
		case 2:
			s.encoderET = et
			if setup != nil {
				setup(s.decoderET, s.encoderET)
			}
		}
	}

	lib, err := library.Init(ctx, s.eng)
	require.NoError(t, err)

	newStage := func() *transcoder.Transcoder {
		tr, err := transcoder.New(ctx, lib)
		require.NoError(t, err)
		require.NoError(t, tr.AddInput(ctx, lpcmSocket()))
		require.NoError(t, tr.AddOutput(ctx, lpcmSocket()))
		require.NoError(t, tr.Open(ctx))
		return tr
	}
	s.decoder = newStage()
	s.encoder = newStage()

	t.Cleanup(func() {
		require.NoError(t, s.decoder.Close(ctx))
		require.NoError(t, s.encoder.Close(ctx))
		require.Zero(t, s.eng.LiveObjects())
		require.NoError(t, lib.Close(ctx))
	})
	return s
}

func TestRelay(t *testing.T) {
	ctx := context.Background()
	chunks := [][]byte{{1, 2}, {3}, {4, 5, 6}}
	s := newStages(t, chunks, nil)

	stats, err := Run(ctx, s.decoder, s.encoder, Config{})
	require.NoError(t, err)

	require.Equal(t, chunks, s.encoderET.Queued())
	require.Equal(t, 1, s.encoderET.EOSPushes)
	require.True(t, s.encoderET.EndOfStream)
	require.Equal(t, StatisticsSnapshot{
		Pulls:             4,
		Pushes:            3,
		SamplesRelayed:    3,
		BytesRelayed:      6,
		EndOfStreamPushes: 1,
	}, stats.Convert())
	require.Equal(t, transcoder.StateRunning, s.decoder.State())
	require.Equal(t, transcoder.StateRunning, s.encoder.State())
}

func TestRelayEmptyStream(t *testing.T) {
	ctx := context.Background()
	s := newStages(t, nil, nil)

	stats, err := Run(ctx, s.decoder, s.encoder, Config{})
	require.NoError(t, err)
	require.Empty(t, s.encoderET.Queued())
	require.Equal(t, 1, s.encoderET.EOSPushes)
	require.Equal(t, uint64(0), stats.SamplesRelayed.Load())
}

func TestRelayPullFailure(t *testing.T) {
	ctx := context.Background()
	s := newStages(t, nil, func(decoder, _ *enginetest.Transcoder) {
		pulls := 0
		decoder.PullFn = func(_ int, sample engine.Sample) bool {
			pulls++
			if pulls > 2 {
				return decoder.Fail(types.FacilityCodec, types.CodecInvalidData, "broken ADTS header")
			}
			sample.SetBuffer([]byte{byte(pulls)})
			return true
		}
	})

	_, err := Run(ctx, s.decoder, s.encoder, Config{})
	var pullErr ErrPull
	require.True(t, errors.As(err, &pullErr), err)
	require.Equal(t, types.CodecInvalidData, types.ErrorInfoOf(err).Code)
	require.Equal(t, transcoder.StateFailed, s.decoder.State())

	require.Equal(t, [][]byte{{1}, {2}}, s.encoderET.Queued())
	require.Zero(t, s.encoderET.EOSPushes)
}

func TestRelayPushFailure(t *testing.T) {
	ctx := context.Background()
	s := newStages(t, [][]byte{{1}, {2}}, func(_, encoder *enginetest.Transcoder) {
		encoder.PushFn = func(int, engine.Sample) bool {
			return encoder.Fail(types.FacilityIO, types.IOWrite, "disk full")
		}
	})

	stats, err := Run(ctx, s.decoder, s.encoder, Config{})
	var pushErr ErrPush
	require.True(t, errors.As(err, &pushErr), err)
	require.Contains(t, err.Error(), "disk full")
	require.Equal(t, types.IOWrite, s.encoder.ErrorInfo().Code)
	require.Equal(t, transcoder.StateFailed, s.encoder.State())
	require.Equal(t, uint64(1), stats.Pushes.Load())
	require.Zero(t, stats.SamplesRelayed.Load())
	require.Zero(t, stats.EndOfStreamPushes.Load())
}

func TestRelayEndOfStreamPushFailure(t *testing.T) {
	ctx := context.Background()
	s := newStages(t, [][]byte{{1}}, func(_, encoder *enginetest.Transcoder) {
		encoder.PushFn = func(_ int, sample engine.Sample) bool {
			if sample == nil {
				return encoder.Fail(types.FacilityIO, types.IOWrite, "unable to write the trailer")
			}
			return true
		}
	})

	stats := NewStatistics()
	_, err := Run(ctx, s.decoder, s.encoder, Config{Statistics: stats})
	var eosErr ErrPushEndOfStream
	require.True(t, errors.As(err, &eosErr), err)
	require.Equal(t, 1, s.encoderET.EOSPushes)
	require.Equal(t, uint64(1), stats.SamplesRelayed.Load())
	require.Zero(t, stats.EndOfStreamPushes.Load())
}

func TestRelayInvalidIndex(t *testing.T) {
	ctx := context.Background()
	s := newStages(t, [][]byte{{1}}, nil)

	_, err := Run(ctx, s.decoder, s.encoder, Config{SinkInputIndex: 1})
	var invalidIndex types.ErrInvalidIndex
	require.True(t, errors.As(err, &invalidIndex), err)
	require.Zero(t, s.encoderET.Pushes)
}

func TestRelayCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := newStages(t, [][]byte{{1}}, nil)

	_, err := Run(ctx, s.decoder, s.encoder, Config{})
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, s.encoderET.EOSPushes)
}

func TestRelaySharedStatistics(t *testing.T) {
	ctx := context.Background()
	s := newStages(t, [][]byte{{1, 2, 3}}, nil)

	stats := NewStatistics()
	stats.BytesRelayed.Add(10)
	got, err := Run(ctx, s.decoder, s.encoder, Config{Statistics: stats})
	require.NoError(t, err)
	require.Same(t, stats, got)
	require.Equal(t, uint64(13), stats.BytesRelayed.Load())
}

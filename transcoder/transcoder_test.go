package transcoder

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/avrelay/engine"
	"github.com/xaionaro-go/avrelay/engine/enginetest"
	"github.com/xaionaro-go/avrelay/library"
	"github.com/xaionaro-go/avrelay/pipeline"
	"github.com/xaionaro-go/avrelay/types"
)

func newTestLibrary(t *testing.T) (*library.Library, *enginetest.Engine) {
	ctx := context.Background()
	eng := enginetest.New()
	lib, err := library.Init(ctx, eng)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, lib.Close(ctx))
	})
	return lib, eng
}

func lpcmSocket() pipeline.Socket {
	return pipeline.NewSocket().
		StreamType(types.StreamTypeLPCM).
		AddPin(pipeline.NewPin().
			AudioStreamType(types.StreamTypeLPCM).
			Channels(2).
			SampleRate(44100).
			BitsPerSample(16))
}

func newOpenTranscoder(t *testing.T, lib *library.Library) *Transcoder {
	ctx := context.Background()
	tc, err := New(ctx, lib)
	require.NoError(t, err)
	require.NoError(t, tc.AddInput(ctx, lpcmSocket()))
	require.NoError(t, tc.AddOutput(ctx, lpcmSocket()))
	require.NoError(t, tc.Open(ctx))
	return tc
}

func requireInvalidState(t *testing.T, err error) {
	t.Helper()
	var invalid types.ErrInvalidState
	require.True(t, errors.As(err, &invalid), "expected ErrInvalidState, got: %v", err)
}

func TestOpenValidation(t *testing.T) {
	type testCase struct {
		name    string
		inputs  []pipeline.Socket
		outputs []pipeline.Socket
		code    types.ErrorCode
	}
	for _, tc := range []testCase{
		{name: "no_inputs", outputs: []pipeline.Socket{lpcmSocket()}, code: types.TranscoderNoInputs},
		{name: "no_outputs", inputs: []pipeline.Socket{lpcmSocket()}, code: types.TranscoderNoOutputs},
		{
			name:    "output_without_pins",
			inputs:  []pipeline.Socket{pipeline.NewSocket().File("in.aac")},
			outputs: []pipeline.Socket{pipeline.NewSocket().File("out.wav")},
			code:    types.TranscoderNoOutputPins,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			lib, eng := newTestLibrary(t)

			tr, err := New(ctx, lib)
			require.NoError(t, err)
			for _, s := range tc.inputs {
				require.NoError(t, tr.AddInput(ctx, s))
			}
			for _, s := range tc.outputs {
				require.NoError(t, tr.AddOutput(ctx, s))
			}

			err = tr.Open(ctx)
			require.Error(t, err)
			require.Equal(t, StateFailed, tr.State())
			require.NotNil(t, tr.ErrorInfo())
			require.Equal(t, types.FacilityTranscoder, tr.ErrorInfo().Facility)
			require.Equal(t, tc.code, tr.ErrorInfo().Code)
			require.Zero(t, eng.LastTranscoder().Opens)

			requireInvalidState(t, tr.Open(ctx))
			require.NoError(t, tr.Close(ctx))
			require.Zero(t, eng.LiveObjects())
		})
	}
}

func TestOpenEngineFailure(t *testing.T) {
	ctx := context.Background()
	lib, eng := newTestLibrary(t)
	eng.OnTranscoder = func(et *enginetest.Transcoder) {
		et.OpenFn = func() bool {
			return et.Fail(types.FacilityTranscoder, types.TranscoderOutputExists, "output file 'out.wav' already exists")
		}
	}

	tr, err := New(ctx, lib)
	require.NoError(t, err)
	require.NoError(t, tr.AddInput(ctx, pipeline.NewSocket().File("in.aac")))
	require.NoError(t, tr.AddOutput(ctx, lpcmSocket().File("out.wav")))

	err = tr.Open(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "output file 'out.wav' already exists")
	require.Equal(t, StateFailed, tr.State())
	require.Equal(t, types.TranscoderOutputExists, tr.ErrorInfo().Code)
	require.Equal(t, types.TranscoderOutputExists, types.ErrorInfoOf(err).Code)

	// the snapshot must not follow the engine state
	eng.LastTranscoder().Fail(types.FacilityIO, types.IORead, "something else")
	require.Equal(t, types.TranscoderOutputExists, tr.ErrorInfo().Code)

	requireInvalidState(t, tr.Pull(ctx, 0, nil))
	require.NoError(t, tr.Close(ctx))
}

func TestOpenIsIdempotent(t *testing.T) {
	ctx := context.Background()
	lib, eng := newTestLibrary(t)

	tr := newOpenTranscoder(t, lib)
	require.NoError(t, tr.Open(ctx))
	require.Equal(t, StateOpened, tr.State())
	require.Equal(t, 1, eng.LastTranscoder().Opens)

	requireInvalidState(t, tr.AddInput(ctx, lpcmSocket()))
	requireInvalidState(t, tr.AddOutput(ctx, lpcmSocket()))
	require.Len(t, tr.Inputs(), 1)
	require.Len(t, tr.Outputs(), 1)
	require.NoError(t, tr.Close(ctx))
}

func TestPullPushBeforeOpen(t *testing.T) {
	ctx := context.Background()
	lib, eng := newTestLibrary(t)

	tr, err := New(ctx, lib)
	require.NoError(t, err)
	sample, err := NewSample(ctx, lib)
	require.NoError(t, err)

	requireInvalidState(t, tr.Pull(ctx, 0, sample))
	requireInvalidState(t, tr.Push(ctx, 0, sample))
	requireInvalidState(t, tr.PushEndOfStream(ctx, 0))
	requireInvalidState(t, tr.Run(ctx))
	require.Equal(t, StateCreated, tr.State())
	require.Zero(t, eng.LastTranscoder().Pulls)
	require.Zero(t, eng.LastTranscoder().Pushes)

	require.NoError(t, tr.Close(ctx))
	requireInvalidState(t, tr.Pull(ctx, 0, sample))
	requireInvalidState(t, tr.Push(ctx, 0, sample))
	require.Equal(t, StateClosed, tr.State())

	// the rejected calls leave nothing behind that would break a proper session
	fresh := newOpenTranscoder(t, lib)
	require.NoError(t, fresh.Run(ctx))
	require.Equal(t, StateRunning, fresh.State())
	require.NoError(t, sample.SetBytes([]byte{1, 2, 3, 4}))
	require.NoError(t, fresh.Push(ctx, 0, sample))
	require.NoError(t, fresh.PushEndOfStream(ctx, 0))
	require.NoError(t, fresh.Pull(ctx, 0, sample))
	require.Equal(t, []byte{1, 2, 3, 4}, sample.Bytes())
	require.ErrorIs(t, fresh.Pull(ctx, 0, sample), types.ErrEndOfStream)
	require.NoError(t, fresh.Close(ctx))
	require.Equal(t, StateClosed, fresh.State())

	require.NoError(t, sample.Close(ctx))
	require.Zero(t, eng.LiveObjects())
}

func TestOpenSocketCreationFailure(t *testing.T) {
	ctx := context.Background()
	lib, eng := newTestLibrary(t)

	tr, err := New(ctx, lib)
	require.NoError(t, err)
	require.NoError(t, tr.AddInput(ctx, lpcmSocket()))
	require.NoError(t, tr.AddOutput(ctx, lpcmSocket()))

	eng.CreateSocketFn = func() engine.Socket { return nil }
	err = tr.Open(ctx)
	eng.CreateSocketFn = nil

	var engineErr types.ErrEngine
	require.True(t, errors.As(err, &engineErr), "expected ErrEngine, got: %v", err)
	require.Equal(t, StateFailed, tr.State())
	info := tr.ErrorInfo()
	require.NotNil(t, info)
	require.Equal(t, types.FacilitySystem, info.Facility)
	require.Equal(t, types.SystemObjectCreation, info.Code)
	require.Equal(t, info, engineErr.Info)
	require.Zero(t, eng.LastTranscoder().Opens)

	requireInvalidState(t, tr.Open(ctx))
	require.NoError(t, tr.Close(ctx))
	require.Equal(t, StateClosed, tr.State())
	require.Zero(t, eng.LiveObjects())
}

func TestPipeThrough(t *testing.T) {
	ctx := context.Background()
	lib, eng := newTestLibrary(t)
	tr := newOpenTranscoder(t, lib)

	sample, err := NewSample(ctx, lib)
	require.NoError(t, err)

	chunks := [][]byte{{1, 2, 3, 4}, {5, 6, 7, 8}, {9, 10, 11, 12}}
	for _, chunk := range chunks {
		require.NoError(t, sample.SetBytes(chunk))
		require.NoError(t, tr.Push(ctx, 0, sample))
	}
	require.Equal(t, StateRunning, tr.State())
	require.NoError(t, tr.PushEndOfStream(ctx, 0))

	var got [][]byte
	for {
		err := tr.Pull(ctx, 0, sample)
		if errors.Is(err, types.ErrEndOfStream) {
			break
		}
		require.NoError(t, err)
		got = append(got, append([]byte(nil), sample.Bytes()...))
	}
	require.Equal(t, chunks, got)
	require.Equal(t, StateRunning, tr.State())
	require.True(t, tr.ErrorInfo().IsEndOfStream())

	require.NoError(t, sample.Close(ctx))
	require.NoError(t, tr.Close(ctx))
	require.Zero(t, eng.LiveObjects())
}

func TestEndOfStreamOnlyOnce(t *testing.T) {
	ctx := context.Background()
	lib, eng := newTestLibrary(t)
	tr := newOpenTranscoder(t, lib)
	sample, err := NewSample(ctx, lib)
	require.NoError(t, err)
	defer sample.Close(ctx)

	require.NoError(t, tr.PushEndOfStream(ctx, 0))
	requireInvalidState(t, tr.PushEndOfStream(ctx, 0))
	requireInvalidState(t, tr.Push(ctx, 0, sample))
	require.Equal(t, 1, eng.LastTranscoder().EOSPushes)
	require.Equal(t, 1, eng.LastTranscoder().Pushes)
	require.Equal(t, StateRunning, tr.State())
	require.NoError(t, tr.Close(ctx))
}

func TestInvalidIndex(t *testing.T) {
	ctx := context.Background()
	lib, _ := newTestLibrary(t)
	tr := newOpenTranscoder(t, lib)
	sample, err := NewSample(ctx, lib)
	require.NoError(t, err)
	defer sample.Close(ctx)

	var invalidIndex types.ErrInvalidIndex
	require.True(t, errors.As(tr.Pull(ctx, 1, sample), &invalidIndex))
	require.Equal(t, 1, invalidIndex.Index)
	require.True(t, errors.As(tr.Push(ctx, -1, sample), &invalidIndex))
	require.Equal(t, StateOpened, tr.State())

	require.Equal(t, types.ErrNilSample{Op: "push"}, tr.Push(ctx, 0, nil))
	require.NoError(t, tr.Close(ctx))
}

func TestPullFailure(t *testing.T) {
	ctx := context.Background()
	lib, eng := newTestLibrary(t)
	eng.OnTranscoder = func(et *enginetest.Transcoder) {
		et.PullFn = func(int, engine.Sample) bool {
			return et.Fail(types.FacilityCodec, types.CodecInvalidData, "corrupted frame")
		}
	}
	tr := newOpenTranscoder(t, lib)
	sample, err := NewSample(ctx, lib)
	require.NoError(t, err)
	defer sample.Close(ctx)

	err = tr.Pull(ctx, 0, sample)
	require.Error(t, err)
	require.NotErrorIs(t, err, types.ErrEndOfStream)
	require.Equal(t, StateFailed, tr.State())
	require.Equal(t, types.CodecInvalidData, tr.ErrorInfo().Code)
	requireInvalidState(t, tr.Pull(ctx, 0, sample))
	require.NoError(t, tr.Close(ctx))
}

func TestCloseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	lib, eng := newTestLibrary(t)
	tr := newOpenTranscoder(t, lib)
	et := eng.LastTranscoder()

	require.NoError(t, tr.Close(ctx))
	require.NoError(t, tr.Close(ctx))
	require.Equal(t, StateClosed, tr.State())
	require.Equal(t, 1, et.Closes)
	require.Zero(t, eng.LiveObjects())
}

func TestClosedLibrary(t *testing.T) {
	ctx := context.Background()
	eng := enginetest.New()
	lib, err := library.Init(ctx, eng)
	require.NoError(t, err)

	tr := newOpenTranscoder(t, lib)
	sample, err := NewSample(ctx, lib)
	require.NoError(t, err)
	require.NoError(t, lib.Close(ctx))

	requireInvalidState(t, tr.Pull(ctx, 0, sample))
	requireInvalidState(t, tr.PushEndOfStream(ctx, 0))
	_, err = New(ctx, lib)
	requireInvalidState(t, err)
	_, err = NewSample(ctx, lib)
	requireInvalidState(t, err)

	require.NoError(t, tr.Close(ctx))
	require.NoError(t, sample.Close(ctx))
	require.Zero(t, eng.LiveObjects())
}

func TestSampleClose(t *testing.T) {
	ctx := context.Background()
	lib, eng := newTestLibrary(t)
	sample, err := NewSample(ctx, lib)
	require.NoError(t, err)

	require.NoError(t, sample.SetBytes([]byte{1, 2}))
	require.Equal(t, 2, sample.Len())
	require.NoError(t, sample.Close(ctx))
	require.NoError(t, sample.Close(ctx))
	require.True(t, sample.IsClosed())
	require.Zero(t, sample.Len())
	require.ErrorIs(t, sample.SetBytes(nil), ErrSampleClosed)
	require.Zero(t, eng.LiveObjects())
}

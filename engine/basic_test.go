package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/avrelay/types"
)

func TestRefCount(t *testing.T) {
	var freed int
	si := NewBasicStreamInfo()
	si.AddFreeCallback(func() { freed++ })

	si.Retain()
	require.Equal(t, int32(2), si.References())
	si.Release()
	require.Zero(t, freed)
	si.Release()
	require.Equal(t, 1, freed)

	require.Panics(t, func() { si.Release() })
	require.Panics(t, func() { si.Retain() })
}

func TestSocketReleasesPins(t *testing.T) {
	info := NewBasicAudioStreamInfo()
	info.SetStreamType(types.StreamTypeLPCM)
	info.SetChannels(2)
	info.SetSampleRate(44100)
	info.SetBitsPerSample(16)

	pin := NewBasicPin()
	pin.SetStreamInfo(info)
	info.Release()
	require.Equal(t, int32(1), info.References())

	socket := NewBasicSocket()
	socket.SetFile("out.wav")
	socket.SetStreamType(types.StreamTypeWAVE)
	socket.AddPin(pin)
	pin.Release()
	require.Equal(t, int32(1), pin.References())

	f, st, ok := SocketAudioFormat(socket)
	require.True(t, ok)
	require.Equal(t, types.StreamTypeLPCM, st)
	require.Equal(t, AudioFormat{Channels: 2, SampleRate: 44100, BitsPerSample: 16}, f)
	require.Equal(t, 4, f.BlockAlign())
	require.Equal(t, 176400, f.BytesPerSecond())
	require.Equal(t, time.Second, f.Duration(176400))

	socket.Release()
	require.Zero(t, pin.References())
	require.Zero(t, info.References())
}

func TestAudioFormatInherit(t *testing.T) {
	f := AudioFormat{SampleRate: 8000}.Inherit(AudioFormat{Channels: 1, SampleRate: 44100, BitsPerSample: 16})
	require.Equal(t, AudioFormat{Channels: 1, SampleRate: 8000, BitsPerSample: 16}, f)
	require.True(t, f.IsComplete())
	require.False(t, AudioFormat{Channels: 1, SampleRate: 8000, BitsPerSample: 12}.IsComplete())
}

func TestBufferSample(t *testing.T) {
	s := NewBufferSample()
	defer s.Release()

	src := []byte{1, 2, 3}
	s.SetBuffer(src)
	src[0] = 9
	require.Equal(t, []byte{1, 2, 3}, s.Buffer())

	s.SetStartTime(time.Millisecond)
	s.Reset()
	require.Empty(t, s.Buffer())
	require.Zero(t, s.StartTime())
}

func TestChunkQueue(t *testing.T) {
	var q ChunkQueue
	_, ok := q.Pop()
	require.False(t, ok)

	data := []byte{1, 2, 3, 4}
	q.Push(data, time.Second)
	q.Push([]byte{5, 6}, 2*time.Second)
	data[0] = 42
	require.Equal(t, 2, q.Len())

	q.CloseInput()
	require.True(t, q.IsInputClosed())

	c, ok := q.Pop()
	require.True(t, ok)
	require.Equal(t, Chunk{Data: []byte{1, 2, 3, 4}, StartTime: time.Second}, c)
	c, ok = q.Pop()
	require.True(t, ok)
	require.Equal(t, []byte{5, 6}, c.Data)
	_, ok = q.Pop()
	require.False(t, ok)

	q.Push([]byte{7}, 0)
	q.Reset()
	require.Zero(t, q.Len())
	require.False(t, q.IsInputClosed())
}

func TestSocketStreamType(t *testing.T) {
	s := NewBasicSocket()
	defer s.Release()
	require.Equal(t, types.StreamTypeLPCM, SocketStreamType(s))

	s.SetFile("/tmp/a.wav")
	require.Equal(t, types.StreamTypeWAVE, SocketStreamType(s))

	s.SetStreamType(types.StreamTypeAAC)
	require.Equal(t, types.StreamTypeAAC, SocketStreamType(s))

	require.True(t, IsLPCM(types.StreamTypeLPCM))
	require.True(t, IsLPCM(types.UndefinedStreamType))
	require.False(t, IsLPCM(types.StreamTypeWAVE))
}

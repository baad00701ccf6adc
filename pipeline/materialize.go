package pipeline

import (
	"context"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/xaionaro-go/avrelay/engine"
	"github.com/xaionaro-go/avrelay/handle"
	"github.com/xaionaro-go/avrelay/logger"
)

// Materialize creates the engine objects described by s. The returned
// handle owns the socket, which owns its pins.
func Materialize(
	ctx context.Context,
	factory engine.Factory,
	s Socket,
) (_ *handle.Handle[engine.Socket], _err error) {
	logger.Tracef(ctx, "Materialize: %s", spew.Sdump(s))
	defer func() { logger.Tracef(ctx, "/Materialize: %v", _err) }()

	socket := factory.CreateSocket()
	if socket == nil {
		return nil, fmt.Errorf("the engine returned a nil socket")
	}
	h := handle.New(ctx, socket)

	if s.file != "" {
		socket.SetFile(s.file)
	}
	socket.SetStreamType(s.streamType)

	for idx, p := range s.pins {
		pin, err := materializePin(factory, p)
		if err != nil {
			h.Release()
			return nil, fmt.Errorf("unable to create pin #%d: %w", idx, err)
		}
		socket.AddPin(pin)
		pin.Release()
	}
	return h, nil
}

func materializePin(
	factory engine.Factory,
	p Pin,
) (engine.Pin, error) {
	pin := factory.CreatePin()
	if pin == nil {
		return nil, fmt.Errorf("the engine returned a nil pin")
	}

	var info engine.StreamInfo
	switch p.descriptor.kind {
	case KindNone:
		return pin, nil
	case KindAudio:
		audio := factory.CreateAudioStreamInfo()
		if audio == nil {
			pin.Release()
			return nil, fmt.Errorf("the engine returned a nil audio stream info")
		}
		audio.SetChannels(p.descriptor.audio.Channels)
		audio.SetSampleRate(p.descriptor.audio.SampleRate)
		audio.SetBitsPerSample(p.descriptor.audio.BitsPerSample)
		info = audio
	default:
		info = factory.CreateStreamInfo()
		if info == nil {
			pin.Release()
			return nil, fmt.Errorf("the engine returned a nil stream info")
		}
	}
	info.SetStreamType(p.descriptor.streamType)
	pin.SetStreamInfo(info)
	info.Release()
	return pin, nil
}

package transcoder

import (
	"context"
	"errors"
	"time"

	"github.com/xaionaro-go/avrelay/engine"
	"github.com/xaionaro-go/avrelay/handle"
	"github.com/xaionaro-go/avrelay/library"
)

var ErrSampleClosed = errors.New("the sample is closed")

// Sample is a reusable media buffer, filled by Pull and consumed by Push.
// Reuse one Sample for the whole stream instead of allocating per unit.
type Sample struct {
	handle *handle.Handle[engine.Sample]
}

func NewSample(
	ctx context.Context,
	lib *library.Library,
) (*Sample, error) {
	factory, err := lib.Factory()
	if err != nil {
		return nil, err
	}
	s := factory.CreateSample()
	if s == nil {
		return nil, errors.New("the engine returned a nil sample")
	}
	return &Sample{handle: handle.New(ctx, s)}, nil
}

// Bytes returns the payload. It is valid only until the next Pull into
// (or SetBytes of) this sample.
func (s *Sample) Bytes() []byte {
	if s.IsClosed() {
		return nil
	}
	return s.handle.Get().Buffer()
}

func (s *Sample) Len() int {
	return len(s.Bytes())
}

// SetBytes copies b into the sample.
func (s *Sample) SetBytes(b []byte) error {
	if s.IsClosed() {
		return ErrSampleClosed
	}
	s.handle.Get().SetBuffer(b)
	return nil
}

func (s *Sample) StartTime() time.Duration {
	if s.IsClosed() {
		return 0
	}
	return s.handle.Get().StartTime()
}

func (s *Sample) IsClosed() bool {
	return s == nil || s.handle.IsEmpty()
}

// Close releases the sample; it is a no-op on a closed sample.
func (s *Sample) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.handle.Release()
	return nil
}

func (s *Sample) engineSample() (engine.Sample, error) {
	if s.IsClosed() {
		return nil, ErrSampleClosed
	}
	return s.handle.Get(), nil
}

// NewSample creates a Sample in the library of the transcoder.
func (t *Transcoder) NewSample(ctx context.Context) (*Sample, error) {
	return NewSample(ctx, t.lib)
}

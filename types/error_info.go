// error_info.go defines the engine-level error snapshot (facility + code + message).

package types

import "fmt"

// Facility is the subsystem an engine error originated in.
type Facility int

const (
	FacilitySuccess = Facility(iota)
	FacilityCodec
	FacilityTranscoder
	FacilityIO
	FacilitySystem
)

func (f Facility) String() string {
	switch f {
	case FacilitySuccess:
		return "success"
	case FacilityCodec:
		return "codec"
	case FacilityTranscoder:
		return "transcoder"
	case FacilityIO:
		return "io"
	case FacilitySystem:
		return "system"
	default:
		return fmt.Sprintf("Facility(%d)", int(f))
	}
}

// ErrorCode is a numeric error code, meaningful only together with a Facility.
type ErrorCode int32

// FacilityCodec codes.
const (
	CodecEndOfStream = ErrorCode(iota + 1)
	CodecInputNeeded
	CodecInvalidData
	CodecUnsupportedFormat
)

// FacilityTranscoder codes.
const (
	TranscoderNoInputs = ErrorCode(iota + 1)
	TranscoderNoOutputs
	TranscoderNoOutputPins
	TranscoderIncompleteDescriptor
	TranscoderUnsupportedConversion
	TranscoderUnsupportedTopology
	TranscoderOutputExists
	TranscoderInvalidIndex
	TranscoderNotOpen
	TranscoderEndOfStreamSignalled
)

// FacilityIO codes.
const (
	IOOpen = ErrorCode(iota + 1)
	IORead
	IOWrite
)

// FacilitySystem codes.
const (
	SystemInvalidConfig = ErrorCode(iota + 1)
	SystemObjectCreation
)

// ErrorInfo is a read-only snapshot of the last error reported by an engine
// object. It is copied out of the engine right after the failed call,
// so it stays valid after further calls.
type ErrorInfo struct {
	Facility Facility
	Code     ErrorCode
	Message  string
}

func NewErrorInfo(
	facility Facility,
	code ErrorCode,
	format string,
	args ...any,
) *ErrorInfo {
	return &ErrorInfo{
		Facility: facility,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
	}
}

// IsEndOfStream returns true if the error is the expected end condition
// of a pull, rather than a failure.
func (e *ErrorInfo) IsEndOfStream() bool {
	if e == nil {
		return false
	}
	return e.Facility == FacilityCodec && e.Code == CodecEndOfStream
}

// Clone returns a detached copy (nil-safe).
func (e *ErrorInfo) Clone() *ErrorInfo {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}

func (e *ErrorInfo) String() string {
	if e == nil {
		return "<no error info>"
	}
	if e.Message == "" {
		return fmt.Sprintf("%s/%d", e.Facility, e.Code)
	}
	return fmt.Sprintf("%s (%s/%d)", e.Message, e.Facility, e.Code)
}

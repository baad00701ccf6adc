//go:build with_libav
// +build with_libav

package libav

import (
	"errors"
	"fmt"

	"github.com/asticode/go-astiav"
)

var errNoAudio = errors.New("the input has no audio stream")

type errOpenInput struct {
	Err error
}

func (e errOpenInput) Error() string {
	return fmt.Sprintf("unable to open the input: %v", e.Err)
}

func (e errOpenInput) Unwrap() error {
	return e.Err
}

type errUnsupportedCodec struct {
	CodecID astiav.CodecID
}

func (e errUnsupportedCodec) Error() string {
	return fmt.Sprintf("no decoder for codec %s", e.CodecID)
}

type errRead struct {
	Err error
}

func (e errRead) Error() string {
	return fmt.Sprintf("unable to read the input: %v", e.Err)
}

func (e errRead) Unwrap() error {
	return e.Err
}

type errDecode struct {
	Err error
}

func (e errDecode) Error() string {
	return e.Err.Error()
}

func (e errDecode) Unwrap() error {
	return e.Err
}

// Package avrelay drives a media transcoding engine: it opens transcoding
// sessions described by sockets and pins, runs file-to-file transcodes and
// relays decoded media from one session into another.
//
// The subpackages hold the details; this package re-exports the commonly
// used types and implements the two common scenarios: Transcode and
// DecodeRelay.
package avrelay

import (
	"github.com/xaionaro-go/avrelay/config"
	"github.com/xaionaro-go/avrelay/library"
	"github.com/xaionaro-go/avrelay/pipeline"
	"github.com/xaionaro-go/avrelay/relay"
	"github.com/xaionaro-go/avrelay/transcoder"
	"github.com/xaionaro-go/avrelay/types"
)

type (
	Library     = library.Library
	Socket      = pipeline.Socket
	Pin         = pipeline.Pin
	Transcoder  = transcoder.Transcoder
	Sample      = transcoder.Sample
	Statistics  = relay.Statistics
	RelayConfig = relay.Config
	StageConfig = config.StageConfig
	ErrorInfo   = types.ErrorInfo
)

var (
	Init          = library.Init
	NewSocket     = pipeline.NewSocket
	NewPin        = pipeline.NewPin
	NewTranscoder = transcoder.New
)

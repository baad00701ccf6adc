package relay

import (
	"sync/atomic"
)

// Statistics are the counters of a Relay. They may be read concurrently
// with a running relay (e.g. by a metrics collector).
type Statistics struct {
	Pulls             atomic.Uint64
	Pushes            atomic.Uint64
	SamplesRelayed    atomic.Uint64
	BytesRelayed      atomic.Uint64
	EndOfStreamPushes atomic.Uint64
}

func NewStatistics() *Statistics {
	return &Statistics{}
}

type StatisticsSnapshot struct {
	Pulls             uint64 `json:",omitempty"`
	Pushes            uint64 `json:",omitempty"`
	SamplesRelayed    uint64 `json:",omitempty"`
	BytesRelayed      uint64 `json:",omitempty"`
	EndOfStreamPushes uint64 `json:",omitempty"`
}

func (s *Statistics) Convert() StatisticsSnapshot {
	return StatisticsSnapshot{
		Pulls:             s.Pulls.Load(),
		Pushes:            s.Pushes.Load(),
		SamplesRelayed:    s.SamplesRelayed.Load(),
		BytesRelayed:      s.BytesRelayed.Load(),
		EndOfStreamPushes: s.EndOfStreamPushes.Load(),
	}
}

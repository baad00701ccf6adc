//go:build !debug_trace
// +build !debug_trace

package logger

import "context"

// Tracef is compiled out unless built with the debug_trace tag: the relay
// loop calls it per sample.
func Tracef(ctx context.Context, format string, args ...any) {}

// Package handle provides Handle, the single owner of a reference to an
// engine object.
package handle

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/avrelay/engine"
	"github.com/xaionaro-go/avrelay/internal"
)

// noCopy makes `go vet` (copylocks) complain about copied handles.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Handle owns exactly one reference to an engine object and releases it
// exactly once. A Handle must not be copied: pass *Handle or use Move.
type Handle[T engine.Object] struct {
	_     noCopy
	obj   T
	owned bool
}

// New takes over the reference held by the caller on obj.
func New[T engine.Object](ctx context.Context, obj T) *Handle[T] {
	h := &Handle[T]{
		obj:   obj,
		owned: true,
	}
	internal.SetFinalizerRelease(ctx, h)
	return h
}

// Get returns the raw object. It is meant only for passing the object to
// an engine call; the reference stays owned by the handle.
func (h *Handle[T]) Get() T {
	return h.obj
}

func (h *Handle[T]) IsEmpty() bool {
	return h == nil || !h.owned
}

// Move transfers the ownership into a new handle; h becomes empty.
func (h *Handle[T]) Move(ctx context.Context) *Handle[T] {
	if h.IsEmpty() {
		return &Handle[T]{}
	}
	obj := h.obj
	h.forget()
	return New(ctx, obj)
}

// Release drops the reference. Calling it again (or on an empty handle)
// does nothing.
func (h *Handle[T]) Release() {
	if h.IsEmpty() {
		return
	}
	obj := h.obj
	h.forget()
	obj.Release()
}

func (h *Handle[T]) forget() {
	var zero T
	h.obj = zero
	h.owned = false
	internal.UnsetFinalizer(h)
}

func (h *Handle[T]) String() string {
	if h.IsEmpty() {
		return "Handle(<empty>)"
	}
	return fmt.Sprintf("Handle(%v)", any(h.obj))
}

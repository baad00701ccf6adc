package engine

import (
	"fmt"
	"sync/atomic"
)

// RefCount is an embeddable reference counter implementing Object.
// The zero value is not usable: call InitRefCount first.
type RefCount struct {
	count         atomic.Int32
	freeCallbacks []func()
}

// InitRefCount sets the counter to one reference; freeFn (if not nil) is
// called when the last reference is released.
func (r *RefCount) InitRefCount(freeFn func()) {
	r.count.Store(1)
	if freeFn != nil {
		r.freeCallbacks = append(r.freeCallbacks, freeFn)
	}
}

// AddFreeCallback adds a callback to be called (in LIFO order) when the
// object is freed.
func (r *RefCount) AddFreeCallback(fn func()) {
	r.freeCallbacks = append(r.freeCallbacks, fn)
}

func (r *RefCount) Retain() {
	if r.count.Add(1) <= 1 {
		panic(fmt.Errorf("retaining an object that was already freed"))
	}
}

func (r *RefCount) Release() {
	n := r.count.Add(-1)
	switch {
	case n > 0:
		return
	case n < 0:
		panic(fmt.Errorf("releasing an object more times than it was retained (count: %d)", n))
	}
	for i := len(r.freeCallbacks) - 1; i >= 0; i-- {
		r.freeCallbacks[i]()
	}
	r.freeCallbacks = nil
}

// References returns the current amount of references.
func (r *RefCount) References() int32 {
	return r.count.Load()
}

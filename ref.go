package atomicref

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// Ref is like Option but always holds a value. The zero value holds the zero
// value of T, allocated on first use.
//
// A Ref must not be copied after first use.
type Ref[T any] struct {
	opt Option[T]
}

// NewRef returns a Ref initially holding src. It panics if src is absent.
func NewRef[T any](src Source[T]) *Ref[T] {
	return &Ref[T]{opt: Option[T]{slot: unsafe.Pointer(mustTake(src))}}
}

// mustTake is takeSource for callers that cannot accept an absent value.
func mustTake[T any](src Source[T]) *allocation[T] {
	a := takeSource(src)
	if a == nil {
		var zero T
		panic(fmt.Sprintf("atomicref: absent value given to Ref[%T]", zero))
	}
	return a
}

// init installs the default value if the Ref has never held one. It is safe
// to race with Load and Swap: an empty slot has nothing to release, so a cas
// from nil needs no gate.
func (r *Ref[T]) init() {
	if atomic.LoadPointer(&r.opt.slot) != nil {
		return
	}
	var zero T
	a := newAllocation(zero, nil)
	atomic.CompareAndSwapPointer(&r.opt.slot, nil, unsafe.Pointer(a))
}

// Load returns a new Handle to the current value. The caller must Release it.
func (r *Ref[T]) Load() *Handle[T] {
	for {
		if h := r.opt.Load(); h != nil {
			return h
		}
		r.init()
	}
}

// Store replaces the value with src, releasing the previous one. It panics
// if src is absent.
func (r *Ref[T]) Store(src Source[T]) {
	r.Swap(src).Release()
}

// Swap replaces the value with src and returns a Handle to the previous
// value. It panics if src is absent.
func (r *Ref[T]) Swap(src Source[T]) *Handle[T] {
	a := mustTake(src)
	r.init()
	old := r.opt.Swap(wrap(a))
	if old == nil {
		// only reachable if the Ref was Closed concurrently.
		panic("atomicref: Ref observed without a value")
	}
	return old
}

// Close releases the value held by the Ref. It must not be called
// concurrently with other methods. Using the Ref afterwards starts over from
// the zero value of T.
func (r *Ref[T]) Close() {
	r.opt.Close()
}

package atomicref

import (
	"sync/atomic"
	"unsafe"
)

// Option is an atomically replaceable optional reference to a value of type
// T. Any number of goroutines may Load, Store and Swap concurrently. Every
// Handle returned by Load or Swap carries its own reference to its value, so
// the value outlives any later changes to the Option until the Handle is
// Released. The zero value is empty and ready to use.
//
// An Option must not be copied after first use.
type Option[T any] struct {
	gate gate
	slot unsafe.Pointer // *allocation[T]
}

// NewOption returns an Option initially holding src.
func NewOption[T any](src Source[T]) *Option[T] {
	return &Option[T]{slot: unsafe.Pointer(takeSource(src))}
}

// takeSource moves the reference out of src. A nil src is absent.
func takeSource[T any](src Source[T]) *allocation[T] {
	if src == nil {
		return nil
	}
	return src.take()
}

// Present reports if the Option held a value at some instant during the call.
// It takes no part in the synchronization of Load and Swap, so the answer may
// be stale by the time it is returned. Use Load to get at the value.
func (o *Option[T]) Present() bool {
	return atomic.LoadPointer(&o.slot) != nil
}

// Load returns a new Handle to the current value, or nil if there is none.
// The caller must Release the Handle.
func (o *Option[T]) Load() *Handle[T] {
	// the read token keeps any writer from displacing and releasing the
	// allocation between reading the slot and adding our reference.
	tok := o.gate.acquireRead()
	a := (*allocation[T])(atomic.LoadPointer(&o.slot))
	if a != nil {
		a.incRef()
	}
	tok.release()

	return wrap(a)
}

// Store replaces the value with src, releasing the previous one.
func (o *Option[T]) Store(src Source[T]) {
	o.Swap(src).Release()
}

// Swap replaces the value with src and returns a Handle to the previous
// value, or nil if there was none. The reference held by the Option passes to
// the returned Handle, which the caller must Release.
func (o *Option[T]) Swap(src Source[T]) *Handle[T] {
	a := takeSource(src)

	tok := o.gate.acquireWrite()
	old := (*allocation[T])(atomic.SwapPointer(&o.slot, unsafe.Pointer(a)))
	tok.release()

	return wrap(old)
}

// Take empties the Option and returns a Handle to the value it held, if any.
func (o *Option[T]) Take() *Handle[T] {
	return o.Swap(None[T]())
}

// Close releases the value held by the Option, if any. It must not be called
// concurrently with other methods. The Option is empty afterwards and may be
// used again.
func (o *Option[T]) Close() {
	tok := o.gate.acquireWrite()
	old := (*allocation[T])(atomic.SwapPointer(&o.slot, nil))
	tok.release()

	if old != nil {
		old.decRef()
	}
}

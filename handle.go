package atomicref

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// allocation is the shared block behind every Handle to a value. It lives as
// long as its count is positive and is destroyed exactly when the count
// drops to zero.
type allocation[T any] struct {
	refs    int64
	val     T
	destroy func(T)
}

// newAllocation returns an allocation holding v with a single reference.
func newAllocation[T any](v T, destroy func(T)) *allocation[T] {
	return &allocation[T]{refs: 1, val: v, destroy: destroy}
}

// incRef adds a reference. The caller must already own one, directly or by
// holding a read token on a slot that designates the allocation.
func (a *allocation[T]) incRef() {
	if v := atomic.AddInt64(&a.refs, 1); v <= 1 {
		panic(fmt.Sprintf("atomicref: incrementing non-positive count %d on %p", v-1, a))
	}
}

// decRef drops a reference, running the destructor if it was the last one.
func (a *allocation[T]) decRef() {
	switch v := atomic.AddInt64(&a.refs, -1); {
	case v < 0:
		panic(fmt.Sprintf("atomicref: decrementing non-positive count %d on %p", v+1, a))

	case v == 0:
		val := a.val
		var zero T
		a.val = zero
		if a.destroy != nil {
			a.destroy(val)
		}
	}
}

// Handle is one unit of ownership of a reference counted value. The value
// stays alive at least until every Handle to it has been Released. A nil
// *Handle represents the absence of a value.
//
// A Handle is owned by a single goroutine at a time. To share the value,
// Clone the Handle and hand out the clone.
type Handle[T any] struct {
	a unsafe.Pointer // *allocation[T]
}

// NewHandle returns a Handle owning a fresh reference to v.
func NewHandle[T any](v T) *Handle[T] {
	return NewHandleFunc(v, nil)
}

// NewHandleFunc is like NewHandle but calls destroy with the value once the
// last Handle to it is Released. destroy may be nil.
func NewHandleFunc[T any](v T, destroy func(T)) *Handle[T] {
	return wrap(newAllocation(v, destroy))
}

// wrap makes a Handle out of a reference the caller already owns.
func wrap[T any](a *allocation[T]) *Handle[T] {
	if a == nil {
		return nil
	}
	return &Handle[T]{a: unsafe.Pointer(a)}
}

func (h *Handle[T]) alloc(op string) *allocation[T] {
	a := (*allocation[T])(atomic.LoadPointer(&h.a))
	if a == nil {
		panic(fmt.Sprintf("atomicref: %s on released handle %p", op, h))
	}
	return a
}

// Get returns the value the Handle refers to. It panics if the Handle was
// Released or given away.
func (h *Handle[T]) Get() T {
	return h.alloc("Get").val
}

// Clone returns a new Handle to the same value, adding a reference.
func (h *Handle[T]) Clone() *Handle[T] {
	a := h.alloc("Clone")
	a.incRef()
	return wrap(a)
}

// Refs returns the number of outstanding references to the value, counting
// the one held by any cell it is stored in. The count is inherently racy.
func (h *Handle[T]) Refs() int64 {
	return atomic.LoadInt64(&h.alloc("Refs").refs)
}

// Release gives up the Handle's reference. It must be called exactly once,
// and not at all if the Handle was given to a cell.
func (h *Handle[T]) Release() {
	if h == nil {
		return
	}
	h.detach("Release").decRef()
}

// detach empties the Handle and returns the reference it held, so that a
// second use of the Handle panics instead of corrupting the count.
func (h *Handle[T]) detach(op string) *allocation[T] {
	a := (*allocation[T])(atomic.SwapPointer(&h.a, nil))
	if a == nil {
		panic(fmt.Sprintf("atomicref: %s on released handle %p", op, h))
	}
	return a
}

// take implements Source. The reference moves to the caller.
func (h *Handle[T]) take() *allocation[T] {
	if h == nil {
		return nil
	}
	return h.detach("transfer")
}

package atomicref

// Source is something that can be turned into an optional reference and
// given to a cell. The set of Sources is closed: a bare value wrapped by
// Value or ValueFunc, a *Handle (possibly nil), or None.
//
// Giving a Source to a cell transfers its reference: a *Handle is emptied and
// must not be Released afterwards.
type Source[T any] interface {
	take() *allocation[T]
}

// value is the Source for a bare value.
type value[T any] struct {
	v       T
	destroy func(T)
}

func (v value[T]) take() *allocation[T] { return newAllocation(v.v, v.destroy) }

// Value returns a Source that places v in a fresh allocation.
func Value[T any](v T) Source[T] { return value[T]{v: v} }

// ValueFunc is like Value but calls destroy with v once the last reference to
// the allocation is released.
func ValueFunc[T any](v T, destroy func(T)) Source[T] {
	return value[T]{v: v, destroy: destroy}
}

// None returns the absent Source.
func None[T any]() Source[T] { return (*Handle[T])(nil) }

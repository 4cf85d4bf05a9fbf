// package atomicref provides atomically replaceable references to reference counted values.
//
// Consider a configuration that many goroutines read while some other goroutine
// periodically replaces it, and that holds resources which must be closed once
// nobody uses them any longer. A first attempt might be:
//
//	var current unsafe.Pointer // *config
//
//	func Get() *config {
//		c := (*config)(atomic.LoadPointer(&current))
//		c.refs.Add(1)
//		return c
//	}
//
//	func Replace(next *config) {
//		prev := (*config)(atomic.SwapPointer(&current, unsafe.Pointer(next)))
//		if prev.refs.Add(-1) == 0 {
//			prev.Close()
//		}
//	}
//
// This is broken: Get can load the pointer, Replace can swap it out and drop the
// last reference, and only then does Get add its reference to an already closed
// config. The types in this package close that window:
//
//	var current atomicref.Option[*config]
//
//	func Get() *atomicref.Handle[*config] {
//		return current.Load()
//	}
//
//	func Replace(next *config) {
//		current.Store(atomicref.ValueFunc(next, (*config).Close))
//	}
//
// Load briefly enters a spinning reader/writer gate around reading the slot and
// adding its reference, and Swap holds the gate exclusively only for the pointer
// exchange itself. Both critical sections are a handful of instructions, so
// waiting on the gate is short. The gate makes no fairness guarantees.
//
// References move into an Option without being counted again, so a Handle given
// to Store or Swap is consumed. Handles come out of Load with a new reference and
// out of Swap with the reference the Option held. Either way the caller Releases
// them.
package atomicref

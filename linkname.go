package atomicref

import (
	"runtime"
	_ "unsafe" // for go:linkname
)

//go:linkname runtime_canSpin sync.runtime_canSpin
func runtime_canSpin(i int) bool

//go:linkname runtime_doSpin sync.runtime_doSpin
func runtime_doSpin()

// spin is the backoff between attempts of a spin loop. i is the number of
// attempts made so far. It busy waits on the cpu while the runtime thinks
// that is profitable and yields the processor otherwise.
func spin(i int) {
	if runtime_canSpin(i) {
		runtime_doSpin()
		return
	}
	runtime.Gosched()
}

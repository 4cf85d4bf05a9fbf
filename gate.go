package atomicref

import "sync/atomic"

// writerHeld is the bit of the gate's state that is set while a writer holds
// the gate. The other bits carry the count of active readers.
const writerHeld = 1 << 63

// gate is a spinning reader/writer synchronizer. It admits either many
// concurrent readers or a single writer. It never blocks on anything but the
// state word, so it should only guard O(1) critical sections. The zero value
// is open.
type gate struct {
	state atomic.Uint64
}

// acquireRead waits until no writer holds the gate and then registers a
// reader. The returned token must be released exactly once.
func (g *gate) acquireRead() readToken {
	for i := 0; ; i++ {
		v := g.state.Load()
		if v&writerHeld == 0 && g.state.CompareAndSwap(v, v+1) {
			return readToken{g: g}
		}
		spin(i)
	}
}

// acquireWrite sets the writer bit, stopping new readers from entering, and
// then waits for the readers already inside to leave. The returned token
// must be released exactly once.
func (g *gate) acquireWrite() writeToken {
	// only one writer can flip the bit on. readers that show up while we
	// are doing so cause the cas to fail and we go around again.
	for i := 0; ; i++ {
		v := g.state.Load()
		if v&writerHeld == 0 && g.state.CompareAndSwap(v, v|writerHeld) {
			break
		}
		spin(i)
	}

	// no new readers can enter, so the count only goes down from here.
	for i := 0; g.state.Load() != writerHeld; i++ {
		spin(i)
	}

	return writeToken{g: g}
}

// readers reports the number of readers inside the gate. It is racy and only
// useful for tests and diagnostics.
func (g *gate) readers() uint64 {
	return g.state.Load() &^ writerHeld
}

// writing reports if a writer holds or is waiting to hold the gate. It is
// racy in the same way as readers.
func (g *gate) writing() bool {
	return g.state.Load()&writerHeld != 0
}

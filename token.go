package atomicref

// readToken is held by a reader for the duration of its critical section.
// Many may exist at once.
type readToken struct {
	g *gate
}

// release leaves the gate and must be called exactly once.
func (t readToken) release() { t.g.state.Add(^uint64(0)) }

// writeToken is held by the single writer inside the gate.
type writeToken struct {
	g *gate
}

// release reopens the gate and must be called exactly once. While the writer
// is inside no reader has registered, so the whole word can be reset.
func (t writeToken) release() { t.g.state.Store(0) }

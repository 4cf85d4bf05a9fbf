package stress

import (
	"sync/atomic"

	"github.com/zeebo/pcg"
)

// payload is the value swapped through the cell. Its checksum is computed on
// creation, and its destructor marks it dead and zeroes the words,
// so a reader using it after destruction notices.
type payload struct {
	id    uint64
	sum   uint32
	words []uint32
	dead  uint32
}

func newPayload(id uint64, n int, rng *pcg.T) *payload {
	p := &payload{id: id, words: make([]uint32, n)}
	for i := range p.words {
		p.words[i] = rng.Uint32()
		p.sum ^= p.words[i]
	}
	return p
}

// check reports if the payload is alive and intact.
func (p *payload) check() bool {
	if atomic.LoadUint32(&p.dead) != 0 {
		return false
	}
	var sum uint32
	for _, w := range p.words {
		sum ^= w
	}
	return sum == p.sum
}

// destroy marks the payload dead. It returns false if it already was.
func (p *payload) destroy() bool {
	if !atomic.CompareAndSwapUint32(&p.dead, 0, 1) {
		return false
	}
	for i := range p.words {
		p.words[i] = 0
	}
	return true
}

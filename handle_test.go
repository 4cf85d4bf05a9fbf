package atomicref

import (
	"testing"

	"github.com/zeebo/assert"
)

// destroyed counts destructor calls per value.
type destroyed map[string]int

func (d destroyed) fn(v string) { d[v]++ }

func panics(fn func()) (ok bool) {
	defer func() { ok = recover() != nil }()
	fn()
	return false
}

func TestHandle(t *testing.T) {
	d := make(destroyed)
	h := NewHandleFunc("a", d.fn)
	assert.Equal(t, h.Get(), "a")
	assert.Equal(t, h.Refs(), 1)

	c := h.Clone()
	assert.Equal(t, c.Get(), "a")
	assert.Equal(t, h.Refs(), 2)

	h.Release()
	assert.Equal(t, d["a"], 0)
	assert.Equal(t, c.Refs(), 1)

	c.Release()
	assert.Equal(t, d["a"], 1)
}

func TestHandleMisuse(t *testing.T) {
	h := NewHandle(1)
	h.Release()

	assert.That(t, panics(h.Release))
	assert.That(t, panics(func() { h.Get() }))
	assert.That(t, panics(func() { h.Clone() }))

	// releasing the absent handle is a no-op.
	var none *Handle[int]
	none.Release()
}

func TestHandleTransferred(t *testing.T) {
	d := make(destroyed)
	h := NewHandleFunc("a", d.fn)

	var o Option[string]
	o.Store(h)
	assert.That(t, panics(h.Release))
	assert.That(t, panics(func() { o.Store(h) }))
	assert.Equal(t, d["a"], 0)

	o.Close()
	assert.Equal(t, d["a"], 1)
}

func TestAllocationCounts(t *testing.T) {
	a := newAllocation(0, nil)
	a.decRef()
	assert.That(t, panics(a.decRef))

	b := newAllocation(0, nil)
	b.decRef()
	assert.That(t, panics(b.incRef))
}

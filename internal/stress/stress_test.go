package stress

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/zeebo/assert"
	"github.com/zeebo/atomicref"
	"github.com/zeebo/pcg"
)

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestRun(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Readers = 4
	cfg.Writers = 2
	cfg.Iterations = 2000

	rep, err := Run(context.Background(), cfg, testLogger())
	assert.NoError(t, err)
	assert.Equal(t, rep.Created, cfg.Writers*cfg.Iterations)
	assert.Equal(t, rep.Swaps, rep.Created)
	assert.Equal(t, rep.Destroyed, rep.Created)
}

func TestRunNoHold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Readers = 2
	cfg.Writers = 2
	cfg.Iterations = 1000
	cfg.HoldLoads = 0

	rep, err := Run(context.Background(), cfg, testLogger())
	assert.NoError(t, err)
	assert.Equal(t, rep.Destroyed, rep.Created)
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := DefaultConfig()
	rep, err := Run(ctx, cfg, testLogger())
	assert.That(t, errors.Is(err, context.Canceled))
	assert.Equal(t, rep.Destroyed, rep.Created)
}

func TestRunInvalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Writers = 0
	_, err := Run(context.Background(), cfg, testLogger())
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stress.toml")
	assert.NoError(t, os.WriteFile(path, []byte("writers = 3\nhold_loads = 0\n"), 0644))

	cfg, err := LoadConfig(path)
	assert.NoError(t, err)
	assert.Equal(t, cfg.Writers, 3)
	assert.Equal(t, cfg.HoldLoads, 0)
	assert.Equal(t, cfg.Iterations, DefaultConfig().Iterations)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestPayload(t *testing.T) {
	p := &payload{id: 1, words: []uint32{1, 2, 3}, sum: 1 ^ 2 ^ 3}
	assert.That(t, p.check())
	assert.That(t, p.destroy())
	assert.That(t, !p.check())
	assert.That(t, !p.destroy())
}

func TestWindowEvictDestroyed(t *testing.T) {
	rng := pcg.New(1)
	w := newWindow(1, &rng)

	p1 := newPayload(1, 4, &rng)
	assert.NoError(t, w.add(atomicref.NewHandle(p1)))
	p1.destroy()

	// evicting the destroyed payload fails, but the new handle is still
	// owned by the window and released on close.
	h2 := atomicref.NewHandle(newPayload(2, 4, &rng))
	c2 := h2.Clone()
	assert.That(t, errors.Is(w.add(h2), ErrUseAfterDestroy))
	assert.Equal(t, c2.Refs(), 2)

	assert.NoError(t, w.close())
	assert.Equal(t, c2.Refs(), 1)
	c2.Release()
}

func TestWindowAddDestroyed(t *testing.T) {
	rng := pcg.New(2)
	w := newWindow(2, &rng)

	p := newPayload(1, 4, &rng)
	h := atomicref.NewHandle(p)
	c := h.Clone()
	p.destroy()

	assert.That(t, errors.Is(w.add(h), ErrUseAfterDestroy))
	assert.Equal(t, c.Refs(), 1)
	assert.NoError(t, w.close())
	c.Release()
}

func TestWindowEvicts(t *testing.T) {
	rng := pcg.New(3)
	w := newWindow(3, &rng)

	var clones []*atomicref.Handle[*payload]
	for i := 0; i < 10; i++ {
		h := atomicref.NewHandle(newPayload(uint64(i), 4, &rng))
		clones = append(clones, h.Clone())
		assert.NoError(t, w.add(h))
		assert.That(t, len(w.held) <= 3)
	}

	held := 0
	for _, c := range clones {
		if c.Refs() == 2 {
			held++
		}
	}
	assert.Equal(t, held, 3)

	assert.NoError(t, w.close())
	for _, c := range clones {
		assert.Equal(t, c.Refs(), 1)
		c.Release()
	}
}

func TestWindowNoHold(t *testing.T) {
	rng := pcg.New(4)
	w := newWindow(0, &rng)

	h := atomicref.NewHandle(newPayload(1, 4, &rng))
	c := h.Clone()
	assert.NoError(t, w.add(h))
	assert.Equal(t, c.Refs(), 1)
	c.Release()
}

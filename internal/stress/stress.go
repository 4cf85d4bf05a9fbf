// Package stress hammers an atomicref.Option with concurrent readers and
// writers and checks that every value is destroyed exactly once, and never
// while a reader can still see it.
package stress

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zeebo/atomicref"
	"github.com/zeebo/pcg"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrUseAfterDestroy is returned when a reader holds a destroyed value.
	ErrUseAfterDestroy = errors.New("loaded value was destroyed")
	// ErrDoubleDestroy is returned when a value is destroyed more than once.
	ErrDoubleDestroy = errors.New("value destroyed more than once")
	// ErrLeak is returned when values outlive the cell and every handle.
	ErrLeak = errors.New("values were never destroyed")
)

// Report summarizes a stress run.
type Report struct {
	Created   uint64
	Destroyed uint64
	Loads     uint64
	Empty     uint64
	Swaps     uint64
	Elapsed   time.Duration
}

// counters are the shared tallies of a run.
type counters struct {
	ids       uint64
	destroyed uint64
	doubles   uint64
	loads     uint64
	empty     uint64
	swaps     uint64
}

func (c *counters) destroy(p *payload) {
	if p.destroy() {
		atomic.AddUint64(&c.destroyed, 1)
	} else {
		atomic.AddUint64(&c.doubles, 1)
	}
}

// Run executes the stress test described by cfg. It returns early with the
// context's error if ctx is canceled.
func Run(ctx context.Context, cfg Config, log logrus.FieldLogger) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, fmt.Errorf("invalid config: %w", err)
	}

	var (
		cell  atomicref.Option[*payload]
		ctrs  counters
		start = time.Now()
	)

	log.WithFields(logrus.Fields{
		"readers":    cfg.Readers,
		"writers":    cfg.Writers,
		"iterations": cfg.Iterations,
		"hold":       cfg.HoldLoads,
	}).Info("starting stress run")

	g, gctx := errgroup.WithContext(ctx)
	done := make(chan struct{})

	var writers sync.WaitGroup
	writers.Add(cfg.Writers)
	for i := 0; i < cfg.Writers; i++ {
		rng := pcg.New(cfg.Seed + uint64(i))
		g.Go(func() error {
			defer writers.Done()
			return write(gctx, &cell, &ctrs, cfg, &rng)
		})
	}
	g.Go(func() error {
		writers.Wait()
		close(done)
		return nil
	})

	for i := 0; i < cfg.Readers; i++ {
		rng := pcg.New(cfg.Seed + uint64(cfg.Writers+i))
		g.Go(func() error {
			return read(gctx, done, &cell, &ctrs, cfg, &rng)
		})
	}

	err := g.Wait()

	// destroys the last value swapped in.
	cell.Close()

	rep := Report{
		Created:   atomic.LoadUint64(&ctrs.ids),
		Destroyed: atomic.LoadUint64(&ctrs.destroyed),
		Loads:     atomic.LoadUint64(&ctrs.loads),
		Empty:     atomic.LoadUint64(&ctrs.empty),
		Swaps:     atomic.LoadUint64(&ctrs.swaps),
		Elapsed:   time.Since(start),
	}
	log.WithFields(logrus.Fields{
		"created":   rep.Created,
		"destroyed": rep.Destroyed,
		"loads":     rep.Loads,
		"empty":     rep.Empty,
		"swaps":     rep.Swaps,
		"elapsed":   rep.Elapsed,
	}).Info("stress run finished")

	switch {
	case err != nil:
		return rep, fmt.Errorf("stress run: %w", err)
	case atomic.LoadUint64(&ctrs.doubles) != 0:
		return rep, fmt.Errorf("%d values: %w", ctrs.doubles, ErrDoubleDestroy)
	case rep.Destroyed != rep.Created:
		return rep, fmt.Errorf("%d of %d values: %w", rep.Created-rep.Destroyed, rep.Created, ErrLeak)
	}
	return rep, nil
}

// write swaps fresh values into the cell, releasing the displaced ones.
func write(ctx context.Context, cell *atomicref.Option[*payload], ctrs *counters, cfg Config, rng *pcg.T) error {
	for n := 0; n < cfg.Iterations; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		id := atomic.AddUint64(&ctrs.ids, 1)
		p := newPayload(id, cfg.PayloadWords, rng)
		cell.Swap(atomicref.ValueFunc(p, ctrs.destroy)).Release()
		atomic.AddUint64(&ctrs.swaps, 1)
	}
	return nil
}

// read loads from the cell until done is closed, checking each value when it
// is loaded and keeping up to HoldLoads of them alive in a window.
func read(ctx context.Context, done <-chan struct{}, cell *atomicref.Option[*payload], ctrs *counters, cfg Config, rng *pcg.T) (err error) {
	w := newWindow(cfg.HoldLoads, rng)
	defer func() {
		if cerr := w.close(); err == nil {
			err = cerr
		}
	}()

	for {
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		h := cell.Load()
		if h == nil {
			atomic.AddUint64(&ctrs.empty, 1)
			continue
		}
		atomic.AddUint64(&ctrs.loads, 1)

		if err := w.add(h); err != nil {
			return err
		}
	}
}

// window holds loaded handles so that their values outlive the swaps that
// displace them. When full, a random handle is evicted.
type window struct {
	held []*atomicref.Handle[*payload]
	rng  *pcg.T
}

func newWindow(size int, rng *pcg.T) *window {
	return &window{held: make([]*atomicref.Handle[*payload], 0, size), rng: rng}
}

// add checks h and takes ownership of it. The handle is released even when
// an error is returned.
func (w *window) add(h *atomicref.Handle[*payload]) error {
	if err := check(h); err != nil {
		h.Release()
		return err
	}
	if cap(w.held) == 0 {
		h.Release()
		return nil
	}

	var err error
	if len(w.held) == cap(w.held) {
		j := int(w.rng.Uint32n(uint32(len(w.held))))
		err = check(w.held[j])
		w.held[j].Release()
		w.held[j] = w.held[len(w.held)-1]
		w.held = w.held[:len(w.held)-1]
	}
	w.held = append(w.held, h)
	return err
}

// close checks and releases every held handle, returning the first error.
func (w *window) close() (err error) {
	for _, h := range w.held {
		if cerr := check(h); cerr != nil && err == nil {
			err = cerr
		}
		h.Release()
	}
	w.held = w.held[:0]
	return err
}

func check(h *atomicref.Handle[*payload]) error {
	if p := h.Get(); !p.check() {
		return fmt.Errorf("payload %d: %w", p.id, ErrUseAfterDestroy)
	}
	return nil
}

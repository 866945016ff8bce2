package diag

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// drainGrace bounds how long Close waits on the sink while flushing
// events buffered at shutdown. A sink that blocks past it forfeits the
// remainder.
const drainGrace = 2 * time.Second

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// Dispatcher asynchronously forwards diagnostics events to a sink.
// A nil *Dispatcher is valid and drops everything, so call sites never
// branch on whether diagnostics are enabled.
type Dispatcher struct {
	sink       Sink
	ch         chan Event
	dropIfFull bool

	ctx    context.Context
	cancel context.CancelFunc

	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closeOnce sync.Once
}

func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		sink:       sink,
		ch:         make(chan Event, cfg.BufferSize),
		dropIfFull: cfg.DropIfFull,
		ctx:        ctx,
		cancel:     cancel,
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case event := <-d.ch:
			d.sink.Emit(d.ctx, event)
		case <-d.ctx.Done():
			d.drain()
			return
		}
	}
}

// drain flushes events still buffered when the dispatcher was closed.
// The lifecycle context is already canceled at this point, so the sink
// gets a fresh one bounded by drainGrace instead.
func (d *Dispatcher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainGrace)
	defer cancel()

	for {
		select {
		case event := <-d.ch:
			d.sink.Emit(ctx, event)
			if ctx.Err() != nil {
				return
			}
		default:
			return
		}
	}
}

func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.ctx.Err() != nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.dropIfFull {
		select {
		case d.ch <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.ch <- event:
	case <-ctx.Done():
	case <-d.ctx.Done():
	}
}

// Close stops the dispatcher. Buffered events are flushed, bounded by
// drainGrace; events emitted after Close are discarded.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.cancel()
		d.wg.Wait()
	})
}

// Dropped reports how many events were discarded under backpressure.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Dispatcher asynchronously forwards audit events to a sink. A nil
// Dispatcher is valid and drops everything, so disabled audit costs one
// nil check per flow.
type Dispatcher struct {
	sink       Sink
	ch         chan Event
	quit       chan struct{}
	dropIfFull bool
	wg         sync.WaitGroup
	dropped    atomic.Uint64
	closed     atomic.Bool
}

// NewDispatcher starts a dispatcher that forwards into sink through a
// buffer of the given size. With dropIfFull set a full buffer sheds
// events instead of blocking the calling flow.
func NewDispatcher(buffer int, dropIfFull bool, sink Sink) *Dispatcher {
	if buffer <= 0 {
		buffer = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		sink:       sink,
		ch:         make(chan Event, buffer),
		quit:       make(chan struct{}),
		dropIfFull: dropIfFull,
	}

	d.wg.Add(1)
	go d.forward()

	return d
}

func (d *Dispatcher) forward() {
	defer d.wg.Done()

	for {
		select {
		case event := <-d.ch:
			d.sink.Emit(context.Background(), event)
		case <-d.quit:
			// Events enqueued before Close still get delivered.
			for len(d.ch) > 0 {
				d.sink.Emit(context.Background(), <-d.ch)
			}
			return
		}
	}
}

// Emit enqueues an event. In drop mode a full buffer increments the
// dropped counter; otherwise Emit blocks until there is room, the
// context ends, or the dispatcher shuts down.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.closed.Load() {
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
	case <-d.quit:
	}
}

// Close stops the dispatcher after draining buffered events. Safe to
// call more than once.
func (d *Dispatcher) Close() {
	if d == nil || !d.closed.CompareAndSwap(false, true) {
		return
	}
	close(d.quit)
	d.wg.Wait()
}

// Dropped reports how many events were shed because the buffer was
// full.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

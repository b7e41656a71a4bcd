package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestDispatcherForwardsToSink(t *testing.T) {
	sink := NewChannelSink(8)
	d := NewDispatcher(8, true, sink)
	defer d.Close()

	d.Emit(context.Background(), Event{Flow: "login", Success: true, UserID: "user-1"})

	select {
	case event := <-sink.Events():
		if event.Flow != "login" || !event.Success || event.UserID != "user-1" {
			t.Fatalf("event mismatch: %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatal("event never reached sink")
	}
}

func TestNilDispatcherIsUsable(t *testing.T) {
	var d *Dispatcher
	d.Emit(context.Background(), Event{Flow: "login"})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reported drops")
	}
}

func TestCloseDrainsBufferedEvents(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	d := NewDispatcher(16, true, sink)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), Event{Flow: "refresh"})
	}
	d.Close()

	dec := json.NewDecoder(&buf)
	var count int
	for dec.More() {
		var event Event
		if err := dec.Decode(&event); err != nil {
			t.Fatalf("decode emitted event: %v", err)
		}
		count++
	}
	if count != 5 {
		t.Fatalf("drained events = %d, want 5", count)
	}
}

type blockingSink struct{ release chan struct{} }

func (s *blockingSink) Emit(ctx context.Context, event Event) { <-s.release }

func TestDropIfFullCountsDrops(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d := NewDispatcher(1, true, sink)

	// First event may be in-flight with the sink, second fills the buffer,
	// the rest must be dropped.
	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), Event{Flow: "login"})
	}
	if d.Dropped() == 0 {
		t.Fatal("no drops recorded with a full buffer")
	}

	close(sink.release)
	d.Close()
}

func TestEmitAfterCloseIsNoOp(t *testing.T) {
	sink := NewChannelSink(1)
	d := NewDispatcher(1, true, sink)
	d.Close()
	d.Emit(context.Background(), Event{Flow: "login"})

	select {
	case <-sink.Events():
		t.Fatal("event delivered after Close")
	case <-time.After(50 * time.Millisecond):
	}
}

package capture

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/soocke/camgrab-go/v4l2"
)

// startStreaming allocates a pool and brings the fake device into the
// streaming state with every buffer queued.
func startStreaming(t *testing.T, ft *fakeTransport, buffers uint32) *BufferPool {
	t.Helper()
	pool, err := AllocatePool(ft, discardLogger, buffers)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	c := NewStreamController(ft, pool, discardLogger)
	if err := c.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	return pool
}

func TestCaptureLoopDeliversExactCount(t *testing.T) {
	ft := newFakeTransport(4)
	ft.dqSteps = []dqStep{
		ready(0, 100), ready(1, 200), ready(2, 300), ready(3, 400), ready(0, 500),
	}
	pool := startStreaming(t, ft, 4)

	sink := &recordingSink{}
	loop := NewCaptureLoop(ft, pool, sink, discardLogger)
	if err := loop.Run(5); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(sink.frames) != 5 {
		t.Fatalf("delivered %d frames, want 5", len(sink.frames))
	}
	// Frames arrive in device-reported order, not index order.
	wantIdx := []uint32{0, 1, 2, 3, 0}
	wantUsed := []uint32{100, 200, 300, 400, 500}
	for i, f := range sink.frames {
		if f.Index != wantIdx[i] || f.BytesUsed != wantUsed[i] {
			t.Errorf("frame %d = index %d used %d, want index %d used %d",
				i, f.Index, f.BytesUsed, wantIdx[i], wantUsed[i])
		}
	}
	if got := loop.Stats().Delivered; got != 5 {
		t.Errorf("stats delivered = %d, want 5", got)
	}
}

// Every buffer must be requeued before the next dequeue: the protocol
// trace alternates dq and q strictly.
func TestCaptureLoopRequeuesBeforeNextDequeue(t *testing.T) {
	ft := newFakeTransport(2)
	ft.dqSteps = []dqStep{ready(0, 10), ready(1, 10), ready(0, 10)}
	pool := startStreaming(t, ft, 2)

	loop := NewCaptureLoop(ft, pool, DiscardSink{}, discardLogger)
	if err := loop.Run(3); err != nil {
		t.Fatalf("run: %v", err)
	}

	var exchange []string
	for _, ev := range ft.trace {
		if strings.HasPrefix(ev, "dq:") || strings.HasPrefix(ev, "q:") {
			exchange = append(exchange, ev)
		}
	}
	// Skip the initial queue-all from Start.
	exchange = exchange[2:]
	want := []string{"dq:0", "q:0", "dq:1", "q:1", "dq:0", "q:0"}
	if len(exchange) != len(want) {
		t.Fatalf("exchange = %v, want %v", exchange, want)
	}
	for i := range want {
		if exchange[i] != want[i] {
			t.Fatalf("exchange[%d] = %q, want %q (full: %v)", i, exchange[i], want[i], exchange)
		}
	}
}

// At each delivery the process owns exactly the delivered buffer and the
// device owns the rest of the dense index range.
func TestCaptureLoopOwnershipInvariant(t *testing.T) {
	ft := newFakeTransport(3)
	ft.dqSteps = []dqStep{ready(0, 1), ready(1, 1), ready(2, 1), ready(0, 1)}
	pool := startStreaming(t, ft, 3)

	sink := &recordingSink{}
	sink.onEach = func(frame FrameRecord) {
		if ft.deviceOwned[frame.Index] {
			t.Errorf("delivered buffer %d still device-owned", frame.Index)
		}
		owned := 0
		for i := uint32(0); i < 3; i++ {
			if ft.deviceOwned[i] {
				owned++
			}
		}
		if owned != 2 {
			t.Errorf("device owns %d of 3 buffers during delivery of %d, want 2", owned, frame.Index)
		}
	}
	loop := NewCaptureLoop(ft, pool, sink, discardLogger)
	if err := loop.Run(4); err != nil {
		t.Fatalf("run: %v", err)
	}
}

// Requested count 5 with not-ready events interleaved: the spurious
// wakeups retry without consuming the frame budget.
func TestCaptureLoopSpuriousWakeups(t *testing.T) {
	ft := newFakeTransport(2)
	ft.dqSteps = []dqStep{
		notReady(), ready(0, 10), ready(1, 10),
		notReady(), ready(0, 10), ready(1, 10), ready(0, 10),
	}
	pool := startStreaming(t, ft, 2)

	sink := &recordingSink{}
	loop := NewCaptureLoop(ft, pool, sink, discardLogger)
	if err := loop.Run(5); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(sink.frames) != 5 {
		t.Fatalf("delivered %d frames, want 5", len(sink.frames))
	}
	stats := loop.Stats()
	if stats.Spurious != 2 {
		t.Errorf("spurious wakeups = %d, want 2", stats.Spurious)
	}
	if stats.Delivered != 5 {
		t.Errorf("delivered = %d, want 5", stats.Delivered)
	}
}

// Readiness timeout with no frames delivered: fatal stall.
func TestCaptureLoopStall(t *testing.T) {
	ft := newFakeTransport(2)
	ft.waitSteps = []error{fmt.Errorf("wait for device read: %w", v4l2.ErrorTimeout)}
	pool := startStreaming(t, ft, 2)

	sink := &recordingSink{}
	loop := NewCaptureLoop(ft, pool, sink, discardLogger)
	err := loop.Run(5)
	if !errors.Is(err, ErrCaptureStalled) {
		t.Fatalf("err = %v, want ErrCaptureStalled", err)
	}
	if len(sink.frames) != 0 {
		t.Fatalf("delivered %d frames before stall, want 0", len(sink.frames))
	}
}

func TestCaptureLoopOutOfRangeIndex(t *testing.T) {
	ft := newFakeTransport(2)
	pool := startStreaming(t, ft, 2)
	// Bypass the fake's ownership bookkeeping to fake a desynchronized
	// driver reporting an index the pool never mapped.
	ft.deviceOwned[7] = true
	ft.dqSteps = []dqStep{ready(7, 10)}

	loop := NewCaptureLoop(ft, pool, DiscardSink{}, discardLogger)
	err := loop.Run(1)
	if !errors.Is(err, ErrProtocolDesync) {
		t.Fatalf("err = %v, want ErrProtocolDesync", err)
	}
}

// A buffer flagged with a device-side I/O error is tolerated: delivered
// anyway, counted, not retried specially.
func TestCaptureLoopToleratesIOGlitch(t *testing.T) {
	ft := newFakeTransport(2)
	glitched := ready(0, 10)
	glitched.buf.Flags |= v4l2.BufFlagError
	ft.dqSteps = []dqStep{glitched, ready(1, 10)}
	pool := startStreaming(t, ft, 2)

	sink := &recordingSink{}
	loop := NewCaptureLoop(ft, pool, sink, discardLogger)
	if err := loop.Run(2); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(sink.frames) != 2 {
		t.Fatalf("delivered %d frames, want 2", len(sink.frames))
	}
	if got := loop.Stats().IOGlitches; got != 1 {
		t.Errorf("io glitches = %d, want 1", got)
	}
}

func TestCaptureLoopFatalDequeueError(t *testing.T) {
	ft := newFakeTransport(2)
	ft.dqSteps = []dqStep{{err: fmt.Errorf("buffer dequeue: %w", v4l2.ErrorSystem)}}
	pool := startStreaming(t, ft, 2)

	loop := NewCaptureLoop(ft, pool, DiscardSink{}, discardLogger)
	err := loop.Run(1)
	if err == nil || errors.Is(err, ErrCaptureStalled) {
		t.Fatalf("expected fatal dequeue error, got %v", err)
	}
	if !errors.Is(err, v4l2.ErrorSystem) {
		t.Fatalf("err = %v, want wrapped v4l2.ErrorSystem", err)
	}
}

func TestCaptureLoopProgressMarkers(t *testing.T) {
	ft := newFakeTransport(2)
	ft.dqSteps = []dqStep{ready(0, 10), ready(1, 10), ready(0, 10)}
	pool := startStreaming(t, ft, 2)

	var progress strings.Builder
	loop := NewCaptureLoop(ft, pool, DiscardSink{}, discardLogger)
	loop.Progress = &progress
	if err := loop.Run(3); err != nil {
		t.Fatalf("run: %v", err)
	}
	if progress.String() != "..." {
		t.Errorf("progress = %q, want three markers", progress.String())
	}
}

func TestCaptureLoopDeliversFrameBytes(t *testing.T) {
	ft := newFakeTransport(2)
	ft.dqSteps = []dqStep{ready(1, 8)}
	pool := startStreaming(t, ft, 2)

	// Fill the mapped region as the device would.
	desc := pool.Descriptor(1)
	copy(desc.Data, []byte("frame-01"))

	sink := &recordingSink{}
	loop := NewCaptureLoop(ft, pool, sink, discardLogger)
	if err := loop.Run(1); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(sink.frames) != 1 {
		t.Fatalf("delivered %d frames, want 1", len(sink.frames))
	}
	if got := string(sink.frames[0].Data); got != "frame-01" {
		t.Errorf("frame data = %q, want %q", got, "frame-01")
	}
}

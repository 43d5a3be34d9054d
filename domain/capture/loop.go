package capture

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/soocke/camgrab-go/v4l2"
)

// DefaultReadyTimeout bounds the readiness wait for each frame. The
// device exceeding it is treated as a stall, not retried.
const DefaultReadyTimeout = 2 * time.Second

// CaptureLoop repeatedly waits for device readiness, reclaims one filled
// buffer, delivers it to the sink and returns the buffer to the device.
// A buffer is always requeued before the next dequeue.
type CaptureLoop struct {
	transport Transport
	pool      *BufferPool
	sink      FrameSink
	logger    *slog.Logger

	// Timeout for each readiness wait. Zero means DefaultReadyTimeout.
	Timeout time.Duration
	// Progress receives one marker byte per delivered frame when set.
	Progress io.Writer

	delivered   atomic.Uint64
	spurious    atomic.Uint64
	ioGlitches  atomic.Uint64
	handleNanos atomic.Uint64
	lastFrame   atomic.Int64
}

// NewCaptureLoop returns a loop delivering frames from pool buffers to sink.
func NewCaptureLoop(t Transport, pool *BufferPool, sink FrameSink, logger *slog.Logger) *CaptureLoop {
	return &CaptureLoop{transport: t, pool: pool, sink: sink, logger: logger}
}

// Run captures exactly frames frames, then returns. Spurious wakeups (a
// readiness signal with no buffer actually ready) retry the wait without
// consuming a frame slot. A readiness timeout, an unexpected device
// error, an out-of-range buffer index or a sink failure ends the run.
func (l *CaptureLoop) Run(frames int) error {
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = DefaultReadyTimeout
	}

	for remaining := frames; remaining > 0; {
		if err := l.transport.WaitRead(timeout); err != nil {
			if errors.Is(err, v4l2.ErrorTimeout) {
				return fmt.Errorf("%w after %d of %d frames", ErrCaptureStalled, frames-remaining, frames)
			}
			return fmt.Errorf("capture loop: %w", err)
		}

		buf, err := l.transport.Dequeue()
		if err != nil {
			if errors.Is(err, v4l2.ErrorAgain) {
				// Spurious wakeup: nothing was ready after all.
				l.spurious.Add(1)
				continue
			}
			return fmt.Errorf("capture loop: %w", err)
		}

		if !l.pool.Contains(buf.Index) {
			return fmt.Errorf("capture loop: dequeued index %d of pool size %d: %w",
				buf.Index, l.pool.Count(), ErrProtocolDesync)
		}

		if buf.Flags&v4l2.BufFlagError != 0 {
			// Best-effort I/O glitch on this buffer. Tolerated: the
			// frame is delivered as-is and the buffer cycles normally.
			l.ioGlitches.Add(1)
			l.logger.Warn("device flagged buffer error", "index", buf.Index)
		}

		start := time.Now()
		desc := l.pool.Descriptor(buf.Index)
		used := buf.BytesUsed
		if used > desc.Length {
			used = desc.Length
		}
		record := FrameRecord{Index: buf.Index, BytesUsed: used, Data: desc.Data[:used]}
		if err := l.sink.Consume(record); err != nil {
			return fmt.Errorf("capture loop: sink: %w", err)
		}
		if l.Progress != nil {
			fmt.Fprint(l.Progress, ".")
		}

		// The borrowed view in record is invalid from here on.
		if err := l.transport.Queue(buf.Index); err != nil {
			return fmt.Errorf("capture loop: requeue buffer %d: %w", buf.Index, err)
		}

		l.handleNanos.Add(uint64(time.Since(start).Nanoseconds()))
		l.delivered.Add(1)
		l.lastFrame.Store(time.Now().UnixNano())
		remaining--
	}
	return nil
}

// Stats returns a snapshot of the loop's counters.
func (l *CaptureLoop) Stats() CaptureStats {
	delivered := l.delivered.Load()
	total := l.handleNanos.Load()
	var avg time.Duration
	avgMicros := 0.0
	if delivered > 0 && total > 0 {
		avg = time.Duration(total / delivered)
		avgMicros = float64(avg) / float64(time.Microsecond)
	}
	var last time.Time
	if ns := l.lastFrame.Load(); ns != 0 {
		last = time.Unix(0, ns)
	}
	return CaptureStats{
		Delivered:       delivered,
		Spurious:        l.spurious.Load(),
		IOGlitches:      l.ioGlitches.Load(),
		AvgHandle:       avg,
		AvgHandleMicros: avgMicros,
		LastDelivery:    last,
	}
}

// LogStats emits the loop counters through the logger.
func (l *CaptureLoop) LogStats() {
	stats := l.Stats()
	l.logger.Info("capture.stats",
		"delivered", stats.Delivered,
		"spurious", stats.Spurious,
		"io_glitches", stats.IOGlitches,
		"avg_handle", stats.AvgHandle,
	)
}

package capture

import (
	"fmt"
	"log/slog"
)

// StreamController drives the buffer ownership hand-off and the device's
// streaming state. Transitions happen only in order:
// Configured → (queue all) → Ready → (stream on) → Streaming →
// (stream off) → Stopped.
type StreamController struct {
	transport Transport
	pool      *BufferPool
	logger    *slog.Logger
	state     StreamState
}

// NewStreamController returns a controller in the Configured state for a
// pool whose buffers are mapped but still owned by the process.
func NewStreamController(t Transport, pool *BufferPool, logger *slog.Logger) *StreamController {
	return &StreamController{transport: t, pool: pool, logger: logger, state: StateConfigured}
}

// State returns the controller's current lifecycle state.
func (c *StreamController) State() StreamState { return c.state }

// Start queues every buffer in the pool, handing full ownership to the
// device, then turns streaming on. A failure at either step is fatal:
// partially queued buffers cannot be reclaimed and the session must end.
func (c *StreamController) Start() error {
	if c.state != StateConfigured {
		return fmt.Errorf("start stream in state %s: %w", c.state, ErrInvalidState)
	}
	for i := 0; i < c.pool.Count(); i++ {
		if err := c.transport.Queue(uint32(i)); err != nil {
			return fmt.Errorf("start stream: queue buffer %d: %w", i, err)
		}
	}
	c.state = StateReady

	if err := c.transport.StreamOn(); err != nil {
		return fmt.Errorf("start stream: %w", err)
	}
	c.state = StateStreaming
	c.logger.Debug("streaming started", "buffers", c.pool.Count())
	return nil
}

// Stop turns device-side streaming off. It does not reclaim outstanding
// buffers or touch mappings; the pool releases those independently.
func (c *StreamController) Stop() error {
	if c.state != StateStreaming {
		return fmt.Errorf("stop stream in state %s: %w", c.state, ErrInvalidState)
	}
	if err := c.transport.StreamOff(); err != nil {
		return fmt.Errorf("stop stream: %w", err)
	}
	c.state = StateStopped
	c.logger.Debug("streaming stopped")
	return nil
}

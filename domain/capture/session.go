package capture

import (
	"io"
	"log/slog"
	"time"

	"github.com/soocke/camgrab-go/config"
	"github.com/soocke/camgrab-go/v4l2"
)

// Session is the single explicit object tying one capture run together:
// transport, negotiated format, buffer pool and loop. It replaces any
// process-wide state; construct it at startup and let Run drive the
// whole lifecycle with teardown guaranteed on every exit path.
type Session struct {
	transport Transport
	cfg       *config.Config
	logger    *slog.Logger
	sink      FrameSink

	// Progress receives one marker byte per delivered frame when set.
	Progress io.Writer

	// Format is the negotiated capture format, valid after Run started
	// the pipeline.
	Format v4l2.PixFormat

	loop *CaptureLoop
}

// NewSession assembles a session over an already-open transport. The
// transport remains owned by the caller; Run never closes it.
func NewSession(t Transport, cfg *config.Config, logger *slog.Logger, sink FrameSink) *Session {
	return &Session{transport: t, cfg: cfg, logger: logger, sink: sink}
}

// Run drives negotiate → allocate → start → capture → stop. The buffer
// pool is released on every path out of this function, including fatal
// ones after partial initialization.
func (s *Session) Run() (err error) {
	n := NewNegotiator(s.transport, s.logger)

	cap, err := n.QueryCapabilities()
	if err != nil {
		return err
	}
	s.logger.Info("device ready", "capability", cap.String())

	n.NegotiateCrop()

	s.Format, err = n.NegotiateFormat(s.cfg.ForceFormat)
	if err != nil {
		return err
	}
	s.logger.Info("format negotiated", "format", s.Format.String())

	pool, err := AllocatePool(s.transport, s.logger, s.cfg.BufferCount)
	if err != nil {
		return err
	}
	defer func() {
		if relErr := pool.Release(); relErr != nil && err == nil {
			err = relErr
		}
	}()

	controller := NewStreamController(s.transport, pool, s.logger)
	if err := controller.Start(); err != nil {
		return err
	}

	s.loop = NewCaptureLoop(s.transport, pool, s.sink, s.logger)
	s.loop.Timeout = time.Duration(s.cfg.TimeoutSeconds) * time.Second
	s.loop.Progress = s.Progress
	loopErr := s.loop.Run(s.cfg.FrameCount)
	s.loop.LogStats()
	if loopErr != nil {
		// Stop streaming before the deferred release unmaps the buffers.
		if stopErr := controller.Stop(); stopErr != nil {
			s.logger.Warn("stream stop after capture failure", "error", stopErr)
		}
		return loopErr
	}

	if err := controller.Stop(); err != nil {
		return err
	}
	return nil
}

// Stats returns the capture loop counters, or the zero value before the
// loop has been constructed.
func (s *Session) Stats() CaptureStats {
	if s.loop == nil {
		return CaptureStats{}
	}
	return s.loop.Stats()
}

package capture

import (
	"fmt"
	"io"
)

// WriterSink forwards raw frame bytes to an io.Writer, e.g. stdout.
type WriterSink struct {
	w io.Writer
}

// NewWriterSink returns a sink writing every delivered frame to w.
func NewWriterSink(w io.Writer) *WriterSink { return &WriterSink{w: w} }

func (s *WriterSink) Consume(frame FrameRecord) error {
	if _, err := s.w.Write(frame.Data); err != nil {
		return fmt.Errorf("write frame %d: %w", frame.Index, err)
	}
	return nil
}

// DiscardSink drops delivered frames. Used when output is not enabled:
// the exchange protocol still runs, the bytes just go nowhere.
type DiscardSink struct{}

func (DiscardSink) Consume(FrameRecord) error { return nil }

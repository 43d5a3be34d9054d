package capture

import (
	"time"

	"github.com/soocke/camgrab-go/v4l2"
)

// Transport is the device protocol surface the capture pipeline drives.
// The production implementation speaks V4L2 over an open device handle;
// tests substitute a scripted fake.
type Transport interface {
	// Capability queries the device's capability flags.
	Capability() (v4l2.Capability, error)
	// CropCapability reads the cropping bounds and default rectangle.
	CropCapability() (v4l2.CropCapability, error)
	// SetCrop applies a crop rectangle to the capture stream.
	SetCrop(r v4l2.Rect) error
	// Format reads the device's current capture format.
	Format() (v4l2.PixFormat, error)
	// SetFormat requests a capture format and returns the format the
	// device actually applied.
	SetFormat(pix v4l2.PixFormat) (v4l2.PixFormat, error)
	// RequestBuffers reserves count buffers for memory-mapped streaming
	// and returns the granted count.
	RequestBuffers(count uint32) (uint32, error)
	// QueryBuffer reports the length and device-side offset of the
	// reserved buffer at index.
	QueryBuffer(index uint32) (length uint32, offset uint32, err error)
	// MapBuffer maps the device region at offset into process memory.
	MapBuffer(offset int64, length int) ([]byte, error)
	// UnmapBuffer releases a mapping created by MapBuffer.
	UnmapBuffer(data []byte) error
	// Queue hands ownership of the buffer at index to the device.
	Queue(index uint32) error
	// Dequeue reclaims one filled buffer from the device. When no frame
	// is ready the error wraps v4l2.ErrorAgain.
	Dequeue() (v4l2.Buffer, error)
	// StreamOn starts the device filling queued buffers.
	StreamOn() error
	// StreamOff stops the device-side streaming state.
	StreamOff() error
	// WaitRead blocks until the device has a buffer ready or the timeout
	// elapses, in which case the error wraps v4l2.ErrorTimeout.
	WaitRead(timeout time.Duration) error
	// Close releases the device handle. The transport is unusable after.
	Close() error
}

// BufferDescriptor is one pool entry: a device buffer mapped into process
// memory. Index, Data and Length are fixed for the descriptor's lifetime.
type BufferDescriptor struct {
	Index  uint32
	Data   []byte
	Length uint32
}

// FrameRecord carries one delivered frame. Data is a borrowed view into
// the pool's mapped memory: it is valid only from the moment the buffer
// is reclaimed from the device until it is requeued.
type FrameRecord struct {
	Index     uint32
	BytesUsed uint32
	Data      []byte
}

// FrameSink consumes delivered frame bytes. The Data view must not be
// retained past the call.
type FrameSink interface {
	Consume(frame FrameRecord) error
}

// StreamState tracks where the session is in the streaming lifecycle.
// Transitions occur only in declared order.
type StreamState int

const (
	StateUninitialized StreamState = iota
	StateConfigured
	StateReady
	StateStreaming
	StateStopped
)

func (s StreamState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConfigured:
		return "configured"
	case StateReady:
		return "ready"
	case StateStreaming:
		return "streaming"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

package capture

import "errors"

// Fatal condition sentinels. Check with errors.Is; any of these ends the
// session and maps to a non-zero process exit.
var (
	// ErrNotACaptureDevice means the device lacks the video capture
	// capability flag.
	ErrNotACaptureDevice = errors.New("not a video capture device")

	// ErrNoStreamingSupport means the device cannot do streaming
	// (memory-mapped) I/O.
	ErrNoStreamingSupport = errors.New("device does not support streaming i/o")

	// ErrMappingUnsupported means the device rejected memory-mapped
	// buffer reservation outright.
	ErrMappingUnsupported = errors.New("device does not support memory mapping")

	// ErrInsufficientBuffers means the device granted fewer buffers than
	// the minimum of two the exchange protocol needs.
	ErrInsufficientBuffers = errors.New("insufficient buffer memory on device")

	// ErrCaptureStalled means the readiness wait exceeded its timeout,
	// which likely indicates a hung device.
	ErrCaptureStalled = errors.New("capture stalled: device readiness timeout")

	// ErrProtocolDesync means the device reported a buffer index outside
	// the pool's valid range; state can no longer be trusted.
	ErrProtocolDesync = errors.New("buffer index out of pool range")

	// ErrInvalidState means a lifecycle operation was invoked out of its
	// declared transition order.
	ErrInvalidState = errors.New("invalid stream state")
)

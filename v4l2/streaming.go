//go:build linux && (amd64 || arm64)

package v4l2

import (
	"fmt"
	"unsafe"
)

// Memory-mapped streaming I/O.
// https://www.kernel.org/doc/html/latest/userspace-api/media/v4l/mmap.html

// InitBuffers asks the driver to reserve count buffers for memory-mapped
// capture and returns the driver's response. The granted count may differ
// from the request; callers enforce their own minimum.
// https://www.kernel.org/doc/html/latest/userspace-api/media/v4l/vidioc-reqbufs.html
func InitBuffers(fd uintptr, count uint32) (RequestBuffers, error) {
	req := RequestBuffers{
		Count:  count,
		Type:   BufTypeVideoCapture,
		Memory: MemoryMMAP,
	}
	if err := send(fd, vidiocReqBufs, uintptr(unsafe.Pointer(&req))); err != nil {
		return RequestBuffers{}, fmt.Errorf("request buffers: %w", err)
	}
	return req, nil
}

// GetBuffer queries the state of the reserved buffer at index, including
// its length and the device-side offset used for mapping.
func GetBuffer(fd uintptr, index uint32) (Buffer, error) {
	buf := Buffer{
		Index:  index,
		Type:   BufTypeVideoCapture,
		Memory: MemoryMMAP,
	}
	if err := send(fd, vidiocQueryBuf, uintptr(unsafe.Pointer(&buf))); err != nil {
		return Buffer{}, fmt.Errorf("query buffer: %w", err)
	}
	return buf, nil
}

// QueueBuffer hands ownership of the buffer at index to the driver so it
// can be filled with a captured frame.
// https://www.kernel.org/doc/html/latest/userspace-api/media/v4l/vidioc-qbuf.html
func QueueBuffer(fd uintptr, index uint32) error {
	buf := Buffer{
		Index:  index,
		Type:   BufTypeVideoCapture,
		Memory: MemoryMMAP,
	}
	if err := send(fd, vidiocQueueBuf, uintptr(unsafe.Pointer(&buf))); err != nil {
		return fmt.Errorf("buffer queue: %w", err)
	}
	return nil
}

// DequeueBuffer reclaims a filled buffer from the driver. On a
// non-blocking handle with no frame ready the error wraps ErrorAgain.
func DequeueBuffer(fd uintptr) (Buffer, error) {
	buf := Buffer{
		Type:   BufTypeVideoCapture,
		Memory: MemoryMMAP,
	}
	if err := send(fd, vidiocDequeue, uintptr(unsafe.Pointer(&buf))); err != nil {
		return Buffer{}, fmt.Errorf("buffer dequeue: %w", err)
	}
	return buf, nil
}

// StreamOn instructs the driver to start filling queued buffers.
func StreamOn(fd uintptr) error {
	bufType := BufTypeVideoCapture
	if err := send(fd, vidiocStreamOn, uintptr(unsafe.Pointer(&bufType))); err != nil {
		return fmt.Errorf("stream on: %w", err)
	}
	return nil
}

// StreamOff instructs the driver to stop capturing. Outstanding buffer
// mappings are unaffected; they are released separately.
func StreamOff(fd uintptr) error {
	bufType := BufTypeVideoCapture
	if err := send(fd, vidiocStreamOff, uintptr(unsafe.Pointer(&bufType))); err != nil {
		return fmt.Errorf("stream off: %w", err)
	}
	return nil
}

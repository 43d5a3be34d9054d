//go:build linux

package capture

import (
	"time"

	"github.com/soocke/camgrab-go/v4l2"
)

// DeviceTransport is the production Transport: it owns the open,
// non-blocking handle on one V4L2 device node and issues the protocol
// commands against it. Exactly one transport exists per session.
type DeviceTransport struct {
	path string
	fd   uintptr
}

// OpenDevice opens the capture device node at path for read/write in
// non-blocking mode.
func OpenDevice(path string) (*DeviceTransport, error) {
	fd, err := v4l2.OpenDevice(path)
	if err != nil {
		return nil, err
	}
	return &DeviceTransport{path: path, fd: fd}, nil
}

// Path returns the device node path the transport was opened on.
func (t *DeviceTransport) Path() string { return t.path }

func (t *DeviceTransport) Capability() (v4l2.Capability, error) {
	return v4l2.GetCapability(t.fd)
}

func (t *DeviceTransport) CropCapability() (v4l2.CropCapability, error) {
	return v4l2.GetCropCapability(t.fd)
}

func (t *DeviceTransport) SetCrop(r v4l2.Rect) error {
	return v4l2.SetCropRect(t.fd, r)
}

func (t *DeviceTransport) Format() (v4l2.PixFormat, error) {
	return v4l2.GetPixFormat(t.fd)
}

func (t *DeviceTransport) SetFormat(pix v4l2.PixFormat) (v4l2.PixFormat, error) {
	return v4l2.SetPixFormat(t.fd, pix)
}

func (t *DeviceTransport) RequestBuffers(count uint32) (uint32, error) {
	req, err := v4l2.InitBuffers(t.fd, count)
	if err != nil {
		return 0, err
	}
	return req.Count, nil
}

func (t *DeviceTransport) QueryBuffer(index uint32) (uint32, uint32, error) {
	buf, err := v4l2.GetBuffer(t.fd, index)
	if err != nil {
		return 0, 0, err
	}
	return buf.Length, buf.Offset, nil
}

func (t *DeviceTransport) MapBuffer(offset int64, length int) ([]byte, error) {
	return v4l2.MapMemoryBuffer(t.fd, offset, length)
}

func (t *DeviceTransport) UnmapBuffer(data []byte) error {
	return v4l2.UnmapMemoryBuffer(data)
}

func (t *DeviceTransport) Queue(index uint32) error {
	return v4l2.QueueBuffer(t.fd, index)
}

func (t *DeviceTransport) Dequeue() (v4l2.Buffer, error) {
	return v4l2.DequeueBuffer(t.fd)
}

func (t *DeviceTransport) StreamOn() error { return v4l2.StreamOn(t.fd) }

func (t *DeviceTransport) StreamOff() error { return v4l2.StreamOff(t.fd) }

func (t *DeviceTransport) WaitRead(timeout time.Duration) error {
	return v4l2.WaitForRead(t.fd, timeout)
}

// Close releases the device handle. Subsequent use of the transport is
// invalid.
func (t *DeviceTransport) Close() error {
	return v4l2.CloseDevice(t.fd)
}

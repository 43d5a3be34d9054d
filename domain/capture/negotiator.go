package capture

import (
	"fmt"
	"log/slog"

	"github.com/soocke/camgrab-go/v4l2"
)

// Defaults requested when the caller forces a format rather than keeping
// the device's current one. The device may adjust width and height.
const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

// Negotiator verifies device capabilities and settles cropping and the
// capture format before buffers are allocated.
type Negotiator struct {
	transport Transport
	logger    *slog.Logger
}

// NewNegotiator returns a negotiator driving the given transport.
func NewNegotiator(t Transport, logger *slog.Logger) *Negotiator {
	return &Negotiator{transport: t, logger: logger}
}

// QueryCapabilities checks that the device can capture video through
// streaming I/O. Both missing flags are fatal.
func (n *Negotiator) QueryCapabilities() (v4l2.Capability, error) {
	cap, err := n.transport.Capability()
	if err != nil {
		return v4l2.Capability{}, fmt.Errorf("negotiate: %w", err)
	}
	if !cap.IsVideoCaptureSupported() {
		return v4l2.Capability{}, ErrNotACaptureDevice
	}
	if !cap.IsStreamingSupported() {
		return v4l2.Capability{}, ErrNoStreamingSupport
	}
	return cap, nil
}

// NegotiateCrop resets cropping to the device's default rectangle.
// Cropping is best-effort only: every failure, including the device not
// supporting cropping at all, is silently ignored.
func (n *Negotiator) NegotiateCrop() {
	cropCap, err := n.transport.CropCapability()
	if err != nil {
		n.logger.Debug("crop capability not available", "error", err)
		return
	}
	if err := n.transport.SetCrop(cropCap.DefaultRect); err != nil {
		n.logger.Debug("set default crop rejected", "error", err)
	}
}

// NegotiateFormat settles the capture format. With force set it requests
// the fixed width/height/YUYV/interlaced tuple and accepts whatever
// dimensions the device honors; otherwise it reads and keeps the device's
// current format untouched. Any other I/O failure is fatal.
func (n *Negotiator) NegotiateFormat(force bool) (v4l2.PixFormat, error) {
	if !force {
		pix, err := n.transport.Format()
		if err != nil {
			return v4l2.PixFormat{}, fmt.Errorf("negotiate format: %w", err)
		}
		return pix, nil
	}

	want := v4l2.PixFormat{
		Width:       DefaultWidth,
		Height:      DefaultHeight,
		PixelFormat: v4l2.PixelFmtYUYV,
		Field:       v4l2.FieldInterlaced,
	}
	got, err := n.transport.SetFormat(want)
	if err != nil {
		return v4l2.PixFormat{}, fmt.Errorf("negotiate format: %w", err)
	}
	if got.Width != want.Width || got.Height != want.Height {
		n.logger.Info("device adjusted requested format",
			"requested", want.String(), "granted", got.String())
	}
	return got, nil
}

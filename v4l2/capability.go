//go:build linux && (amd64 || arm64)

package v4l2

import (
	"fmt"
	"unsafe"
)

// GetCapability queries the device at fd for its capabilities.
// https://www.kernel.org/doc/html/latest/userspace-api/media/v4l/vidioc-querycap.html
func GetCapability(fd uintptr) (Capability, error) {
	var cap Capability
	if err := send(fd, vidiocQueryCap, uintptr(unsafe.Pointer(&cap))); err != nil {
		return Capability{}, fmt.Errorf("query capability: %w", err)
	}
	return cap, nil
}

// VersionString renders the driver version triplet.
func (c Capability) VersionString() string {
	return fmt.Sprintf("%d.%d.%d", c.Version>>16&0xff, c.Version>>8&0xff, c.Version&0xff)
}

func (c Capability) String() string {
	return fmt.Sprintf("driver: %s; card: %s; bus: %s; version: %s",
		c.Driver(), c.Card(), c.BusInfo(), c.VersionString())
}

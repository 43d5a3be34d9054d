//go:build linux && (amd64 || arm64)

package v4l2

import (
	"fmt"
	"unsafe"
)

// GetCropCapability retrieves the cropping bounds and default rectangle
// for the capture stream.
// https://www.kernel.org/doc/html/latest/userspace-api/media/v4l/vidioc-cropcap.html
func GetCropCapability(fd uintptr) (CropCapability, error) {
	cap := CropCapability{Type: BufTypeVideoCapture}
	if err := send(fd, vidiocCropCap, uintptr(unsafe.Pointer(&cap))); err != nil {
		return CropCapability{}, fmt.Errorf("crop capability: %w", err)
	}
	return cap, nil
}

// SetCropRect applies the crop rectangle to the capture stream.
// https://www.kernel.org/doc/html/latest/userspace-api/media/v4l/vidioc-g-crop.html
func SetCropRect(fd uintptr, r Rect) error {
	crop := Crop{Type: BufTypeVideoCapture, Rect: r}
	if err := send(fd, vidiocSetCrop, uintptr(unsafe.Pointer(&crop))); err != nil {
		return fmt.Errorf("set crop: %w", err)
	}
	return nil
}

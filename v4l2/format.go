//go:build linux && (amd64 || arm64)

package v4l2

import (
	"fmt"
	"unsafe"
)

// FourCCType identifies a pixel format as a four character code packed
// into a 32-bit integer.
type FourCCType = uint32

// Common pixel format FourCC values.
// https://www.kernel.org/doc/html/latest/userspace-api/media/v4l/pixfmt.html
var (
	PixelFmtYUYV  FourCCType = fourcc('Y', 'U', 'Y', 'V')
	PixelFmtUYVY  FourCCType = fourcc('U', 'Y', 'V', 'Y')
	PixelFmtRGB24 FourCCType = fourcc('R', 'G', 'B', '3')
	PixelFmtGrey  FourCCType = fourcc('G', 'R', 'E', 'Y')
	PixelFmtMJPEG FourCCType = fourcc('M', 'J', 'P', 'G')
	PixelFmtJPEG  FourCCType = fourcc('J', 'P', 'E', 'G')
	PixelFmtH264  FourCCType = fourcc('H', '2', '6', '4')
)

func fourcc(a, b, c, d byte) FourCCType {
	return uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24
}

// FourCCString renders a packed pixel format code as its four characters.
func FourCCString(fcc FourCCType) string {
	return string([]byte{byte(fcc), byte(fcc >> 8), byte(fcc >> 16), byte(fcc >> 24)})
}

// GetPixFormat retrieves the current capture format of the device.
// https://www.kernel.org/doc/html/latest/userspace-api/media/v4l/vidioc-g-fmt.html
func GetPixFormat(fd uintptr) (PixFormat, error) {
	format := Format{Type: BufTypeVideoCapture}
	if err := send(fd, vidiocGetFormat, uintptr(unsafe.Pointer(&format))); err != nil {
		return PixFormat{}, fmt.Errorf("get format: %w", err)
	}
	return *format.Pix(), nil
}

// SetPixFormat requests the given capture format. The driver may adjust
// width and height; the format actually applied is returned.
func SetPixFormat(fd uintptr, pix PixFormat) (PixFormat, error) {
	format := Format{Type: BufTypeVideoCapture}
	*format.Pix() = pix
	if err := send(fd, vidiocSetFormat, uintptr(unsafe.Pointer(&format))); err != nil {
		return PixFormat{}, fmt.Errorf("set format: %w", err)
	}
	return *format.Pix(), nil
}

func (f PixFormat) String() string {
	return fmt.Sprintf("%s [%dx%d]", FourCCString(f.PixelFormat), f.Width, f.Height)
}

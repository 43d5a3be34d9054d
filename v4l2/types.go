//go:build linux && (amd64 || arm64)

package v4l2

import (
	"unsafe"

	sys "golang.org/x/sys/unix"
)

// Compile-time struct size assertions. These fail to compile if a struct
// layout stops matching the kernel ABI for 64-bit Linux.
// Pattern: [0]struct{} = [actual - expected]struct{} fails if actual != expected.
var (
	_ [0]struct{} = [unsafe.Sizeof(Capability{}) - 104]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(Rect{}) - 16]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(Fract{}) - 8]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(CropCapability{}) - 44]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(Crop{}) - 20]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(PixFormat{}) - 48]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(Format{}) - 208]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(RequestBuffers{}) - 20]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(Timecode{}) - 16]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(Buffer{}) - 88]struct{}{}
)

// BufType (v4l2_buf_type) selects the data stream a command applies to.
type BufType = uint32

const (
	BufTypeVideoCapture BufType = 1
	BufTypeVideoOutput  BufType = 2
	BufTypeVideoOverlay BufType = 3
)

// MemoryType (v4l2_memory) selects the buffer I/O method. Only the
// memory-mapped method is used by this module.
type MemoryType = uint32

const (
	MemoryMMAP    MemoryType = 1
	MemoryUserPtr MemoryType = 2
	MemoryOverlay MemoryType = 3
	MemoryDMABuf  MemoryType = 4
)

// Capability flag bits reported by VIDIOC_QUERYCAP.
// https://elixir.bootlin.com/linux/latest/source/include/uapi/linux/videodev2.h#L451
const (
	CapVideoCapture uint32 = 0x00000001
	CapVideoOutput  uint32 = 0x00000002
	CapVideoOverlay uint32 = 0x00000004
	CapReadWrite    uint32 = 0x01000000
	CapAsyncIO      uint32 = 0x02000000
	CapStreaming    uint32 = 0x04000000
	CapDeviceCaps   uint32 = 0x80000000
)

// Field order (v4l2_field) values used when negotiating a format.
const (
	FieldAny        uint32 = 0
	FieldNone       uint32 = 1
	FieldTop        uint32 = 2
	FieldBottom     uint32 = 3
	FieldInterlaced uint32 = 4
)

// Buffer flag bits (v4l2_buffer.flags).
const (
	BufFlagMapped uint32 = 0x00000001
	BufFlagQueued uint32 = 0x00000002
	BufFlagDone   uint32 = 0x00000004
	BufFlagError  uint32 = 0x00000040
)

// Capability (v4l2_capability) describes a device and its driver.
// https://www.kernel.org/doc/html/latest/userspace-api/media/v4l/vidioc-querycap.html
type Capability struct {
	driver       [16]byte
	card         [32]byte
	busInfo      [32]byte
	Version      uint32
	Capabilities uint32
	DeviceCaps   uint32
	_            [3]uint32
}

// Rect (v4l2_rect) is a rectangle in driver pixel coordinates.
type Rect struct {
	Left   int32
	Top    int32
	Width  uint32
	Height uint32
}

// Fract (v4l2_fract) is a ratio, e.g. a pixel aspect.
type Fract struct {
	Numerator   uint32
	Denominator uint32
}

// CropCapability (v4l2_cropcap) reports the cropping bounds and the
// driver's default crop rectangle.
type CropCapability struct {
	Type        uint32
	Bounds      Rect
	DefaultRect Rect
	PixelAspect Fract
}

// Crop (v4l2_crop) carries the rectangle for VIDIOC_S_CROP.
type Crop struct {
	Type uint32
	Rect Rect
}

// PixFormat (v4l2_pix_format) describes a single-planar image format.
type PixFormat struct {
	Width        uint32
	Height       uint32
	PixelFormat  uint32
	Field        uint32
	BytesPerLine uint32
	SizeImage    uint32
	Colorspace   uint32
	Priv         uint32
	Flags        uint32
	YcbcrEnc     uint32
	Quantization uint32
	XferFunc     uint32
}

// Format (v4l2_format) wraps the per-stream format union. Only the
// single-planar pix member is accessed.
type Format struct {
	Type uint32
	_    uint32
	fmt  [200]byte // union: pix, pix_mp, win, vbi, ...
}

// Pix returns the union interpreted as a single-planar pixel format.
func (f *Format) Pix() *PixFormat {
	return (*PixFormat)(unsafe.Pointer(&f.fmt[0]))
}

// RequestBuffers (v4l2_requestbuffers) negotiates the buffer count for
// streaming I/O.
// https://www.kernel.org/doc/html/latest/userspace-api/media/v4l/vidioc-reqbufs.html
type RequestBuffers struct {
	Count        uint32
	Type         uint32
	Memory       uint32
	Capabilities uint32
	_            [1]uint32
}

// Timecode (v4l2_timecode) is frame timing metadata carried in Buffer.
type Timecode struct {
	Type     uint32
	Flags    uint32
	Frames   uint8
	Seconds  uint8
	Minutes  uint8
	Hours    uint8
	UserBits [4]uint8
}

// Buffer (v4l2_buffer) exchanges per-buffer state between application and
// driver once streaming I/O is initialized. The m union collapses to the
// mmap offset since only V4L2_MEMORY_MMAP is used.
// https://www.kernel.org/doc/html/latest/userspace-api/media/v4l/buffer.html
type Buffer struct {
	Index     uint32
	Type      uint32
	BytesUsed uint32
	Flags     uint32
	Field     uint32
	_         uint32
	Timestamp sys.Timeval
	Timecode  Timecode
	Sequence  uint32
	Memory    uint32
	Offset    uint32 // union m: offset for MemoryMMAP
	_         uint32 // union m holds a 64-bit userptr in other modes
	Length    uint32
	Reserved2 uint32
	RequestFD int32
}

// IsVideoCaptureSupported reports whether the device can capture video
// through the single-planar API.
func (c Capability) IsVideoCaptureSupported() bool {
	return c.Capabilities&CapVideoCapture != 0
}

// IsStreamingSupported reports whether the device supports streaming I/O
// (memory-mapped or user-pointer buffer exchange).
func (c Capability) IsStreamingSupported() bool {
	return c.Capabilities&CapStreaming != 0
}

// Driver returns the driver name as a string.
func (c Capability) Driver() string { return cstr(c.driver[:]) }

// Card returns the device name as a string.
func (c Capability) Card() string { return cstr(c.card[:]) }

// BusInfo returns the bus location string.
func (c Capability) BusInfo() string { return cstr(c.busInfo[:]) }

func cstr(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

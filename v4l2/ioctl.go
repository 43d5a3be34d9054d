//go:build linux && (amd64 || arm64)

package v4l2

import "unsafe"

// ioctl request codes are 32-bit values encoding direction, parameter size,
// type and command number.
// https://elixir.bootlin.com/linux/latest/source/include/uapi/asm-generic/ioctl.h

const (
	iocOpNone  = 0
	iocOpWrite = 1
	iocOpRead  = 2

	iocNumberBits = 8
	iocTypeBits   = 8
	iocSizeBits   = 14

	numberPos = 0
	typePos   = numberPos + iocNumberBits
	sizePos   = typePos + iocTypeBits
	opPos     = sizePos + iocSizeBits
)

// iocEnc encodes a V4L2 ioctl request value.
func iocEnc(op, typ, number, size uintptr) uintptr {
	return op<<opPos | typ<<typePos | number<<numberPos | size<<sizePos
}

// iocEncRead encodes a request where userspace reads from the kernel.
func iocEncRead(typ, number, size uintptr) uintptr {
	return iocEnc(iocOpRead, typ, number, size)
}

// iocEncWrite encodes a request where userspace writes values read by the kernel.
func iocEncWrite(typ, number, size uintptr) uintptr {
	return iocEnc(iocOpWrite, typ, number, size)
}

// iocEncReadWrite encodes a bidirectional request.
func iocEncReadWrite(typ, number, size uintptr) uintptr {
	return iocEnc(iocOpRead|iocOpWrite, typ, number, size)
}

// V4L2 command request values used by this module.
// https://elixir.bootlin.com/linux/latest/source/include/uapi/linux/videodev2.h#L2510
var (
	vidiocQueryCap  = iocEncRead('V', 0, unsafe.Sizeof(Capability{}))
	vidiocGetFormat = iocEncReadWrite('V', 4, unsafe.Sizeof(Format{}))
	vidiocSetFormat = iocEncReadWrite('V', 5, unsafe.Sizeof(Format{}))
	vidiocReqBufs   = iocEncReadWrite('V', 8, unsafe.Sizeof(RequestBuffers{}))
	vidiocQueryBuf  = iocEncReadWrite('V', 9, unsafe.Sizeof(Buffer{}))
	vidiocQueueBuf  = iocEncReadWrite('V', 15, unsafe.Sizeof(Buffer{}))
	vidiocDequeue   = iocEncReadWrite('V', 17, unsafe.Sizeof(Buffer{}))
	vidiocStreamOn  = iocEncWrite('V', 18, unsafe.Sizeof(int32(0)))
	vidiocStreamOff = iocEncWrite('V', 19, unsafe.Sizeof(int32(0)))
	vidiocCropCap   = iocEncReadWrite('V', 58, unsafe.Sizeof(CropCapability{}))
	vidiocSetCrop   = iocEncWrite('V', 60, unsafe.Sizeof(Crop{}))
)

package v4l2

import (
	"errors"
	sys "syscall"
)

// Sentinel errors for V4L2 operation failures. Check with errors.Is.
var (
	// ErrorSystem indicates an unrecoverable system-level failure
	// (EBADF, ENOMEM, ENODEV, EIO, ENXIO, EFAULT).
	ErrorSystem = errors.New("system error")

	// ErrorBadArgument corresponds to EINVAL: the arguments do not meet
	// the requirements of the ioctl. For VIDIOC_REQBUFS this means the
	// requested memory type is not supported.
	ErrorBadArgument = errors.New("bad argument error")

	// ErrorAgain corresponds to EAGAIN on a non-blocking handle: no
	// buffer was ready at the time of the call.
	ErrorAgain = errors.New("not ready")

	// ErrorTimeout indicates a bounded wait elapsed without the device
	// becoming ready.
	ErrorTimeout = errors.New("timeout error")

	// ErrorUnsupported corresponds to ENOTTY: the device does not
	// implement the requested ioctl.
	ErrorUnsupported = errors.New("unsupported error")

	// ErrorUnsupportedFeature indicates the device lacks a capability
	// required for an operation.
	ErrorUnsupportedFeature = errors.New("feature unsupported error")

	// ErrorInterrupted corresponds to EINTR; the operation is retried
	// transparently by the callers in this package.
	ErrorInterrupted = errors.New("interrupted")
)

func parseErrorType(errno sys.Errno) error {
	switch errno {
	case sys.EBADF, sys.ENOMEM, sys.ENODEV, sys.EIO, sys.ENXIO, sys.EFAULT:
		return ErrorSystem
	case sys.EINTR:
		return ErrorInterrupted
	case sys.EAGAIN:
		return ErrorAgain
	case sys.EINVAL:
		return ErrorBadArgument
	case sys.ENOTTY:
		return ErrorUnsupported
	default:
		return errno
	}
}

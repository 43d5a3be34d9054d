//go:build linux

package v4l2

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	sys "golang.org/x/sys/unix"
)

// OpenDevice opens the V4L2 device node at path for read/write in
// non-blocking mode. It validates that path names a character device
// before opening, and retries the open when interrupted by a signal.
func OpenDevice(path string) (uintptr, error) {
	fstat, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("open device: %w", err)
	}
	if fstat.Mode()&fs.ModeCharDevice == 0 {
		return 0, fmt.Errorf("open device: %s: not a character device", path)
	}

	for {
		fd, err := sys.Openat(sys.AT_FDCWD, path, sys.O_RDWR|sys.O_NONBLOCK, 0)
		if err == nil {
			return uintptr(fd), nil
		}
		if errors.Is(err, sys.EINTR) {
			continue
		}
		return 0, &os.PathError{Op: "open", Path: path, Err: err}
	}
}

// CloseDevice closes a device previously opened with OpenDevice.
func CloseDevice(fd uintptr) error {
	return sys.Close(int(fd))
}

// ioctl issues the request, transparently retrying while the call is
// interrupted by a signal. Every blocking device command in this package
// goes through this single retry point.
func ioctl(fd, req, arg uintptr) sys.Errno {
	for {
		_, _, errno := sys.Syscall(sys.SYS_IOCTL, fd, req, arg)
		if errno == sys.EINTR {
			continue
		}
		return errno
	}
}

// send issues an ioctl request and maps a failing errno onto the package
// error taxonomy while preserving the system error text.
func send(fd, req, arg uintptr) error {
	errno := ioctl(fd, req, arg)
	if errno == 0 {
		return nil
	}
	parsed := parseErrorType(errno)
	if parsed == error(errno) {
		return errno
	}
	return fmt.Errorf("%w (%s)", parsed, errno.Error())
}

// MapMemoryBuffer maps the device-owned region at offset into process
// address space, read/write and shared with the driver.
func MapMemoryBuffer(fd uintptr, offset int64, length int) ([]byte, error) {
	data, err := sys.Mmap(int(fd), offset, length, sys.PROT_READ|sys.PROT_WRITE, sys.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("map memory buffer: %w", err)
	}
	return data, nil
}

// UnmapMemoryBuffer releases a mapping created by MapMemoryBuffer.
func UnmapMemoryBuffer(buf []byte) error {
	if err := sys.Munmap(buf); err != nil {
		return fmt.Errorf("unmap memory buffer: %w", err)
	}
	return nil
}

// WaitForRead blocks until the device is ready to be read or the timeout
// elapses. An interrupted wait is restarted; a timeout is reported as
// ErrorTimeout.
func WaitForRead(fd uintptr, timeout time.Duration) error {
	for {
		timeval := sys.NsecToTimeval(timeout.Nanoseconds())
		var fdsRead sys.FdSet
		fdsRead.Set(int(fd))
		n, err := sys.Select(int(fd+1), &fdsRead, nil, nil, &timeval)
		switch {
		case n == -1 && errors.Is(err, sys.EINTR):
			continue
		case n == -1:
			return fmt.Errorf("wait for device read: %w", err)
		case n == 0:
			return fmt.Errorf("wait for device read: %w", ErrorTimeout)
		default:
			return nil
		}
	}
}

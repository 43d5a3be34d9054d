package v4l2

import (
	"fmt"
	"os"
	"regexp"
)

var devRoot = "/dev"

// devPattern matches V4L device node names on Linux (video0, video10, ...).
var devPattern = regexp.MustCompile(`/dev/(video|radio|vbi|swradio|v4l-subdev|v4l-touch|media)[0-9]+$`)

// IsDevice reports whether path names a V4L device file, following one
// level of symlink.
func IsDevice(path string) (bool, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if stat.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(path)
		if err != nil {
			return false, err
		}
		return IsDevice(target)
	}
	return stat.Mode()&os.ModeDevice != 0, nil
}

// GetAllDevicePaths returns the paths of all mounted V4L2 device nodes.
func GetAllDevicePaths() ([]string, error) {
	entries, err := os.ReadDir(devRoot)
	if err != nil {
		return nil, err
	}
	var result []string
	for _, entry := range entries {
		dev := fmt.Sprintf("%s/%s", devRoot, entry.Name())
		if !devPattern.MatchString(dev) {
			continue
		}
		ok, err := IsDevice(dev)
		if err != nil {
			return result, err
		}
		if ok {
			result = append(result, dev)
		}
	}
	return result, nil
}

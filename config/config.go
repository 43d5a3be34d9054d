package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultDevice is the platform-standard first capture device node.
const DefaultDevice = "/dev/video0"

// Config holds runtime configuration for a capture run. Fields may be
// loaded from a JSON file and overridden by command-line flags.
type Config struct {
	Debug bool `json:"debug"`

	// DevicePath is the capture device node to open.
	DevicePath string `json:"device_path"`
	// FrameCount is the number of frames to capture.
	FrameCount int `json:"frame_count"`
	// BufferCount is the number of memory-mapped buffers requested from
	// the device. The device may grant fewer; below 2 is fatal.
	BufferCount uint32 `json:"buffer_count"`
	// ForceFormat requests the fixed 640x480 YUYV format instead of
	// keeping the device's current format.
	ForceFormat bool `json:"force_format"`
	// RawOutput enables writing raw frame bytes to standard output.
	RawOutput bool `json:"raw_output"`
	// TimeoutSeconds bounds each device readiness wait.
	TimeoutSeconds int `json:"timeout_seconds"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:          false,
		DevicePath:     DefaultDevice,
		FrameCount:     70,
		BufferCount:    4,
		ForceFormat:    false,
		RawOutput:      false,
		TimeoutSeconds: 2,
	}
}

// Validate normalizes values to safe ranges. A buffer count below the
// protocol minimum is a configuration error, not clamped.
func (c *Config) Validate() error {
	if c.DevicePath == "" {
		c.DevicePath = DefaultDevice
	}
	if c.FrameCount <= 0 {
		c.FrameCount = 70
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 2
	}
	if c.BufferCount < 2 {
		return fmt.Errorf("buffer_count %d: at least 2 buffers required", c.BufferCount)
	}
	return nil
}

// Load attempts to read configuration from the given JSON file path. If
// the file does not exist it returns DefaultConfig(). On JSON error it
// returns defaults with the error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

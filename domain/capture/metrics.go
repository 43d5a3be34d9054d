package capture

import "time"

// CaptureStats summarises capture loop behaviour for instrumentation.
type CaptureStats struct {
	Delivered       uint64
	Spurious        uint64
	IOGlitches      uint64
	AvgHandle       time.Duration
	AvgHandleMicros float64
	LastDelivery    time.Time
}

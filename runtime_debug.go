package main

import (
	"log/slog"
	"time"

	"github.com/soocke/camgrab-go/debug"
)

// startRuntimeLoggers wires the periodic runtime instrumentation used to
// verify that the mapped buffer exchange does not leak: heap stats, RSS
// and goroutine counts all stay flat across a long capture.
func startRuntimeLoggers(logger *slog.Logger) {
	debug.StartMemLogger(2*time.Second, logger)
	debug.StartGoroutineLogger(time.Second, logger)
}

// Package v4l2 implements the subset of the Video4Linux2 userspace API
// needed for memory-mapped streaming capture: capability, crop and format
// queries, buffer reservation and exchange (QBUF/DQBUF), stream on/off,
// and a select(2) based readiness wait.
//
// The package is pure Go. Kernel struct layouts and ioctl request codes
// are declared for 64-bit Linux and guarded by compile-time size
// assertions instead of cgo.
package v4l2

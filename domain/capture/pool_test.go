package capture

import (
	"errors"
	"fmt"
	"testing"

	"github.com/soocke/camgrab-go/v4l2"
)

func TestAllocatePoolGrantedCount(t *testing.T) {
	ft := newFakeTransport(4)
	pool, err := AllocatePool(ft, discardLogger, 4)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if pool.Count() != 4 {
		t.Fatalf("pool size = %d, want 4", pool.Count())
	}
	for i := uint32(0); i < 4; i++ {
		d := pool.Descriptor(i)
		if d.Index != i {
			t.Errorf("descriptor %d has index %d", i, d.Index)
		}
		if d.Length != ft.bufLength {
			t.Errorf("descriptor %d length = %d, want %d", i, d.Length, ft.bufLength)
		}
		if len(d.Data) != int(ft.bufLength) {
			t.Errorf("descriptor %d mapped %d bytes, want %d", i, len(d.Data), ft.bufLength)
		}
	}
}

// Device grants fewer buffers than requested: the pool size follows the
// grant as long as the minimum holds.
func TestAllocatePoolDeviceGrantsThree(t *testing.T) {
	ft := newFakeTransport(3)
	pool, err := AllocatePool(ft, discardLogger, 4)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if pool.Count() != 3 {
		t.Fatalf("pool size = %d, want 3", pool.Count())
	}
}

// Device grants a single buffer: fatal, nothing left mapped.
func TestAllocatePoolInsufficientBuffers(t *testing.T) {
	ft := newFakeTransport(1)
	_, err := AllocatePool(ft, discardLogger, 4)
	if !errors.Is(err, ErrInsufficientBuffers) {
		t.Fatalf("err = %v, want ErrInsufficientBuffers", err)
	}
	if len(ft.mapped) != 0 {
		t.Errorf("%d mappings left after failed allocation", len(ft.mapped))
	}
}

func TestAllocatePoolRequestBelowMinimum(t *testing.T) {
	ft := newFakeTransport(4)
	_, err := AllocatePool(ft, discardLogger, 1)
	if !errors.Is(err, ErrInsufficientBuffers) {
		t.Fatalf("err = %v, want ErrInsufficientBuffers", err)
	}
}

func TestAllocatePoolMappingUnsupported(t *testing.T) {
	ft := newFakeTransport(4)
	ft.reqBufsErr = fmt.Errorf("request buffers: %w", v4l2.ErrorBadArgument)
	_, err := AllocatePool(ft, discardLogger, 4)
	if !errors.Is(err, ErrMappingUnsupported) {
		t.Fatalf("err = %v, want ErrMappingUnsupported", err)
	}
}

// A mapping failure partway through must release the earlier mappings on
// the fatal exit path.
func TestAllocatePoolPartialMapFailureCleansUp(t *testing.T) {
	ft := newFakeTransport(4)
	ft.mapErr = map[uint32]error{2: errors.New("map memory buffer: cannot allocate memory")}
	_, err := AllocatePool(ft, discardLogger, 4)
	if err == nil {
		t.Fatal("expected allocation failure")
	}
	if len(ft.mapped) != 0 {
		t.Errorf("%d mappings left dangling after partial failure", len(ft.mapped))
	}
}

func TestPoolReleaseIdempotent(t *testing.T) {
	ft := newFakeTransport(3)
	pool, err := AllocatePool(ft, discardLogger, 3)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if err := pool.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ft.unmapCalls != 3 {
		t.Fatalf("unmap calls = %d, want 3", ft.unmapCalls)
	}
	if len(ft.mapped) != 0 {
		t.Fatalf("%d mappings outstanding after release", len(ft.mapped))
	}
	// Second release must not double-unmap.
	if err := pool.Release(); err != nil {
		t.Fatalf("second release: %v", err)
	}
	if ft.unmapCalls != 3 {
		t.Fatalf("unmap calls after second release = %d, want 3", ft.unmapCalls)
	}
}

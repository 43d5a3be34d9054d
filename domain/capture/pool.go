package capture

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/soocke/camgrab-go/v4l2"
)

// MinBuffers is the smallest pool the buffer exchange protocol can run
// with: one buffer being filled by the device while another is handled by
// the process.
const MinBuffers = 2

// DefaultBufferCount is the number of buffers requested from the device
// when the config does not say otherwise.
const DefaultBufferCount = 4

// BufferPool owns the memory-mapped device buffers for one session. It
// negotiates the count with the device, maps every granted buffer and
// releases all mappings exactly once on teardown. No descriptor's memory
// may be accessed after Release.
type BufferPool struct {
	transport   Transport
	logger      *slog.Logger
	descriptors []BufferDescriptor
	released    bool
}

// AllocatePool reserves requested buffers on the device and maps each
// granted buffer into process memory. A grant below MinBuffers is fatal,
// as is a reservation rejection or any mapping failure. On a failed
// allocation no mapping is left behind.
func AllocatePool(t Transport, logger *slog.Logger, requested uint32) (*BufferPool, error) {
	if requested < MinBuffers {
		return nil, fmt.Errorf("allocate pool: requested %d: %w", requested, ErrInsufficientBuffers)
	}

	granted, err := t.RequestBuffers(requested)
	if err != nil {
		if errors.Is(err, v4l2.ErrorBadArgument) {
			return nil, fmt.Errorf("allocate pool: %w", ErrMappingUnsupported)
		}
		return nil, fmt.Errorf("allocate pool: %w", err)
	}
	if granted < MinBuffers {
		return nil, fmt.Errorf("allocate pool: device granted %d: %w", granted, ErrInsufficientBuffers)
	}

	p := &BufferPool{
		transport:   t,
		logger:      logger,
		descriptors: make([]BufferDescriptor, 0, granted),
	}
	for i := uint32(0); i < granted; i++ {
		length, offset, err := t.QueryBuffer(i)
		if err != nil {
			p.unmapAll()
			return nil, fmt.Errorf("allocate pool: buffer %d: %w", i, err)
		}
		data, err := t.MapBuffer(int64(offset), int(length))
		if err != nil {
			p.unmapAll()
			return nil, fmt.Errorf("allocate pool: buffer %d: %w", i, err)
		}
		p.descriptors = append(p.descriptors, BufferDescriptor{Index: i, Data: data, Length: length})
	}

	logger.Debug("buffer pool mapped", "requested", requested, "granted", granted)
	return p, nil
}

// Count returns the number of buffers in the pool.
func (p *BufferPool) Count() int { return len(p.descriptors) }

// Descriptor returns the descriptor at index. The index must be within
// [0, Count()).
func (p *BufferPool) Descriptor(index uint32) BufferDescriptor {
	return p.descriptors[index]
}

// Contains reports whether index falls within the pool's valid range.
func (p *BufferPool) Contains(index uint32) bool {
	return int(index) < len(p.descriptors)
}

// Release unmaps every descriptor's memory. It is safe to call more than
// once; only the first call unmaps. The first unmap error is returned but
// remaining descriptors are still released.
func (p *BufferPool) Release() error {
	if p.released {
		return nil
	}
	p.released = true
	return p.unmapAll()
}

func (p *BufferPool) unmapAll() error {
	var firstErr error
	for _, d := range p.descriptors {
		if d.Data == nil {
			continue
		}
		if err := p.transport.UnmapBuffer(d.Data); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("release pool: buffer %d: %w", d.Index, err)
		}
	}
	p.descriptors = nil
	return firstErr
}

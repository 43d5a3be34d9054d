package capture

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/soocke/camgrab-go/v4l2"
)

// discardLogger drops output; tests assert behaviour, not log lines.
var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// dqStep scripts one Dequeue outcome.
type dqStep struct {
	buf v4l2.Buffer
	err error
}

// fakeTransport is a scripted device: capability flags, buffer grant and
// per-call wait/dequeue outcomes are fixed up front, and every protocol
// interaction is traced for ordering assertions.
type fakeTransport struct {
	caps      uint32
	capErr    error
	cropErr   error
	format    v4l2.PixFormat
	setFormat func(v4l2.PixFormat) (v4l2.PixFormat, error)

	granted    uint32
	reqBufsErr error
	bufLength  uint32
	queryErr   map[uint32]error
	mapErr     map[uint32]error

	waitSteps []error
	dqSteps   []dqStep

	// deviceOwned tracks which buffer indices the device currently owns.
	deviceOwned map[uint32]bool
	// mapped holds outstanding mappings keyed by backing array identity.
	mapped map[*byte]bool

	streaming  bool
	streamErr  error
	unmapCalls int
	trace      []string
	closed     bool
}

func newFakeTransport(granted uint32) *fakeTransport {
	return &fakeTransport{
		caps:        v4l2.CapVideoCapture | v4l2.CapStreaming,
		granted:     granted,
		bufLength:   4096,
		deviceOwned: make(map[uint32]bool),
		mapped:      make(map[*byte]bool),
	}
}

func (f *fakeTransport) record(ev string) { f.trace = append(f.trace, ev) }

func (f *fakeTransport) Capability() (v4l2.Capability, error) {
	if f.capErr != nil {
		return v4l2.Capability{}, f.capErr
	}
	return v4l2.Capability{Capabilities: f.caps}, nil
}

func (f *fakeTransport) CropCapability() (v4l2.CropCapability, error) {
	if f.cropErr != nil {
		return v4l2.CropCapability{}, f.cropErr
	}
	return v4l2.CropCapability{DefaultRect: v4l2.Rect{Width: 640, Height: 480}}, nil
}

func (f *fakeTransport) SetCrop(v4l2.Rect) error { return f.cropErr }

func (f *fakeTransport) Format() (v4l2.PixFormat, error) { return f.format, nil }

func (f *fakeTransport) SetFormat(pix v4l2.PixFormat) (v4l2.PixFormat, error) {
	if f.setFormat != nil {
		return f.setFormat(pix)
	}
	return pix, nil
}

func (f *fakeTransport) RequestBuffers(count uint32) (uint32, error) {
	if f.reqBufsErr != nil {
		return 0, f.reqBufsErr
	}
	if f.granted < count {
		return f.granted, nil
	}
	return count, nil
}

func (f *fakeTransport) QueryBuffer(index uint32) (uint32, uint32, error) {
	if err := f.queryErr[index]; err != nil {
		return 0, 0, err
	}
	return f.bufLength, index * f.bufLength, nil
}

func (f *fakeTransport) MapBuffer(offset int64, length int) ([]byte, error) {
	index := uint32(offset) / f.bufLength
	if err := f.mapErr[index]; err != nil {
		return nil, err
	}
	data := make([]byte, length)
	f.mapped[&data[0]] = true
	return data, nil
}

func (f *fakeTransport) UnmapBuffer(data []byte) error {
	f.unmapCalls++
	key := &data[0]
	if !f.mapped[key] {
		return errors.New("unmap of region not currently mapped")
	}
	delete(f.mapped, key)
	return nil
}

func (f *fakeTransport) Queue(index uint32) error {
	if f.deviceOwned[index] {
		return fmt.Errorf("queue buffer %d: already device-owned", index)
	}
	f.deviceOwned[index] = true
	f.record(fmt.Sprintf("q:%d", index))
	return nil
}

func (f *fakeTransport) Dequeue() (v4l2.Buffer, error) {
	if len(f.dqSteps) == 0 {
		return v4l2.Buffer{}, fmt.Errorf("dequeue: %w", v4l2.ErrorAgain)
	}
	step := f.dqSteps[0]
	f.dqSteps = f.dqSteps[1:]
	if step.err != nil {
		f.record("dq:err")
		return v4l2.Buffer{}, step.err
	}
	if !f.deviceOwned[step.buf.Index] {
		return v4l2.Buffer{}, fmt.Errorf("dequeue buffer %d: not device-owned", step.buf.Index)
	}
	delete(f.deviceOwned, step.buf.Index)
	f.record(fmt.Sprintf("dq:%d", step.buf.Index))
	return step.buf, nil
}

func (f *fakeTransport) StreamOn() error {
	if f.streamErr != nil {
		return f.streamErr
	}
	f.streaming = true
	f.record("streamon")
	return nil
}

func (f *fakeTransport) StreamOff() error {
	f.streaming = false
	f.record("streamoff")
	return nil
}

func (f *fakeTransport) WaitRead(time.Duration) error {
	f.record("wait")
	if len(f.waitSteps) == 0 {
		return nil
	}
	err := f.waitSteps[0]
	f.waitSteps = f.waitSteps[1:]
	return err
}

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}

// ready builds a successful dequeue step for the given buffer index.
func ready(index uint32, bytesUsed uint32) dqStep {
	return dqStep{buf: v4l2.Buffer{Index: index, BytesUsed: bytesUsed, Flags: v4l2.BufFlagMapped}}
}

// notReady builds a spurious-wakeup dequeue step.
func notReady() dqStep {
	return dqStep{err: fmt.Errorf("buffer dequeue: %w", v4l2.ErrorAgain)}
}

// errTimeoutWait builds the error a timed-out readiness wait produces.
func errTimeoutWait() error {
	return fmt.Errorf("wait for device read: %w", v4l2.ErrorTimeout)
}

// recordingSink captures delivered frames, copying the borrowed data.
type recordingSink struct {
	frames []FrameRecord
	onEach func(FrameRecord)
	err    error
}

func (s *recordingSink) Consume(frame FrameRecord) error {
	if s.err != nil {
		return s.err
	}
	copied := FrameRecord{
		Index:     frame.Index,
		BytesUsed: frame.BytesUsed,
		Data:      append([]byte(nil), frame.Data...),
	}
	s.frames = append(s.frames, copied)
	if s.onEach != nil {
		s.onEach(frame)
	}
	return nil
}

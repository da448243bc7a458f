package hid

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/strumboli/strumboli/sdk/contracts"
)

const (
	defaultReadBuffer   = 64
	defaultFrameBuffer  = 64
	defaultPollInterval = time.Millisecond
)

// Reader owns one device interface handle: it polls the device without
// blocking, decodes each report through the layout, and publishes frames on
// a bounded channel. When the consumer falls behind, new frames are dropped
// rather than queued, so decoded positions never go stale.
type Reader struct {
	device contracts.Device
	layout *contracts.Layout
	rctx   contracts.ReportContext
	logger contracts.Logger

	frames       chan contracts.Frame
	readBuffer   int
	pollInterval time.Duration

	dropped        atomic.Uint64
	reportIDWarned bool
}

// NewReader builds a read loop for one device interface. Set
// rctx.ButtonInterface when the handle is known to be the dedicated button
// interface of a multi-interface device.
func NewReader(device contracts.Device, layout *contracts.Layout, rctx contracts.ReportContext, opts *contracts.ClientOptions) *Reader {
	frameBuffer := opts.FrameBuffer
	if frameBuffer <= 0 {
		frameBuffer = defaultFrameBuffer
	}
	readBuffer := opts.ReadBuffer
	if readBuffer <= 0 {
		readBuffer = defaultReadBuffer
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &Reader{
		device:       device,
		layout:       layout,
		rctx:         rctx,
		logger:       opts.Logger,
		frames:       make(chan contracts.Frame, frameBuffer),
		readBuffer:   readBuffer,
		pollInterval: pollInterval,
	}
}

// Frames is the bounded channel of decoded frames. It is closed when Run returns.
func (r *Reader) Frames() <-chan contracts.Frame {
	return r.frames
}

// Dropped reports how many frames were discarded because the consumer was
// not keeping up.
func (r *Reader) Dropped() uint64 {
	return r.dropped.Load()
}

// Run polls the device until ctx is cancelled or the device fails. A read
// failure means the interface is gone: the loop stops itself and reports
// the disconnection as the returned error instead of crashing anything else.
func (r *Reader) Run(ctx context.Context) error {
	defer close(r.frames)

	if err := r.device.SetNonblocking(true); err != nil {
		r.logger.Warn("non-blocking mode unavailable, reads may stall",
			r.logger.Field().Error("error", err))
	}

	r.logger.Info("device reading loop started")
	buf := make([]byte, r.readBuffer)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("device reading loop stopped")
			return nil
		default:
		}

		n, err := r.device.Read(buf)
		if err != nil {
			r.logger.Error("device read failed, stopping interface loop",
				r.logger.Field().Error("error", err))
			return fmt.Errorf("device read: %w", err)
		}
		if n == 0 {
			time.Sleep(r.pollInterval)
			continue
		}

		r.checkReportID(buf[:n])
		frame := Decode(buf[:n], r.layout, r.rctx)
		select {
		case r.frames <- frame:
		default:
			r.dropped.Add(1)
		}
	}
}

// checkReportID warns once when the interface reports under a different id
// than the layout declares. Multi-interface devices do this routinely; the
// warning is informational, not an error.
func (r *Reader) checkReportID(report []byte) {
	if r.reportIDWarned || len(report) == 0 {
		return
	}
	id := int(report[0])
	if id != r.layout.ReportID && id != r.layout.ButtonReportID {
		r.logger.Warn("interface uses an undeclared report id",
			r.logger.Field().Int("reportId", id),
			r.logger.Field().Int("declared", r.layout.ReportID))
		r.reportIDWarned = true
	}
}

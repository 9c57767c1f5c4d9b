package trace

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
)

var seq atomic.Uint64

// level carries the Level and Enabled methods shared by every sink.
type level struct{ l Level }

func (s level) Level() Level  { return s.l }
func (s level) Enabled() bool { return s.l > LevelOff }

func (s level) accepts(ev *Event) bool {
	return ev.Kind == KindHeartbeat || s.l.ShouldEmit(ev.Scope)
}

// StreamTracer writes each event as it arrives.
type StreamTracer struct {
	level
	mu     sync.Mutex
	w      io.Writer
	format Format
}

// NewStreamTracer writes events to w. FormatAuto means text.
func NewStreamTracer(w io.Writer, l Level, format Format) *StreamTracer {
	if format == FormatAuto {
		format = FormatText
	}
	return &StreamTracer{level: level{l}, w: w, format: format}
}

func (t *StreamTracer) Emit(ev *Event) {
	if !t.accepts(ev) {
		return
	}
	stored := *ev
	stored.Seq = seq.Add(1)
	data := FormatEvent(&stored, t.format)

	t.mu.Lock()
	defer t.mu.Unlock()
	// A broken trace sink must not fail resolution.
	_, _ = t.w.Write(data)
}

func (t *StreamTracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if f, ok := t.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

func (t *StreamTracer) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}
	if c, ok := t.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// RingTracer keeps the most recent events in memory.
type RingTracer struct {
	level
	mu    sync.Mutex
	buf   []Event
	start int // oldest event once buf is full
}

// NewRingTracer keeps up to capacity events (4096 when capacity <= 0).
func NewRingTracer(capacity int, l Level) *RingTracer {
	if capacity <= 0 {
		capacity = 4096
	}
	return &RingTracer{level: level{l}, buf: make([]Event, 0, capacity)}
}

func (t *RingTracer) Emit(ev *Event) {
	if !t.accepts(ev) {
		return
	}
	stored := *ev
	stored.Seq = seq.Add(1)

	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.buf) < cap(t.buf) {
		t.buf = append(t.buf, stored)
		return
	}
	t.buf[t.start] = stored
	t.start = (t.start + 1) % len(t.buf)
}

// Snapshot returns the retained events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Event, 0, len(t.buf))
	out = append(out, t.buf[t.start:]...)
	return append(out, t.buf[:t.start]...)
}

// Dump writes the retained events to w.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	for _, ev := range t.Snapshot() {
		if _, err := w.Write(FormatEvent(&ev, format)); err != nil {
			return err
		}
	}
	return nil
}

func (t *RingTracer) Flush() error { return nil }
func (t *RingTracer) Close() error { return nil }

// MultiTracer fans events out to several tracers.
type MultiTracer struct {
	level
	tracers []Tracer
}

func NewMultiTracer(l Level, tracers ...Tracer) *MultiTracer {
	return &MultiTracer{level: level{l}, tracers: tracers}
}

func (t *MultiTracer) Emit(ev *Event) {
	for _, tr := range t.tracers {
		tr.Emit(ev)
	}
}

func (t *MultiTracer) Flush() error {
	var errs []error
	for _, tr := range t.tracers {
		errs = append(errs, tr.Flush())
	}
	return errors.Join(errs...)
}

func (t *MultiTracer) Close() error {
	var errs []error
	for _, tr := range t.tracers {
		errs = append(errs, tr.Close())
	}
	return errors.Join(errs...)
}


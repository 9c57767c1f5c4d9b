package observ

import (
	"fmt"
	"io"
	"slices"
	"sync"
	"time"
)

// Timer records named phases of a run. The zero value is not usable; a nil
// *Timer accepts every call and records nothing.
type Timer struct {
	mu      sync.Mutex
	created time.Time
	spans   []phase
}

type phase struct {
	name  string
	start time.Time
	end   time.Time
	note  string
}

// NewTimer returns a Timer whose clock starts now.
func NewTimer() *Timer { return &Timer{created: time.Now()} }

// Track opens a phase and returns the function closing it. Closing twice
// keeps the first note and duration.
func (t *Timer) Track(name string) func(note string) {
	if t == nil {
		return func(string) {}
	}
	t.mu.Lock()
	t.spans = append(t.spans, phase{name: name, start: time.Now()})
	idx := len(t.spans) - 1
	t.mu.Unlock()

	return func(note string) {
		now := time.Now()
		t.mu.Lock()
		defer t.mu.Unlock()
		if p := &t.spans[idx]; p.end.IsZero() {
			p.end, p.note = now, note
		}
	}
}

// PhaseReport is one closed or open phase, in milliseconds.
type PhaseReport struct {
	Name string  `json:"name"`
	MS   float64 `json:"ms"`
	Note string  `json:"note,omitempty"`
	Open bool    `json:"open,omitempty"`
}

// Report lists phases in the order they were opened. WallMS runs from the
// timer's creation to the latest phase end, so overlapping phases are not
// double counted.
type Report struct {
	WallMS float64       `json:"wall_ms"`
	Phases []PhaseReport `json:"phases"`
}

// Report snapshots the timer.
func (t *Timer) Report() Report {
	if t == nil {
		return Report{}
	}
	t.mu.Lock()
	spans := slices.Clone(t.spans)
	t.mu.Unlock()

	var r Report
	var last time.Time
	for _, p := range spans {
		pr := PhaseReport{Name: p.name, Note: p.note}
		if p.end.IsZero() {
			pr.Open = true
			pr.MS = millis(time.Since(p.start))
		} else {
			pr.MS = millis(p.end.Sub(p.start))
			if p.end.After(last) {
				last = p.end
			}
		}
		r.Phases = append(r.Phases, pr)
	}
	if !last.IsZero() {
		r.WallMS = millis(last.Sub(t.created))
	}
	return r
}

// WriteSummary prints an aligned table of the report to w.
func (t *Timer) WriteSummary(w io.Writer) {
	r := t.Report()
	fmt.Fprintln(w, "timings:")
	for _, p := range r.Phases {
		note := p.Note
		if p.Open {
			note = "still running"
		}
		if note != "" {
			note = "  (" + note + ")"
		}
		fmt.Fprintf(w, "  %-16s %9.2fms%s\n", p.Name, p.MS, note)
	}
	fmt.Fprintf(w, "  %-16s %9.2fms\n", "wall", r.WallMS)
}

func millis(d time.Duration) float64 { return d.Seconds() * 1e3 }

package driver

import "time"

// Stage describes a phase of a batch run.
type Stage string

// StageResolve covers a single lookup.
const StageResolve Stage = "resolve"

// Status captures progress within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	// StatusAbsent marks a lookup that completed without a match.
	StatusAbsent  Status = "absent"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

// Event reports progress for one request, or for the whole run when Item is
// empty.
type Event struct {
	Item    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. Run calls OnEvent from worker
// goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

type nopSink struct{}

func (nopSink) OnEvent(Event) {}

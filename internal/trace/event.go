package trace

import "time"

// Kind is the type of a trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
	KindHeartbeat
)

var kindNames = [...]string{
	KindSpanBegin: "begin",
	KindSpanEnd:   "end",
	KindPoint:     "point",
	KindHeartbeat: "heartbeat",
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// Scope is the granularity of an event. Lower values are coarser.
type Scope uint8

const (
	// ScopeCommand covers a whole CLI command.
	ScopeCommand Scope = iota + 1
	// ScopeBatch covers phases of a batch run.
	ScopeBatch
	// ScopeLookup covers a single cache miss or assembly load.
	ScopeLookup
	// ScopeMember covers member-table scans and absent results.
	ScopeMember
)

var scopeNames = [...]string{
	ScopeCommand: "command",
	ScopeBatch:   "batch",
	ScopeLookup:  "lookup",
	ScopeMember:  "member",
}

func (s Scope) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s Scope) String() string {
	if int(s) < len(scopeNames) && scopeNames[s] != "" {
		return scopeNames[s]
	}
	return "unknown"
}

// Event is a single trace record.
type Event struct {
	Time     time.Time         `json:"time"`
	Seq      uint64            `json:"seq"` // assigned by the sink that stores the event
	Kind     Kind              `json:"kind"`
	Scope    Scope             `json:"scope"`
	SpanID   uint64            `json:"span,omitempty"`
	ParentID uint64            `json:"parent,omitempty"` // 0 for roots
	Name     string            `json:"name"`             // e.g. "type", "image:System.Runtime"
	Detail   string            `json:"detail,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
}

package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff Level = iota
	// LevelError records nothing while running; ring dumps still capture
	// heartbeats for post-mortem output.
	LevelError
	LevelPhase  // command and batch phases
	LevelDetail // cache misses and assembly loads
	LevelDebug  // member scans and absent results
)

var levelNames = [...]string{"off", "error", "phase", "detail", "debug"}

// widest is the finest scope each level emits; 0 emits nothing.
var widest = [...]Scope{0, 0, ScopeBatch, ScopeLookup, ScopeMember}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel converts a case-insensitive level name; "" is off.
func ParseLevel(s string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return LevelOff, nil
	}
	for i, n := range levelNames {
		if n == name {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: %s)", s, strings.Join(levelNames[:], "|"))
}

// ShouldEmit reports whether events of scope are recorded at l.
func (l Level) ShouldEmit(scope Scope) bool {
	return int(l) < len(widest) && scope != 0 && scope <= widest[l]
}

package trace

import (
	"encoding/json"
	"maps"
	"slices"
	"strconv"
)

// Format selects how sinks encode events.
type Format uint8

const (
	FormatAuto   Format = iota // chosen from the output path
	FormatText                 // one indented line per event
	FormatNDJSON               // one JSON object per line
)

var kindMarks = [...]string{
	KindSpanBegin: "→",
	KindSpanEnd:   "←",
	KindPoint:     "•",
	KindHeartbeat: "♡",
}

// FormatEvent encodes ev followed by a newline.
func FormatEvent(ev *Event, format Format) []byte {
	if format == FormatNDJSON {
		return appendJSON(nil, ev)
	}
	return appendText(nil, ev)
}

func appendJSON(buf []byte, ev *Event) []byte {
	data, err := json.Marshal(ev)
	if err != nil {
		data = []byte(`{"name":` + strconv.Quote(ev.Name) + `,"error":` + strconv.Quote(err.Error()) + `}`)
	}
	return append(append(buf, data...), '\n')
}

// appendText writes "15:04:05.000000 → lookup type (detail) {k=v}", indented
// when the event has a parent span.
func appendText(buf []byte, ev *Event) []byte {
	buf = ev.Time.AppendFormat(buf, "15:04:05.000000")
	buf = append(buf, ' ')
	if ev.ParentID != 0 {
		buf = append(buf, "  "...)
	}
	if int(ev.Kind) < len(kindMarks) && kindMarks[ev.Kind] != "" {
		buf = append(buf, kindMarks[ev.Kind]...)
		buf = append(buf, ' ')
	}
	buf = append(buf, ev.Scope.String()...)
	buf = append(buf, ' ')
	buf = append(buf, ev.Name...)
	if ev.Detail != "" {
		buf = append(buf, " ("...)
		buf = append(buf, ev.Detail...)
		buf = append(buf, ')')
	}
	if len(ev.Extra) > 0 {
		buf = append(buf, " {"...)
		for i, k := range slices.Sorted(maps.Keys(ev.Extra)) {
			if i > 0 {
				buf = append(buf, ", "...)
			}
			buf = append(buf, k...)
			buf = append(buf, '=')
			buf = append(buf, ev.Extra[k]...)
		}
		buf = append(buf, '}')
	}
	return append(buf, '\n')
}
